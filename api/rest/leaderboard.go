package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hakoniwa-games/questforge/cache"
	"github.com/hakoniwa-games/questforge/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const leaderboardTop = 100

// LeaderboardHandler serves the level leaderboard from the sorted set,
// falling back to the database when the set is cold.
type LeaderboardHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(db *gorm.DB, c cache.Cache, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{db: db, cache: c, logger: logger}
}

// Entry is one leaderboard row.
type Entry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Top handles GET /api/leaderboard?limit=20.
func (h *LeaderboardHandler) Top(c *gin.Context) {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= leaderboardTop {
		limit = l
	}

	ctx := c.Request.Context()
	members, err := h.cache.ZRevRange(ctx, levelLeaderboardKey, 0, int64(limit-1))
	if err == nil && len(members) > 0 {
		entries := make([]Entry, 0, len(members))
		for i, name := range members {
			score, _ := h.cache.ZScore(ctx, levelLeaderboardKey, name)
			entries = append(entries, Entry{Rank: i + 1, Name: name, Level: int(score)})
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
		return
	}

	// Cold set: read from the DB and warm it.
	var chars []model.Character
	if err := h.db.Select("name, level").
		Order("level DESC, exp DESC").
		Limit(limit).
		Find(&chars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	entries := make([]Entry, len(chars))
	for i, ch := range chars {
		entries[i] = Entry{Rank: i + 1, Name: ch.Name, Level: ch.Level}
		_ = h.cache.ZAdd(ctx, levelLeaderboardKey, float64(ch.Level), ch.Name)
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// Rebuild refills the sorted set from the database. Run by the scheduler.
func (h *LeaderboardHandler) Rebuild(ctx context.Context) {
	var chars []model.Character
	if err := h.db.Select("name, level").
		Order("level DESC").
		Limit(leaderboardTop).
		Find(&chars).Error; err != nil {
		h.logger.Error("leaderboard rebuild query failed", zap.Error(err))
		return
	}
	for _, ch := range chars {
		if err := h.cache.ZAdd(ctx, levelLeaderboardKey, float64(ch.Level), ch.Name); err != nil {
			h.logger.Warn("leaderboard entry refresh failed",
				zap.String("name", ch.Name), zap.Error(err))
			return
		}
	}
}
