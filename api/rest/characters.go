package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hakoniwa-games/questforge/cache"
	"github.com/hakoniwa-games/questforge/config"
	"github.com/hakoniwa-games/questforge/events"
	"github.com/hakoniwa-games/questforge/game/save"
	"github.com/hakoniwa-games/questforge/game/session"
	"github.com/hakoniwa-games/questforge/game/stats"
	mw "github.com/hakoniwa-games/questforge/middleware"
	"github.com/hakoniwa-games/questforge/model"
	"github.com/hakoniwa-games/questforge/resource"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxCharacters = 3

// levelLeaderboardKey is the sorted-set key character levels rank under.
const levelLeaderboardKey = "leaderboard:level"

// CharacterHandler handles character REST endpoints: the persisted roster
// plus gameplay actions against the active runtime.
type CharacterHandler struct {
	db       *gorm.DB
	registry *session.Registry
	res      *resource.Loader
	cache    cache.Cache
	hub      *events.Hub
	coord    *save.Coordinator
	game     config.GameConfig
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(db *gorm.DB, reg *session.Registry, res *resource.Loader,
	c cache.Cache, hub *events.Hub, coord *save.Coordinator, game config.GameConfig) *CharacterHandler {
	return &CharacterHandler{
		db: db, registry: reg, res: res,
		cache: c, hub: hub, coord: coord, game: game,
	}
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	var chars []model.Character
	if err := h.db.Where("account_id = ?", accountID).Find(&chars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars})
}

type createCharacterRequest struct {
	Name string `json:"name" binding:"required,min=1,max=32"`
}

// Create handles POST /api/characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing []model.Character
	if err := h.db.Select("id").Where("account_id = ?", accountID).Find(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if len(existing) >= maxCharacters {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max characters reached"})
		return
	}

	base := stats.New()
	char := &model.Character{
		AccountID: accountID,
		Name:      req.Name,
		Level:     base.Level,
		Exp:       base.Exp,
		ExpToNext: base.ExpToNext,
		HP:        base.HP, MaxHP: base.MaxHP,
		MP: base.MP, MaxMP: base.MaxMP,
		Atk: base.Atk, Def: base.Def,
		Mag: base.Mag, Agi: base.Agi, Luk: base.Luk,
		SceneID: "start",
	}

	if err := h.db.Create(char).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "character name already taken"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusCreated, char)
}

// Get handles GET /api/characters/:id.
func (h *CharacterHandler) Get(c *gin.Context) {
	char, ok := h.ownedCharacter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, char)
}

type deleteCharacterRequest struct {
	Password string `json:"password" binding:"required"`
}

// Delete handles DELETE /api/characters/:id. The account password must
// be re-entered; deletion is permanent.
func (h *CharacterHandler) Delete(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	char, ok := h.ownedCharacter(c)
	if !ok {
		return
	}

	var req deleteCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	var acc model.Account
	if err := h.db.First(&acc, accountID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
		return
	}

	h.deactivate(char.ID, false)
	if err := h.db.Delete(&model.Character{}, char.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "character deleted"})
}

// Activate handles POST /api/characters/:id/activate: materializes the
// runtime and registers it as a save participant.
func (h *CharacterHandler) Activate(c *gin.Context) {
	char, ok := h.ownedCharacter(c)
	if !ok {
		return
	}

	rt := session.NewRuntime(char, h.game.InventoryCapacity)
	h.registry.Register(rt)
	h.coord.Register(&session.SaveParticipant{Runtime: rt, Items: h.res})

	c.JSON(http.StatusOK, gin.H{
		"character_id": rt.CharID,
		"stats":        rt.StatsSnapshot(),
		"scene_id":     rt.SceneID(),
	})
}

// Deactivate handles POST /api/characters/:id/deactivate: persists the
// runtime back to its row and drops it from the registry.
func (h *CharacterHandler) Deactivate(c *gin.Context) {
	char, ok := h.ownedCharacter(c)
	if !ok {
		return
	}
	if !h.deactivate(char.ID, true) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "character not active"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "character deactivated"})
}

func (h *CharacterHandler) deactivate(charID int64, writeBack bool) bool {
	rt := h.registry.Get(charID)
	if rt == nil {
		return false
	}
	if writeBack {
		var row model.Character
		if err := h.db.First(&row, charID).Error; err == nil {
			rt.WriteBack(&row)
			h.db.Save(&row)
		}
	}
	h.coord.Unregister(fmt.Sprintf("character:%d", charID))
	h.registry.Unregister(charID)
	return true
}

// Stats handles GET /api/characters/:id/stats against the live runtime.
func (h *CharacterHandler) Stats(c *gin.Context) {
	rt, ok := h.activeRuntime(c)
	if !ok {
		return
	}
	snap := rt.StatsSnapshot()
	c.JSON(http.StatusOK, gin.H{"stats": snap, "dead": snap.IsDead()})
}

type amountRequest struct {
	Amount int `json:"amount" binding:"required,min=1"`
}

// GainExperience handles POST /api/characters/:id/experience.
func (h *CharacterHandler) GainExperience(c *gin.Context) {
	rt, ok := h.activeRuntime(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var levels int
	var snap stats.Stats
	rt.WithStats(func(s *stats.Stats) {
		levels = s.AddExperience(req.Amount)
		snap = *s
	})
	rt.Touch()

	if levels > 0 {
		_, _ = h.hub.Publish(c.Request.Context(), events.LevelUp, rt.CharID)
		// Best-effort ranking update.
		_ = h.cache.ZAdd(c.Request.Context(), levelLeaderboardKey,
			float64(snap.Level), rt.Name)
		var row model.Character
		if err := h.db.First(&row, rt.CharID).Error; err == nil {
			rt.WriteBack(&row)
			h.db.Save(&row)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"levels_gained": levels,
		"stats":         snap,
	})
}

// TakeDamage handles POST /api/characters/:id/damage.
func (h *CharacterHandler) TakeDamage(c *gin.Context) {
	rt, ok := h.activeRuntime(c)
	if !ok {
		return
	}
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dealt int
	var snap stats.Stats
	rt.WithStats(func(s *stats.Stats) {
		dealt = s.TakeDamage(req.Amount)
		snap = *s
	})
	rt.Touch()
	_, _ = h.hub.Publish(c.Request.Context(), events.DamageTaken, dealt)

	c.JSON(http.StatusOK, gin.H{
		"damage": dealt,
		"hp":     snap.HP,
		"dead":   snap.IsDead(),
	})
}

type healRequest struct {
	HP int `json:"hp" binding:"min=0"`
	MP int `json:"mp" binding:"min=0"`
}

// Heal handles POST /api/characters/:id/heal.
func (h *CharacterHandler) Heal(c *gin.Context) {
	rt, ok := h.activeRuntime(c)
	if !ok {
		return
	}
	var req healRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var snap stats.Stats
	rt.WithStats(func(s *stats.Stats) {
		if req.HP > 0 {
			s.Heal(req.HP)
		}
		if req.MP > 0 {
			s.RestoreMana(req.MP)
		}
		snap = *s
	})
	rt.Touch()

	c.JSON(http.StatusOK, gin.H{"hp": snap.HP, "mp": snap.MP})
}

type sceneRequest struct {
	SceneID string `json:"scene_id" binding:"required,max=64"`
}

// ChangeScene handles POST /api/characters/:id/scene.
func (h *CharacterHandler) ChangeScene(c *gin.Context) {
	rt, ok := h.activeRuntime(c)
	if !ok {
		return
	}
	var req sceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt.SetSceneID(req.SceneID)
	rt.Touch()
	h.coord.SetScene(c.Request.Context(), req.SceneID)
	c.JSON(http.StatusOK, gin.H{"scene_id": req.SceneID})
}

// ---- Helpers ----

// ownedCharacter loads the :id character and verifies ownership.
func (h *CharacterHandler) ownedCharacter(c *gin.Context) (*model.Character, bool) {
	accountID := mw.GetAccountID(c)
	charID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var char model.Character
	if err := h.db.First(&char, charID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return nil, false
	}
	if char.AccountID != accountID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your character"})
		return nil, false
	}
	return &char, true
}

// activeRuntime resolves the :id character's live runtime, verifying
// ownership first.
func (h *CharacterHandler) activeRuntime(c *gin.Context) (*session.Runtime, bool) {
	char, ok := h.ownedCharacter(c)
	if !ok {
		return nil, false
	}
	rt := h.registry.Get(char.ID)
	if rt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "character not active"})
		return nil, false
	}
	return rt, true
}
