package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hakoniwa-games/questforge/cache"
	"github.com/hakoniwa-games/questforge/config"
	mw "github.com/hakoniwa-games/questforge/middleware"
	"github.com/hakoniwa-games/questforge/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login handles POST /api/auth/login. Unknown usernames are
// auto-registered; there is no separate signup endpoint.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var acc model.Account
	err := h.db.Where("username = ?", req.Username).First(&acc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, ok := h.register(c, req)
		if !ok {
			return
		}
		acc = *created
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	default:
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if acc.Banned() {
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
			return
		}
	}

	token, ok := h.issueSession(c, acc.ID)
	if !ok {
		return
	}

	// Best-effort; login must not fail on a bookkeeping write.
	now := time.Now()
	_ = h.db.Model(&acc).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"account_id": acc.ID,
		"username":   acc.Username,
	})
}

// register creates the account row for a first-time login. Responds
// and returns ok=false on failure.
func (h *AuthHandler) register(c *gin.Context, req loginRequest) (*model.Account, bool) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	acc := &model.Account{
		Username:     req.Username,
		PasswordHash: string(hash),
		Status:       model.AccountActive,
	}
	if err := h.db.Create(acc).Error; err != nil {
		// Concurrent first logins can race on the username index.
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return nil, false
	}
	return acc, true
}

// issueSession signs a token and records it in the cache so Auth
// middleware can check liveness with a single Exists call.
func (h *AuthHandler) issueSession(c *gin.Context, accountID int64) (string, bool) {
	token, err := mw.GenerateToken(accountID, h.sec.JWTSecret, h.sec.JWTTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return "", false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, mw.SessionKey(token), strconv.FormatInt(accountID, 10), h.sec.JWTTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return "", false
	}
	return token, true
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(tokenStr))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh. The old session is revoked
// before the replacement token is returned.
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(bearerToken(c)))

	newToken, ok := h.issueSession(c, accountID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": newToken})
}

func bearerToken(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
