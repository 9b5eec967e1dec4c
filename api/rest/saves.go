package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hakoniwa-games/questforge/game/save"
)

// SaveHandler exposes the save coordinator over REST.
type SaveHandler struct {
	coord *save.Coordinator
}

// NewSaveHandler creates a new SaveHandler.
func NewSaveHandler(coord *save.Coordinator) *SaveHandler {
	return &SaveHandler{coord: coord}
}

// List handles GET /api/saves.
func (h *SaveHandler) List(c *gin.Context) {
	slots, err := h.coord.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// Info handles GET /api/saves/:slot: snapshot metadata without restoring.
func (h *SaveHandler) Info(c *gin.Context) {
	snap, err := h.coord.Peek(c.Param("slot"))
	if err != nil {
		h.saveError(c, err)
		return
	}
	keys := make([]string, 0, len(snap.Payloads))
	for k := range snap.Payloads {
		keys = append(keys, k)
	}
	c.JSON(http.StatusOK, gin.H{
		"slot":         snap.Slot,
		"saved_at":     snap.SavedAt,
		"version":      snap.Version,
		"scene_id":     snap.SceneID,
		"participants": keys,
	})
}

// Save handles POST /api/saves/:slot.
func (h *SaveHandler) Save(c *gin.Context) {
	slot := c.Param("slot")
	if err := h.coord.Save(c.Request.Context(), slot); err != nil {
		h.saveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot, "message": "saved"})
}

// Load handles POST /api/saves/:slot/load.
func (h *SaveHandler) Load(c *gin.Context) {
	slot := c.Param("slot")
	if err := h.coord.Load(c.Request.Context(), slot); err != nil {
		h.saveError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": slot, "message": "loaded"})
}

func (h *SaveHandler) saveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, save.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no such save"})
	case errors.Is(err, save.ErrBadSlotName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot name"})
	case errors.Is(err, save.ErrInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "save in progress"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
