package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hakoniwa-games/questforge/events"
	"github.com/hakoniwa-games/questforge/game/dialogue"
	"github.com/hakoniwa-games/questforge/resource"
)

// DialogueHandler drives a character's active conversation.
type DialogueHandler struct {
	chars *CharacterHandler
	res   *resource.Loader
	hub   *events.Hub
}

// NewDialogueHandler creates a new DialogueHandler.
func NewDialogueHandler(chars *CharacterHandler, res *resource.Loader, hub *events.Hub) *DialogueHandler {
	return &DialogueHandler{chars: chars, res: res, hub: hub}
}

type startDialogueRequest struct {
	GraphID string `json:"graph_id" binding:"required"`
}

// Start handles POST /api/characters/:id/dialogue/start.
func (h *DialogueHandler) Start(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var req startDialogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	graph := h.res.DialogueByID(req.GraphID)
	if graph == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown dialogue"})
		return
	}

	var startErr error
	rt.WithDialogue(func(r *dialogue.Runner) {
		startErr = r.Start(graph)
	})
	rt.Touch()
	if startErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": startErr.Error()})
		return
	}
	_, _ = h.hub.Publish(c.Request.Context(), events.DialogueNode, req.GraphID)
	h.current(c, rt)
}

// Current handles GET /api/characters/:id/dialogue.
func (h *DialogueHandler) Current(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	h.current(c, rt)
}

func (h *DialogueHandler) current(c *gin.Context, rt runtimeWithDialogue) {
	var active bool
	var node *dialogue.Node
	var choices []dialogue.Choice
	var text string
	var done bool
	rt.WithDialogue(func(r *dialogue.Runner) {
		active = r.Active()
		if !active {
			return
		}
		node = r.Current()
		choices = r.AvailableChoices()
		text = r.RevealedText()
		done = r.TypingDone()
	})

	if !active {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":      true,
		"node_id":     node.ID,
		"speaker":     node.Speaker,
		"text":        text,
		"typing_done": done,
		"choices":     choiceLabels(choices),
	})
}

// Advance handles POST /api/characters/:id/dialogue/advance.
func (h *DialogueHandler) Advance(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var err error
	rt.WithDialogue(func(r *dialogue.Runner) {
		err = r.Advance()
	})
	rt.Touch()
	if err != nil {
		h.dialogueError(c, err)
		return
	}
	h.afterStep(c, rt)
}

type chooseRequest struct {
	Choice int `json:"choice" binding:"min=0"`
}

// Choose handles POST /api/characters/:id/dialogue/choose.
func (h *DialogueHandler) Choose(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var req chooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var err error
	rt.WithDialogue(func(r *dialogue.Runner) {
		err = r.SelectChoice(req.Choice)
	})
	rt.Touch()
	if err != nil {
		h.dialogueError(c, err)
		return
	}
	h.afterStep(c, rt)
}

// Skip handles POST /api/characters/:id/dialogue/skip: reveals the whole
// current line immediately.
func (h *DialogueHandler) Skip(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var active bool
	rt.WithDialogue(func(r *dialogue.Runner) {
		active = r.Active()
		if active {
			r.SkipTyping()
		}
	})
	rt.Touch()
	if !active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no active dialogue"})
		return
	}
	h.current(c, rt)
}

func (h *DialogueHandler) afterStep(c *gin.Context, rt runtimeWithDialogue) {
	var active bool
	rt.WithDialogue(func(r *dialogue.Runner) { active = r.Active() })
	if !active {
		_, _ = h.hub.Publish(c.Request.Context(), events.DialogueEnded, nil)
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	h.current(c, rt)
}

func (h *DialogueHandler) dialogueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dialogue.ErrNotActive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no active dialogue"})
	case errors.Is(err, dialogue.ErrNoSuchChoice):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no such choice"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func choiceLabels(choices []dialogue.Choice) []string {
	out := make([]string, len(choices))
	for i, ch := range choices {
		out[i] = ch.Label
	}
	return out
}

// runtimeWithDialogue is the slice of Runtime the handler needs; keeps
// the helpers testable.
type runtimeWithDialogue interface {
	WithDialogue(fn func(*dialogue.Runner))
}
