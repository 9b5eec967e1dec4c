package events

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrInterrupt signals that a subscriber wants to stop further delivery.
var ErrInterrupt = errors.New("events: delivery interrupted")

// HandlerFn receives an event. It may return the data modified; returning
// ErrInterrupt stops delivery to later subscribers.
type HandlerFn func(ctx context.Context, event string, data interface{}) (interface{}, error)

type subscription struct {
	priority int
	fn       HandlerFn
	name     string
}

// Hub is the process-wide event dispatcher. Subscribers register under an
// owner name and must unsubscribe when their owner goes away; the explicit
// lifecycle replaces multicast delegate fields so stale subscribers cannot
// leak.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]*subscription
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]*subscription)}
}

// Subscribe adds a handler for event with the given priority (lower runs
// first). name identifies the owner for Unsubscribe.
func (h *Hub) Subscribe(event string, priority int, name string, fn HandlerFn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := append(h.subs[event], &subscription{priority: priority, fn: fn, name: name})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	h.subs[event] = entries
}

// Unsubscribe removes every handler registered under name for event.
func (h *Hub) Unsubscribe(event, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries := h.subs[event]
	n := 0
	for _, s := range entries {
		if s.name != name {
			entries[n] = s
			n++
		}
	}
	h.subs[event] = entries[:n]
}

// UnsubscribeAll removes every handler registered under name across all
// events. Called when the owning object is torn down.
func (h *Hub) UnsubscribeAll(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for event, entries := range h.subs {
		n := 0
		for _, s := range entries {
			if s.name != name {
				entries[n] = s
				n++
			}
		}
		h.subs[event] = entries[:n]
	}
}

// Publish delivers event to all subscribers in priority order. Data flows
// through each handler and may be modified. Delivery stops early when a
// handler returns ErrInterrupt.
func (h *Hub) Publish(ctx context.Context, event string, data interface{}) (interface{}, error) {
	h.mu.RLock()
	entries := make([]*subscription, len(h.subs[event]))
	copy(entries, h.subs[event])
	h.mu.RUnlock()

	var err error
	for _, s := range entries {
		data, err = s.fn(ctx, event, data)
		if errors.Is(err, ErrInterrupt) {
			return data, err
		}
	}
	return data, nil
}

// ---- Event names ----

const (
	LevelUp        = "level_up"
	ItemAdded      = "item_added"
	ItemRemoved    = "item_removed"
	ItemEquipped   = "item_equipped"
	ItemUnequipped = "item_unequipped"
	DamageTaken    = "damage_taken"
	DialogueNode   = "dialogue_node"
	DialogueEnded  = "dialogue_ended"
	SceneChanged   = "scene_changed"
	SaveCompleted  = "save_completed"
	SaveFailed     = "save_failed"
	LoadCompleted  = "load_completed"
)
