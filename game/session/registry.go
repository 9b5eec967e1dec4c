package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry tracks every active character runtime.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[int64]*Runtime // charID → runtime
	logger   *zap.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		runtimes: make(map[int64]*Runtime),
		logger:   logger,
	}
}

// Register adds a runtime. An existing runtime for the same character is
// displaced; callers holding the old pointer keep a stale copy.
func (reg *Registry) Register(r *Runtime) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.runtimes[r.CharID]; ok {
		reg.logger.Info("active character displaced", zap.Int64("char_id", r.CharID))
	}
	reg.runtimes[r.CharID] = r
	reg.logger.Info("character activated",
		zap.Int64("char_id", r.CharID),
		zap.Int64("account_id", r.AccountID))
}

// Unregister removes the runtime for a character.
func (reg *Registry) Unregister(charID int64) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.runtimes, charID)
	reg.logger.Info("character deactivated", zap.Int64("char_id", charID))
}

// Get returns the runtime for a character, or nil.
func (reg *Registry) Get(charID int64) *Runtime {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.runtimes[charID]
}

// Count returns the number of active runtimes.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.runtimes)
}

// All returns a snapshot slice of active runtimes.
func (reg *Registry) All() []*Runtime {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Runtime, 0, len(reg.runtimes))
	for _, r := range reg.runtimes {
		out = append(out, r)
	}
	return out
}

// ReapIdle removes runtimes inactive for longer than maxIdle and returns
// them so the caller can persist their state.
func (reg *Registry) ReapIdle(maxIdle time.Duration) []*Runtime {
	cutoff := time.Now().Add(-maxIdle)
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var reaped []*Runtime
	for id, r := range reg.runtimes {
		if r.LastSeen().Before(cutoff) {
			delete(reg.runtimes, id)
			reaped = append(reaped, r)
		}
	}
	if len(reaped) > 0 {
		reg.logger.Info("idle characters reaped", zap.Int("count", len(reaped)))
	}
	return reaped
}
