package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hakoniwa-games/questforge/cache"
	"github.com/hakoniwa-games/questforge/events"
	"go.uber.org/zap"
)

// ErrInProgress is returned when a save is triggered while another save
// is still running. The trigger is skipped, never queued.
var ErrInProgress = errors.New("save: save already in progress")

// AutoSaveSlot is the slot the periodic and scene-transition saves use.
const AutoSaveSlot = "autosave"

// saveLockKey guards against overlapping saves across the process (and
// across nodes when the cache is Redis-backed).
const saveLockKey = "save:inprogress"

// saveLockTTL bounds how long a crashed save can hold the lock.
const saveLockTTL = 30 * time.Second

// Coordinator aggregates the payloads of registered participants into
// snapshots and restores them. It is constructed once per process and
// handed to consumers explicitly.
type Coordinator struct {
	mu           sync.Mutex
	participants map[string]Participant
	sceneID      string

	store  Store
	cache  cache.Cache
	hub    *events.Hub
	logger *zap.Logger

	// Save the autosave slot whenever the scene changes.
	SaveOnSceneChange bool
}

// NewCoordinator creates a Coordinator using the given snapshot store.
func NewCoordinator(store Store, c cache.Cache, hub *events.Hub, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		participants: make(map[string]Participant),
		store:        store,
		cache:        c,
		hub:          hub,
		logger:       logger,
	}
}

// Register adds a participant. When two participants claim the same key
// the later registration wins; the earlier one no longer takes part.
func (co *Coordinator) Register(p Participant) {
	co.mu.Lock()
	defer co.mu.Unlock()
	key := p.SaveKey()
	if _, exists := co.participants[key]; exists {
		co.logger.Warn("save participant key re-registered, last writer wins",
			zap.String("key", key))
	}
	co.participants[key] = p
}

// Unregister removes the participant under key.
func (co *Coordinator) Unregister(key string) {
	co.mu.Lock()
	defer co.mu.Unlock()
	delete(co.participants, key)
}

// SceneID returns the current scene identifier.
func (co *Coordinator) SceneID() string {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.sceneID
}

// SetScene records the active scene, publishes the transition, and, when
// configured, autosaves.
func (co *Coordinator) SetScene(ctx context.Context, sceneID string) {
	co.mu.Lock()
	co.sceneID = sceneID
	saveNow := co.SaveOnSceneChange
	co.mu.Unlock()

	_, _ = co.hub.Publish(ctx, events.SceneChanged, sceneID)

	if saveNow {
		if err := co.Save(ctx, AutoSaveSlot); err != nil && !errors.Is(err, ErrInProgress) {
			co.logger.Error("scene-transition autosave failed", zap.Error(err))
		}
	}
}

// Save captures every registered participant into a snapshot and persists
// it under slot. A save triggered while another save is running returns
// ErrInProgress without doing anything.
func (co *Coordinator) Save(ctx context.Context, slot string) error {
	ok, err := co.cache.SetNX(ctx, saveLockKey, slot, saveLockTTL)
	if err != nil {
		return fmt.Errorf("save: acquire lock: %w", err)
	}
	if !ok {
		return ErrInProgress
	}
	defer func() { _ = co.cache.Del(ctx, saveLockKey) }()

	snap, err := co.capture(slot)
	if err != nil {
		co.publishFailure(ctx, slot, err)
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		co.publishFailure(ctx, slot, err)
		return fmt.Errorf("save: encode snapshot: %w", err)
	}
	if err := co.store.Write(slot, data); err != nil {
		co.publishFailure(ctx, slot, err)
		return err
	}

	co.logger.Info("snapshot saved",
		zap.String("slot", slot),
		zap.Int("participants", len(snap.Payloads)),
		zap.Int("bytes", len(data)))
	_, _ = co.hub.Publish(ctx, events.SaveCompleted, slot)
	return nil
}

func (co *Coordinator) capture(slot string) (*Snapshot, error) {
	co.mu.Lock()
	defer co.mu.Unlock()

	snap := &Snapshot{
		Slot:     slot,
		SavedAt:  time.Now().UTC(),
		Version:  FormatVersion,
		SceneID:  co.sceneID,
		Payloads: make(map[string]json.RawMessage, len(co.participants)),
	}
	for key, p := range co.participants {
		payload, err := p.CapturePayload()
		if err != nil {
			return nil, fmt.Errorf("save: capture %q: %w", key, err)
		}
		snap.Payloads[key] = payload
	}
	return snap, nil
}

// Load reads the snapshot under slot and dispatches each payload to the
// participant registered under the matching key. Participants without a
// matching entry are left unchanged. Returns ErrNotFound when the slot
// does not exist.
func (co *Coordinator) Load(ctx context.Context, slot string) error {
	data, err := co.store.Read(slot)
	if err != nil {
		return err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("save: decode snapshot: %w", err)
	}

	co.mu.Lock()
	co.sceneID = snap.SceneID
	restored := 0
	for key, p := range co.participants {
		payload, ok := snap.Payloads[key]
		if !ok {
			continue
		}
		if err := p.RestorePayload(payload); err != nil {
			co.mu.Unlock()
			return fmt.Errorf("save: restore %q: %w", key, err)
		}
		restored++
	}
	co.mu.Unlock()

	co.logger.Info("snapshot loaded",
		zap.String("slot", slot),
		zap.String("version", snap.Version),
		zap.Int("restored", restored))
	_, _ = co.hub.Publish(ctx, events.LoadCompleted, slot)
	return nil
}

// Peek reads the snapshot metadata for slot without restoring anything.
func (co *Coordinator) Peek(slot string) (*Snapshot, error) {
	data, err := co.store.Read(slot)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("save: decode snapshot: %w", err)
	}
	return &snap, nil
}

// List returns the slot names present in the store.
func (co *Coordinator) List() ([]string, error) {
	return co.store.List()
}

// AutoSave runs one periodic autosave tick. An overlapping save is a
// silent skip.
func (co *Coordinator) AutoSave(ctx context.Context) {
	err := co.Save(ctx, AutoSaveSlot)
	switch {
	case errors.Is(err, ErrInProgress):
		co.logger.Debug("autosave skipped, save in progress")
	case err != nil:
		co.logger.Error("autosave failed", zap.Error(err))
	}
}

func (co *Coordinator) publishFailure(ctx context.Context, slot string, err error) {
	co.logger.Error("save failed", zap.String("slot", slot), zap.Error(err))
	_, _ = co.hub.Publish(ctx, events.SaveFailed, err.Error())
}
