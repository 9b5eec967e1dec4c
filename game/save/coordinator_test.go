package save

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hakoniwa-games/questforge/cache/local"
	"github.com/hakoniwa-games/questforge/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	c, err := local.NewCache(local.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return NewCoordinator(fs, c, events.NewHub(), zap.NewNop())
}

type counterParticipant struct {
	key   string
	value int
}

func (p *counterParticipant) SaveKey() string { return p.key }

func (p *counterParticipant) CapturePayload() (json.RawMessage, error) {
	return json.Marshal(p.value)
}

func (p *counterParticipant) RestorePayload(raw json.RawMessage) error {
	return json.Unmarshal(raw, &p.value)
}

func TestCoordinator_SaveLoad_RoundTrip(t *testing.T) {
	co := newTestCoordinator(t)
	ctx := context.Background()

	counter := &counterParticipant{key: "counter", value: 42}
	state := map[string]string{"weather": "rain"}
	co.Register(counter)
	co.Register(&FuncParticipant{
		Key:     "world",
		Capture: func() (json.RawMessage, error) { return json.Marshal(state) },
		Restore: func(raw json.RawMessage) error { return json.Unmarshal(raw, &state) },
	})
	co.SetScene(ctx, "village")

	require.NoError(t, co.Save(ctx, "slot1"))

	counter.value = 0
	state = nil
	co.mu.Lock()
	co.sceneID = "dungeon"
	co.mu.Unlock()

	require.NoError(t, co.Load(ctx, "slot1"))
	assert.Equal(t, 42, counter.value)
	assert.Equal(t, map[string]string{"weather": "rain"}, state)
	assert.Equal(t, "village", co.SceneID())
}

func TestCoordinator_Load_MissingSlot(t *testing.T) {
	co := newTestCoordinator(t)
	assert.ErrorIs(t, co.Load(context.Background(), "nope"), ErrNotFound)
}

func TestCoordinator_Save_SkipsWhileInProgress(t *testing.T) {
	co := newTestCoordinator(t)
	ctx := context.Background()

	// Simulate a save holding the lock.
	ok, err := co.cache.SetNX(ctx, saveLockKey, "other", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, co.Save(ctx, "slot1"), ErrInProgress)

	// Lock released elsewhere, the next trigger proceeds.
	require.NoError(t, co.cache.Del(ctx, saveLockKey))
	assert.NoError(t, co.Save(ctx, "slot1"))
}

func TestCoordinator_Register_LastWriterWins(t *testing.T) {
	co := newTestCoordinator(t)
	ctx := context.Background()

	first := &counterParticipant{key: "dup", value: 1}
	second := &counterParticipant{key: "dup", value: 2}
	co.Register(first)
	co.Register(second)

	require.NoError(t, co.Save(ctx, "slot1"))

	snap, err := co.Peek("slot1")
	require.NoError(t, err)
	require.Len(t, snap.Payloads, 1)
	assert.Equal(t, json.RawMessage("2"), snap.Payloads["dup"])
}

func TestCoordinator_Load_UnmatchedParticipantUntouched(t *testing.T) {
	co := newTestCoordinator(t)
	ctx := context.Background()

	saved := &counterParticipant{key: "saved", value: 7}
	co.Register(saved)
	require.NoError(t, co.Save(ctx, "slot1"))

	// Register a participant after the save; the snapshot has no entry
	// for it, so loading leaves it alone.
	late := &counterParticipant{key: "late", value: 99}
	co.Register(late)
	saved.value = 0

	require.NoError(t, co.Load(ctx, "slot1"))
	assert.Equal(t, 7, saved.value)
	assert.Equal(t, 99, late.value)
}

func TestCoordinator_Unregister(t *testing.T) {
	co := newTestCoordinator(t)
	ctx := context.Background()

	co.Register(&counterParticipant{key: "gone", value: 1})
	co.Unregister("gone")
	require.NoError(t, co.Save(ctx, "slot1"))

	snap, err := co.Peek("slot1")
	require.NoError(t, err)
	assert.Empty(t, snap.Payloads)
}

func TestCoordinator_SetScene_Autosaves(t *testing.T) {
	co := newTestCoordinator(t)
	co.SaveOnSceneChange = true
	ctx := context.Background()

	co.Register(&counterParticipant{key: "counter", value: 5})
	co.SetScene(ctx, "castle")

	snap, err := co.Peek(AutoSaveSlot)
	require.NoError(t, err)
	assert.Equal(t, "castle", snap.SceneID)
}

func TestCoordinator_Save_PublishesCompletion(t *testing.T) {
	co := newTestCoordinator(t)
	ctx := context.Background()

	var gotSlot string
	co.hub.Subscribe(events.SaveCompleted, 0, "test", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		gotSlot, _ = data.(string)
		return data, nil
	})

	require.NoError(t, co.Save(ctx, "slot9"))
	assert.Equal(t, "slot9", gotSlot)
}

func TestCoordinator_Snapshot_CarriesVersion(t *testing.T) {
	co := newTestCoordinator(t)
	require.NoError(t, co.Save(context.Background(), "slot1"))

	snap, err := co.Peek("slot1")
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, snap.Version)
	assert.WithinDuration(t, time.Now().UTC(), snap.SavedAt, 5*time.Second)
}
