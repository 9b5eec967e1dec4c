package audit

import (
	"context"
	"testing"

	"github.com/hakoniwa-games/questforge/model"
	"github.com/hakoniwa-games/questforge/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLog_EnqueuedAndFlushed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	charID := int64(1)
	accountID := int64(2)
	svc.Log(Entry{
		TraceID:    "trace-123",
		CharID:     &charID,
		AccountID:  &accountID,
		CharName:   "Mira",
		Action:     "login",
		Request:    map[string]string{"user": "mira"},
		Response:   map[string]bool{"ok": true},
		IP:         "127.0.0.1",
		SceneID:    "village",
		DurationMs: 42,
	})

	// Stop flushes remaining entries.
	svc.Stop(context.Background())

	var logs []model.AuditLog
	db.Find(&logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "trace-123", logs[0].TraceID)
	assert.Equal(t, "Mira", logs[0].CharName)
	assert.Equal(t, "login", logs[0].Action)
	assert.Equal(t, "village", logs[0].SceneID)
	assert.Equal(t, 42, logs[0].DurationMs)
}

func TestLog_BatchFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	for i := 0; i < batchSize; i++ {
		svc.Log(Entry{Action: "batch"})
	}
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.Equal(t, int64(batchSize), count)
}
