package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hakoniwa-games/questforge/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore persists snapshots as rows in the save_slots table. It is an
// alternative backend for deployments that already run a database and
// prefer not to manage a save directory.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates a database-backed store.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Write upserts the row for slot. Snapshot metadata is duplicated into
// queryable columns; the Payload column remains authoritative.
func (s *DBStore) Write(slot string, data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("save: decode snapshot: %w", err)
	}
	row := &model.SaveSlot{
		Slot:    slot,
		Version: snap.Version,
		SceneID: snap.SceneID,
		Payload: datatypes.JSON(data),
		SavedAt: snap.SavedAt,
	}
	if row.SavedAt.IsZero() {
		row.SavedAt = time.Now()
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "scene_id", "payload", "saved_at"}),
	}).Create(row).Error
}

// Read returns the stored snapshot bytes for slot, or ErrNotFound.
func (s *DBStore) Read(slot string) ([]byte, error) {
	var row model.SaveSlot
	err := s.db.Where("slot = ?", slot).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("save: read: %w", err)
	}
	return []byte(row.Payload), nil
}

// List returns all stored slot names.
func (s *DBStore) List() ([]string, error) {
	var slots []string
	if err := s.db.Model(&model.SaveSlot{}).Pluck("slot", &slots).Error; err != nil {
		return nil, fmt.Errorf("save: list: %w", err)
	}
	return slots, nil
}

// Delete removes the row for slot. Absent slots are not an error.
func (s *DBStore) Delete(slot string) error {
	return s.db.Where("slot = ?", slot).Delete(&model.SaveSlot{}).Error
}
