package model

import (
	"time"

	"gorm.io/datatypes"
)

// SaveSlot is the database-backed form of one save snapshot. The Payload
// column holds the serialized snapshot JSON exactly as the file store
// would write it.
type SaveSlot struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Slot      string         `gorm:"uniqueIndex;size:64;not null" json:"slot"`
	Version   string         `gorm:"size:16" json:"version"`
	SceneID   string         `gorm:"size:64" json:"scene_id"`
	Payload   datatypes.JSON `json:"payload"`
	SavedAt   time.Time      `json:"saved_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
