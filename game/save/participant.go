package save

import (
	"encoding/json"
	"time"
)

// FormatVersion is written into every snapshot. Bump on layout changes.
const FormatVersion = "1.0.0"

// Participant is any component that contributes a keyed payload to a
// snapshot. Participants join and leave the coordinator explicitly; there
// is no runtime discovery step.
type Participant interface {
	// SaveKey must be stable across sessions.
	SaveKey() string
	CapturePayload() (json.RawMessage, error)
	RestorePayload(json.RawMessage) error
}

// Snapshot is the complete serializable state of one save operation.
type Snapshot struct {
	Slot     string                     `json:"slot"`
	SavedAt  time.Time                  `json:"saved_at"`
	Version  string                     `json:"version"`
	SceneID  string                     `json:"scene_id"`
	Payloads map[string]json.RawMessage `json:"payloads"`
}

// FuncParticipant adapts capture/restore closures into a Participant.
// Restore may be nil for capture-only participants.
type FuncParticipant struct {
	Key     string
	Capture func() (json.RawMessage, error)
	Restore func(json.RawMessage) error
}

func (p *FuncParticipant) SaveKey() string { return p.Key }

func (p *FuncParticipant) CapturePayload() (json.RawMessage, error) {
	if p.Capture == nil {
		return nil, nil
	}
	return p.Capture()
}

func (p *FuncParticipant) RestorePayload(raw json.RawMessage) error {
	if p.Restore == nil {
		return nil
	}
	return p.Restore(raw)
}
