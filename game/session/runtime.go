// Package session materializes persisted characters into live game state
// and tracks which characters are currently active.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hakoniwa-games/questforge/game/dialogue"
	"github.com/hakoniwa-games/questforge/game/inventory"
	"github.com/hakoniwa-games/questforge/game/stats"
	"github.com/hakoniwa-games/questforge/model"
)

// Runtime is the live state of one active character: the materialized
// stat block, inventory, equipment, and the dialogue the character is
// currently in, if any.
//
// All methods are safe for concurrent use; handlers for the same
// character may run in parallel.
type Runtime struct {
	CharID    int64
	AccountID int64
	Name      string

	mu        sync.Mutex
	stats     *stats.Stats
	inventory *inventory.Inventory
	equipment *inventory.Equipment
	dialogue  *dialogue.Runner
	sceneID   string
	lastSeen  time.Time
}

// NewRuntime builds a Runtime from a persisted character row.
func NewRuntime(c *model.Character, inventoryCapacity int) *Runtime {
	s := stats.New()
	s.Level = c.Level
	s.Exp = c.Exp
	s.ExpToNext = c.ExpToNext
	// A zero or negative threshold from a corrupted row would make the
	// level-up loop spin forever.
	if s.ExpToNext < 1 {
		s.ExpToNext = 1
	}
	s.HP = c.HP
	s.MaxHP = c.MaxHP
	s.MP = c.MP
	s.MaxMP = c.MaxMP
	s.Atk = c.Atk
	s.Def = c.Def
	s.Mag = c.Mag
	s.Agi = c.Agi
	s.Luk = c.Luk
	s.SkillPoints = c.SkillPoints

	return &Runtime{
		CharID:    c.ID,
		AccountID: c.AccountID,
		Name:      c.Name,
		stats:     s,
		inventory: inventory.New(inventoryCapacity),
		equipment: inventory.NewEquipment(s),
		sceneID:   c.SceneID,
		lastSeen:  time.Now(),
	}
}

// Touch updates the last-activity timestamp.
func (r *Runtime) Touch() {
	r.mu.Lock()
	r.lastSeen = time.Now()
	r.mu.Unlock()
}

// LastSeen returns the last-activity timestamp.
func (r *Runtime) LastSeen() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSeen
}

// SceneID returns the character's current scene.
func (r *Runtime) SceneID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sceneID
}

// SetSceneID moves the character to another scene.
func (r *Runtime) SetSceneID(id string) {
	r.mu.Lock()
	r.sceneID = id
	r.mu.Unlock()
}

// WithStats runs fn with exclusive access to the stat block.
func (r *Runtime) WithStats(fn func(*stats.Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.stats)
}

// WithInventory runs fn with exclusive access to inventory and equipment.
// Both are guarded by the same lock because equipping moves items between
// them.
func (r *Runtime) WithInventory(fn func(*inventory.Inventory, *inventory.Equipment)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.inventory, r.equipment)
}

// WithDialogue runs fn with exclusive access to the dialogue runner.
func (r *Runtime) WithDialogue(fn func(*dialogue.Runner)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dialogue == nil {
		r.dialogue = dialogue.NewRunner(0)
	}
	fn(r.dialogue)
}

// StatsSnapshot returns a copy of the current stat block.
func (r *Runtime) StatsSnapshot() stats.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.stats
}

// WriteBack copies the live stat block and scene into a character row for
// persistence. Equipment bonuses are part of the live block; the row
// stores the character as currently materialized.
func (r *Runtime) WriteBack(c *model.Character) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Level = r.stats.Level
	c.Exp = r.stats.Exp
	c.ExpToNext = r.stats.ExpToNext
	c.HP = r.stats.HP
	c.MaxHP = r.stats.MaxHP
	c.MP = r.stats.MP
	c.MaxMP = r.stats.MaxMP
	c.Atk = r.stats.Atk
	c.Def = r.stats.Def
	c.Mag = r.stats.Mag
	c.Agi = r.stats.Agi
	c.Luk = r.stats.Luk
	c.SkillPoints = r.stats.SkillPoints
	c.SceneID = r.sceneID
}

// ---- Save participation ----

// ItemResolver maps catalog item IDs back to item definitions when a
// snapshot is restored.
type ItemResolver interface {
	ItemByID(id string) *inventory.Item
}

type slotPayload struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type runtimePayload struct {
	Stats     stats.Stats   `json:"stats"`
	SceneID   string        `json:"scene_id"`
	Inventory []slotPayload `json:"inventory"`
	Equipped  []string      `json:"equipped"` // indexed by equip slot, "" = empty
}

// SaveParticipant adapts the runtime into a snapshot participant.
// Items are stored by catalog ID and resolved on restore; IDs missing
// from the catalog are dropped with no error.
type SaveParticipant struct {
	Runtime *Runtime
	Items   ItemResolver
}

func (p *SaveParticipant) SaveKey() string {
	return fmt.Sprintf("character:%d", p.Runtime.CharID)
}

func (p *SaveParticipant) CapturePayload() (json.RawMessage, error) {
	r := p.Runtime
	r.mu.Lock()
	defer r.mu.Unlock()

	pl := runtimePayload{
		Stats:   *r.stats,
		SceneID: r.sceneID,
	}
	for _, slot := range r.inventory.Slots() {
		if slot.Empty() {
			continue
		}
		pl.Inventory = append(pl.Inventory, slotPayload{ItemID: slot.Item.ID, Qty: slot.Qty})
	}
	for _, it := range p.Runtime.equipment.Items() {
		id := ""
		if it != nil {
			id = it.ID
		}
		pl.Equipped = append(pl.Equipped, id)
	}
	return json.Marshal(pl)
}

func (p *SaveParticipant) RestorePayload(raw json.RawMessage) error {
	var pl runtimePayload
	if err := json.Unmarshal(raw, &pl); err != nil {
		return err
	}

	r := p.Runtime
	r.mu.Lock()
	defer r.mu.Unlock()

	// The captured stat block already carries the bonuses of the items
	// captured as equipped, so the gear goes back into its slots without
	// re-applying anything. Equipping here would double every bonus.
	*r.stats = pl.Stats
	if r.stats.ExpToNext < 1 {
		r.stats.ExpToNext = 1
	}
	r.sceneID = pl.SceneID

	r.inventory.Clear()
	for _, sp := range pl.Inventory {
		item := p.Items.ItemByID(sp.ItemID)
		if item == nil {
			continue
		}
		r.inventory.Add(item, sp.Qty)
	}
	equipped := make([]*inventory.Item, inventory.NumEquipSlots)
	for slot, id := range pl.Equipped {
		if id == "" || slot >= int(inventory.NumEquipSlots) {
			continue
		}
		equipped[slot] = p.Items.ItemByID(id)
	}
	r.equipment.RestoreItems(equipped)
	return nil
}
