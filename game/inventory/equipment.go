package inventory

import "github.com/hakoniwa-games/questforge/game/stats"

// EquipSlot names one gear location.
type EquipSlot int

const (
	SlotHead EquipSlot = iota
	SlotChest
	SlotLegs
	SlotFeet
	SlotWeapon
	SlotShield
	SlotAccessory1
	SlotAccessory2

	NumEquipSlots
)

var equipSlotNames = map[EquipSlot]string{
	SlotHead:       "head",
	SlotChest:      "chest",
	SlotLegs:       "legs",
	SlotFeet:       "feet",
	SlotWeapon:     "weapon",
	SlotShield:     "shield",
	SlotAccessory1: "accessory1",
	SlotAccessory2: "accessory2",
}

func (s EquipSlot) String() string {
	if n, ok := equipSlotNames[s]; ok {
		return n
	}
	return "unknown"
}

// EquipSlotByName resolves a slot name. Returns -1 when unknown.
func EquipSlotByName(name string) EquipSlot {
	for s, n := range equipSlotNames {
		if n == name {
			return s
		}
	}
	return -1
}

// Equipment tracks one item per gear slot and mirrors each item's stat
// bonuses onto the owning stat block. Bonus application and removal are
// exact inverses: an item's bonuses are applied once on equip and removed
// once on unequip, never twice.
type Equipment struct {
	slots [NumEquipSlots]*Item
	stats *stats.Stats
}

// NewEquipment creates an empty equipment set bound to st.
func NewEquipment(st *stats.Stats) *Equipment {
	return &Equipment{stats: st}
}

// At returns the item equipped in slot, or nil.
func (e *Equipment) At(slot EquipSlot) *Item {
	if slot < 0 || slot >= NumEquipSlots {
		return nil
	}
	return e.slots[slot]
}

// Equip places item into slot, applying its bonuses. An item already in
// the slot is unequipped first (its bonuses removed) and returned.
func (e *Equipment) Equip(slot EquipSlot, item *Item) *Item {
	if slot < 0 || slot >= NumEquipSlots || item == nil {
		return nil
	}
	replaced := e.Unequip(slot)
	e.slots[slot] = item
	b := item.Bonus
	e.stats.ApplyBonus(b.MaxHP, b.MaxMP, b.Atk, b.Def, b.Agi)
	return replaced
}

// Unequip removes and returns the item in slot, removing its bonuses.
// Returns nil when the slot is empty.
func (e *Equipment) Unequip(slot EquipSlot) *Item {
	if slot < 0 || slot >= NumEquipSlots {
		return nil
	}
	item := e.slots[slot]
	if item == nil {
		return nil
	}
	e.slots[slot] = nil
	b := item.Bonus
	e.stats.RemoveBonus(b.MaxHP, b.MaxMP, b.Atk, b.Def, b.Agi)
	return item
}

// RestoreItems replaces the whole equipped set without touching the stat
// block. For rehydrating persisted state: a saved stat block already
// includes the bonuses of the items saved alongside it, so applying them
// again through Equip would double them.
func (e *Equipment) RestoreItems(items []*Item) {
	for i := range e.slots {
		e.slots[i] = nil
	}
	for i, it := range items {
		if i >= int(NumEquipSlots) {
			break
		}
		e.slots[i] = it
	}
}

// Items returns the equipped item (or nil) for every slot in slot order.
func (e *Equipment) Items() []*Item {
	out := make([]*Item, NumEquipSlots)
	copy(out, e.slots[:])
	return out
}
