package inventory

// Slot is one address in the bag. A nil Item (or zero Qty) means empty.
type Slot struct {
	Item *Item `json:"item"`
	Qty  int   `json:"qty"`
}

// Empty reports whether this slot holds nothing.
func (s *Slot) Empty() bool {
	return s.Item == nil || s.Qty <= 0
}

func (s *Slot) clear() {
	s.Item = nil
	s.Qty = 0
}

// Inventory is a fixed-capacity ordered sequence of slots.
//
// Add and Remove are deliberately not transactional: a partial fill or
// partial removal stays committed when the operation cannot complete.
// Callers that need atomicity must pre-check with Has.
type Inventory struct {
	slots []Slot
}

// New creates an empty inventory with the given slot capacity.
func New(capacity int) *Inventory {
	if capacity < 0 {
		capacity = 0
	}
	return &Inventory{slots: make([]Slot, capacity)}
}

// Capacity returns the total number of slots.
func (inv *Inventory) Capacity() int {
	return len(inv.slots)
}

// Slots returns the slot sequence. The returned slice is the live backing
// array; callers must not mutate it.
func (inv *Inventory) Slots() []Slot {
	return inv.slots
}

// Add places qty units of item into the bag. Existing stacks are topped
// off left to right before new slots are opened. Returns false when the
// full quantity did not fit; whatever was placed stays placed.
func (inv *Inventory) Add(item *Item, qty int) bool {
	if item == nil || qty <= 0 {
		return false
	}
	remaining := qty

	if item.Stackable() {
		for i := range inv.slots {
			s := &inv.slots[i]
			if s.Empty() || s.Item != item {
				continue
			}
			room := item.MaxStack - s.Qty
			if room <= 0 {
				continue
			}
			if room > remaining {
				room = remaining
			}
			s.Qty += room
			remaining -= room
			if remaining == 0 {
				return true
			}
		}
	}

	for i := range inv.slots {
		s := &inv.slots[i]
		if !s.Empty() {
			continue
		}
		take := item.MaxStack
		if take < 1 {
			take = 1
		}
		if take > remaining {
			take = remaining
		}
		s.Item = item
		s.Qty = take
		remaining -= take
		if remaining == 0 {
			return true
		}
	}

	return remaining == 0
}

// Remove takes qty units of item out of the bag, scanning from the last
// slot toward the first. Slots that reach zero become empty. Returns false
// when the bag held less than qty; the partial removal stays committed.
func (inv *Inventory) Remove(item *Item, qty int) bool {
	if item == nil || qty <= 0 {
		return false
	}
	remaining := qty
	for i := len(inv.slots) - 1; i >= 0; i-- {
		s := &inv.slots[i]
		if s.Empty() || s.Item != item {
			continue
		}
		if s.Qty > remaining {
			s.Qty -= remaining
			return true
		}
		remaining -= s.Qty
		s.clear()
		if remaining == 0 {
			return true
		}
	}
	return false
}

// Count sums the quantity of item across all slots.
func (inv *Inventory) Count(item *Item) int {
	total := 0
	for i := range inv.slots {
		s := &inv.slots[i]
		if !s.Empty() && s.Item == item {
			total += s.Qty
		}
	}
	return total
}

// Has reports whether at least qty units of item are present.
func (inv *Inventory) Has(item *Item, qty int) bool {
	return qty > 0 && inv.Count(item) >= qty
}

// FreeSlots returns the number of empty slots.
func (inv *Inventory) FreeSlots() int {
	n := 0
	for i := range inv.slots {
		if inv.slots[i].Empty() {
			n++
		}
	}
	return n
}

// Clear empties every slot.
func (inv *Inventory) Clear() {
	for i := range inv.slots {
		inv.slots[i].clear()
	}
}
