package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hakoniwa-games/questforge/events"
	"github.com/hakoniwa-games/questforge/game/inventory"
	"github.com/hakoniwa-games/questforge/game/stats"
	"github.com/hakoniwa-games/questforge/resource"
)

// InventoryHandler handles inventory and equipment REST endpoints against
// the active runtime.
type InventoryHandler struct {
	chars *CharacterHandler
	res   *resource.Loader
	hub   *events.Hub
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(chars *CharacterHandler, res *resource.Loader, hub *events.Hub) *InventoryHandler {
	return &InventoryHandler{chars: chars, res: res, hub: hub}
}

type slotView struct {
	Index  int    `json:"index"`
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Qty    int    `json:"qty"`
}

// List handles GET /api/characters/:id/inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}

	var slots []slotView
	var free int
	equipped := map[string]string{}
	rt.WithInventory(func(inv *inventory.Inventory, eq *inventory.Equipment) {
		for i, s := range inv.Slots() {
			if s.Empty() {
				continue
			}
			slots = append(slots, slotView{Index: i, ItemID: s.Item.ID, Name: s.Item.Name, Qty: s.Qty})
		}
		free = inv.FreeSlots()
		for slot, it := range eq.Items() {
			if it != nil {
				equipped[inventory.EquipSlot(slot).String()] = it.ID
			}
		}
	})

	c.JSON(http.StatusOK, gin.H{
		"slots":      slots,
		"free_slots": free,
		"equipped":   equipped,
	})
}

type itemQtyRequest struct {
	ItemID string `json:"item_id" binding:"required"`
	Qty    int    `json:"qty" binding:"required,min=1"`
}

// Add handles POST /api/characters/:id/inventory/add.
func (h *InventoryHandler) Add(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var req itemQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item := h.res.ItemByID(req.ItemID)
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown item"})
		return
	}

	var added bool
	rt.WithInventory(func(inv *inventory.Inventory, _ *inventory.Equipment) {
		added = inv.Add(item, req.Qty)
	})
	rt.Touch()
	if !added {
		// Overflow above full stacks stays out; whatever fit stays in.
		c.JSON(http.StatusConflict, gin.H{"error": "inventory full"})
		return
	}
	_, _ = h.hub.Publish(c.Request.Context(), events.ItemAdded, req.ItemID)
	c.JSON(http.StatusOK, gin.H{"added": req.Qty})
}

// Remove handles POST /api/characters/:id/inventory/remove.
func (h *InventoryHandler) Remove(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var req itemQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item := h.res.ItemByID(req.ItemID)
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown item"})
		return
	}

	var removed bool
	rt.WithInventory(func(inv *inventory.Inventory, _ *inventory.Equipment) {
		removed = inv.Remove(item, req.Qty)
	})
	rt.Touch()
	if !removed {
		c.JSON(http.StatusConflict, gin.H{"error": "not enough items"})
		return
	}
	_, _ = h.hub.Publish(c.Request.Context(), events.ItemRemoved, req.ItemID)
	c.JSON(http.StatusOK, gin.H{"removed": req.Qty})
}

type useRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// Use handles POST /api/characters/:id/inventory/use for consumables.
// The item's bonus fields act as the restore amounts.
func (h *InventoryHandler) Use(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var req useRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item := h.res.ItemByID(req.ItemID)
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown item"})
		return
	}
	if !item.Consumable {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item not consumable"})
		return
	}

	var used bool
	rt.WithInventory(func(inv *inventory.Inventory, _ *inventory.Equipment) {
		used = inv.Remove(item, 1)
	})
	if !used {
		c.JSON(http.StatusConflict, gin.H{"error": "item not held"})
		return
	}
	var snap stats.Stats
	rt.WithStats(func(s *stats.Stats) {
		if item.Bonus.MaxHP > 0 {
			s.Heal(item.Bonus.MaxHP)
		}
		if item.Bonus.MaxMP > 0 {
			s.RestoreMana(item.Bonus.MaxMP)
		}
		snap = *s
	})
	rt.Touch()
	_, _ = h.hub.Publish(c.Request.Context(), events.ItemRemoved, req.ItemID)
	c.JSON(http.StatusOK, gin.H{"hp": snap.HP, "mp": snap.MP})
}

type equipRequest struct {
	ItemID string `json:"item_id" binding:"required"`
	Slot   string `json:"slot" binding:"required"`
}

// Equip handles POST /api/characters/:id/equipment/equip. The item moves
// from the inventory into the slot; a displaced occupant moves back.
func (h *InventoryHandler) Equip(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var req equipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slot := inventory.EquipSlotByName(req.Slot)
	if slot < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown slot"})
		return
	}
	item := h.res.ItemByID(req.ItemID)
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown item"})
		return
	}
	if item.Category != inventory.CategoryWeapon && item.Category != inventory.CategoryArmor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item not equippable"})
		return
	}

	var held bool
	var replacedID string
	rt.WithInventory(func(inv *inventory.Inventory, eq *inventory.Equipment) {
		held = inv.Remove(item, 1)
		if !held {
			return
		}
		if replaced := eq.Equip(slot, item); replaced != nil {
			replacedID = replaced.ID
			inv.Add(replaced, 1)
		}
	})
	rt.Touch()
	if !held {
		c.JSON(http.StatusConflict, gin.H{"error": "item not held"})
		return
	}
	_, _ = h.hub.Publish(c.Request.Context(), events.ItemEquipped, req.ItemID)

	c.JSON(http.StatusOK, gin.H{
		"equipped": req.ItemID,
		"replaced": replacedID,
		"stats":    rt.StatsSnapshot(),
	})
}

type unequipRequest struct {
	Slot string `json:"slot" binding:"required"`
}

// Unequip handles POST /api/characters/:id/equipment/unequip.
func (h *InventoryHandler) Unequip(c *gin.Context) {
	rt, ok := h.chars.activeRuntime(c)
	if !ok {
		return
	}
	var req unequipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slot := inventory.EquipSlotByName(req.Slot)
	if slot < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown slot"})
		return
	}

	var removed *inventory.Item
	var stashed bool
	rt.WithInventory(func(inv *inventory.Inventory, eq *inventory.Equipment) {
		removed = eq.Unequip(slot)
		if removed == nil {
			return
		}
		// A single unit either tops off a stack or needs a free slot.
		// When neither works the item goes back on rather than vanishing.
		stashed = inv.Add(removed, 1)
		if !stashed {
			eq.Equip(slot, removed)
		}
	})
	rt.Touch()
	if removed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot empty"})
		return
	}
	if !stashed {
		c.JSON(http.StatusConflict, gin.H{"error": "inventory full"})
		return
	}
	_, _ = h.hub.Publish(c.Request.Context(), events.ItemUnequipped, removed.ID)

	c.JSON(http.StatusOK, gin.H{
		"unequipped": removed.ID,
		"stats":      rt.StatsSnapshot(),
	})
}
