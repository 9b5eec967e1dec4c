package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addItem(t *testing.T, s *server, token, id, itemID string, qty int) {
	t.Helper()
	w := postJSON(s.r, "/api/characters/"+id+"/inventory/add",
		map[string]interface{}{"item_id": itemID, "qty": qty},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestInventory_AddAndList(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")

	addItem(t, s, token, id, "herb", 5)
	addItem(t, s, token, id, "iron_sword", 1)

	w := getJSON(s.r, "/api/characters/"+id+"/inventory", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	slots := resp["slots"].([]interface{})
	assert.Len(t, slots, 2)
	assert.Equal(t, float64(8), resp["free_slots"])
}

func TestInventory_UnknownItem(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")

	w := postJSON(s.r, "/api/characters/"+id+"/inventory/add",
		map[string]interface{}{"item_id": "excalibur", "qty": 1},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInventory_RemoveMoreThanHeld(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	addItem(t, s, token, id, "herb", 3)

	// Removal is not transactional: the 3 held herbs come out even
	// though the requested 10 cannot be satisfied.
	w := postJSON(s.r, "/api/characters/"+id+"/inventory/remove",
		map[string]interface{}{"item_id": "herb", "qty": 10},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = getJSON(s.r, "/api/characters/"+id+"/inventory",
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["slots"])

	// Nothing left to take out.
	w = postJSON(s.r, "/api/characters/"+id+"/inventory/remove",
		map[string]interface{}{"item_id": "herb", "qty": 3},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInventory_UseConsumableHeals(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	addItem(t, s, token, id, "herb", 1)

	// Take 30 damage (Def 5 → 25 lands), then a herb restores 25.
	w := postJSON(s.r, "/api/characters/"+id+"/damage", map[string]int{"amount": 30},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(s.r, "/api/characters/"+id+"/inventory/use",
		map[string]string{"item_id": "herb"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decode(t, w)["hp"])

	// Herb consumed.
	w = postJSON(s.r, "/api/characters/"+id+"/inventory/use",
		map[string]string{"item_id": "herb"},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEquipment_EquipAppliesBonus(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	addItem(t, s, token, id, "iron_sword", 1)

	w := postJSON(s.r, "/api/characters/"+id+"/equipment/equip",
		map[string]string{"item_id": "iron_sword", "slot": "weapon"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(15), st["atk"]) // base 10 + sword 5

	// Item moved out of the inventory.
	w = getJSON(s.r, "/api/characters/"+id+"/inventory", "Authorization", "Bearer "+token)
	resp := decode(t, w)
	assert.Empty(t, resp["slots"])
	equipped := resp["equipped"].(map[string]interface{})
	assert.Equal(t, "iron_sword", equipped["weapon"])
}

func TestEquipment_UnequipRestoresExactly(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	addItem(t, s, token, id, "iron_sword", 1)

	postJSON(s.r, "/api/characters/"+id+"/equipment/equip",
		map[string]string{"item_id": "iron_sword", "slot": "weapon"},
		"Authorization", "Bearer "+token)

	w := postJSON(s.r, "/api/characters/"+id+"/equipment/unequip",
		map[string]string{"slot": "weapon"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(10), st["atk"]) // back to base

	// Back in the inventory.
	w = getJSON(s.r, "/api/characters/"+id+"/inventory", "Authorization", "Bearer "+token)
	slots := decode(t, w)["slots"].([]interface{})
	require.Len(t, slots, 1)
}

func TestEquipment_EquipNotHeld(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")

	w := postJSON(s.r, "/api/characters/"+id+"/equipment/equip",
		map[string]string{"item_id": "iron_sword", "slot": "weapon"},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEquipment_ConsumableNotEquippable(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")
	addItem(t, s, token, id, "herb", 1)

	w := postJSON(s.r, "/api/characters/"+id+"/equipment/equip",
		map[string]string{"item_id": "herb", "slot": "weapon"},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEquipment_UnequipTopsOffStackWhenBagFull(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")

	// One knife goes on the belt, one stays stacked in the bag.
	addItem(t, s, token, id, "throwing_knife", 2)
	w := postJSON(s.r, "/api/characters/"+id+"/equipment/equip",
		map[string]string{"item_id": "throwing_knife", "slot": "weapon"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	// Occupy every remaining slot with full herb stacks.
	for i := 0; i < 9; i++ {
		addItem(t, s, token, id, "herb", 99)
	}
	w = getJSON(s.r, "/api/characters/"+id+"/inventory", "Authorization", "Bearer "+token)
	require.Equal(t, float64(0), decode(t, w)["free_slots"])

	// No free slot, but the knife stack still has room.
	w = postJSON(s.r, "/api/characters/"+id+"/equipment/unequip",
		map[string]string{"slot": "weapon"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	w = getJSON(s.r, "/api/characters/"+id+"/inventory", "Authorization", "Bearer "+token)
	for _, raw := range decode(t, w)["slots"].([]interface{}) {
		slot := raw.(map[string]interface{})
		if slot["item_id"] == "throwing_knife" {
			assert.Equal(t, float64(2), slot["qty"])
			return
		}
	}
	t.Fatal("knife stack not found in inventory")
}

func TestEquipment_UnequipIntoFullBagStaysEquipped(t *testing.T) {
	s := newTestServer(t)
	token, id := activeCharacter(t, s, "alice", "Mira")

	addItem(t, s, token, id, "iron_sword", 1)
	w := postJSON(s.r, "/api/characters/"+id+"/equipment/equip",
		map[string]string{"item_id": "iron_sword", "slot": "weapon"},
		"Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	for i := 0; i < 10; i++ {
		addItem(t, s, token, id, "herb", 99)
	}

	w = postJSON(s.r, "/api/characters/"+id+"/equipment/unequip",
		map[string]string{"slot": "weapon"},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Sword and its bonus stay put.
	w = getJSON(s.r, "/api/characters/"+id+"/inventory", "Authorization", "Bearer "+token)
	equipped := decode(t, w)["equipped"].(map[string]interface{})
	assert.Equal(t, "iron_sword", equipped["weapon"])

	w = getJSON(s.r, "/api/characters/"+id+"/stats", "Authorization", "Bearer "+token)
	st := decode(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(15), st["atk"])
}
