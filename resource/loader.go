// Package resource reads the game's static data files: the item catalog,
// dialogue graphs, and enemy archetypes. Everything is loaded once at
// startup and held in memory; the runtime never touches the files again.
package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hakoniwa-games/questforge/game/ai"
	"github.com/hakoniwa-games/questforge/game/dialogue"
	"github.com/hakoniwa-games/questforge/game/inventory"
)

// ---- Data file structures ----

// ItemDef is one entry in items.json.
type ItemDef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"` // weapon, armor, consumable, quest, misc
	Rarity     string `json:"rarity"`   // common, uncommon, rare, epic, legendary
	MaxStack   int    `json:"maxStack"`
	Consumable bool   `json:"consumable"`
	Price      int    `json:"price"`
	Bonus      struct {
		MaxHP int `json:"maxHp"`
		MaxMP int `json:"maxMp"`
		Atk   int `json:"atk"`
		Def   int `json:"def"`
		Agi   int `json:"agi"`
	} `json:"bonus"`
}

// EnemyDef is one entry in enemies.json. Stats and behavior tuning live
// together so a designer edits one record per enemy.
type EnemyDef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	MaxHP int    `json:"maxHp"`
	Atk   int    `json:"atk"`
	Def   int    `json:"def"`
	Exp   int    `json:"exp"`
	Gold  int    `json:"gold"`

	DetectionRange float64 `json:"detectionRange"`
	AttackRange    float64 `json:"attackRange"`
	AttackCooldown float64 `json:"attackCooldown"`
	WaypointWait   float64 `json:"waypointWait"`
	Flying         bool    `json:"flying"`

	Drops []EnemyDrop `json:"drops"`
}

// EnemyDrop is one entry in an enemy's drop table.
type EnemyDrop struct {
	ItemID string  `json:"itemId"`
	Qty    int     `json:"qty"`
	Chance float64 `json:"chance"` // 0..1
}

// AIConfig builds the behavior config for this archetype. Waypoints come
// from the spawn point, not the archetype, so the caller supplies them.
func (e *EnemyDef) AIConfig(waypoints []ai.Vec2) ai.Config {
	return ai.Config{
		DetectionRange: e.DetectionRange,
		AttackRange:    e.AttackRange,
		AttackCooldown: e.AttackCooldown,
		WaypointWait:   e.WaypointWait,
		Waypoints:      waypoints,
		Flying:         e.Flying,
	}
}

// ---- Loader ----

var itemCategories = map[string]inventory.Category{
	"weapon":     inventory.CategoryWeapon,
	"armor":      inventory.CategoryArmor,
	"consumable": inventory.CategoryConsumable,
	"quest":      inventory.CategoryQuest,
	"misc":       inventory.CategoryMisc,
}

var itemRarities = map[string]inventory.Rarity{
	"common":    inventory.RarityCommon,
	"uncommon":  inventory.RarityUncommon,
	"rare":      inventory.RarityRare,
	"epic":      inventory.RarityEpic,
	"legendary": inventory.RarityLegendary,
}

// Loader reads and holds all static game data.
type Loader struct {
	DataPath  string
	ItemDefs  []*ItemDef
	EnemyDefs []*EnemyDef
	Dialogues []*dialogue.Graph

	items     map[string]*inventory.Item
	enemies   map[string]*EnemyDef
	dialogues map[string]*dialogue.Graph
}

// NewLoader creates a Loader for the given data directory.
func NewLoader(dataPath string) *Loader {
	return &Loader{
		DataPath:  dataPath,
		items:     make(map[string]*inventory.Item),
		enemies:   make(map[string]*EnemyDef),
		dialogues: make(map[string]*dialogue.Graph),
	}
}

// Load reads all data files and builds the lookup indexes.
func (l *Loader) Load() error {
	loaders := []func() error{
		l.loadItems,
		l.loadEnemies,
		l.loadDialogues,
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) path(file string) string {
	return filepath.Join(l.DataPath, file)
}

func loadJSONArray[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	var arr []*T
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return arr, nil
}

func (l *Loader) loadItems() error {
	defs, err := loadJSONArray[ItemDef](l.path("items.json"))
	if err != nil {
		return err
	}
	for _, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("resource: item with empty id in items.json")
		}
		if _, dup := l.items[def.ID]; dup {
			return fmt.Errorf("resource: duplicate item id %q", def.ID)
		}
		cat, ok := itemCategories[def.Category]
		if !ok {
			return fmt.Errorf("resource: item %q: unknown category %q", def.ID, def.Category)
		}
		rar, ok := itemRarities[def.Rarity]
		if !ok {
			return fmt.Errorf("resource: item %q: unknown rarity %q", def.ID, def.Rarity)
		}
		maxStack := def.MaxStack
		if maxStack <= 0 {
			maxStack = 1
		}
		l.items[def.ID] = &inventory.Item{
			ID:       def.ID,
			Name:     def.Name,
			Category: cat,
			Rarity:   rar,
			MaxStack: maxStack,
			Bonus: inventory.Bonus{
				MaxHP: def.Bonus.MaxHP,
				MaxMP: def.Bonus.MaxMP,
				Atk:   def.Bonus.Atk,
				Def:   def.Bonus.Def,
				Agi:   def.Bonus.Agi,
			},
			Consumable: def.Consumable,
		}
	}
	l.ItemDefs = defs
	return nil
}

func (l *Loader) loadEnemies() error {
	defs, err := loadJSONArray[EnemyDef](l.path("enemies.json"))
	if err != nil {
		return err
	}
	for _, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("resource: enemy with empty id in enemies.json")
		}
		if _, dup := l.enemies[def.ID]; dup {
			return fmt.Errorf("resource: duplicate enemy id %q", def.ID)
		}
		l.enemies[def.ID] = def
	}
	l.EnemyDefs = defs
	return nil
}

// loadDialogues reads every *.json file under data/dialogues. One graph
// per file.
func (l *Loader) loadDialogues() error {
	dir := l.path("dialogues")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("resource: read %s: %w", dir, err)
	}
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("resource: read %s: %w", path, err)
		}
		var g dialogue.Graph
		if err := json.Unmarshal(data, &g); err != nil {
			return fmt.Errorf("resource: parse %s: %w", path, err)
		}
		if g.ID == "" {
			return fmt.Errorf("resource: dialogue %s has empty id", path)
		}
		if _, dup := l.dialogues[g.ID]; dup {
			return fmt.Errorf("resource: duplicate dialogue id %q", g.ID)
		}
		l.dialogues[g.ID] = &g
		l.Dialogues = append(l.Dialogues, &g)
	}
	return nil
}

// ---- Lookups ----

// ItemByID returns the item with the given ID, or nil.
func (l *Loader) ItemByID(id string) *inventory.Item {
	return l.items[id]
}

// EnemyByID returns the enemy archetype with the given ID, or nil.
func (l *Loader) EnemyByID(id string) *EnemyDef {
	return l.enemies[id]
}

// DialogueByID returns the dialogue graph with the given ID, or nil.
func (l *Loader) DialogueByID(id string) *dialogue.Graph {
	return l.dialogues[id]
}

// Items returns every item in the catalog.
func (l *Loader) Items() []*inventory.Item {
	out := make([]*inventory.Item, 0, len(l.items))
	for _, def := range l.ItemDefs {
		out = append(out, l.items[def.ID])
	}
	return out
}
