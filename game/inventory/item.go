package inventory

// Category classifies a catalog item.
type Category int

const (
	CategoryWeapon Category = iota
	CategoryArmor
	CategoryConsumable
	CategoryQuest
	CategoryMisc
)

var categoryNames = map[Category]string{
	CategoryWeapon:     "weapon",
	CategoryArmor:      "armor",
	CategoryConsumable: "consumable",
	CategoryQuest:      "quest",
	CategoryMisc:       "misc",
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "unknown"
}

// Rarity is the drop tier of an item.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

// Bonus holds the flat stat bonuses an item grants while equipped.
type Bonus struct {
	MaxHP int `json:"max_hp"`
	MaxMP int `json:"max_mp"`
	Atk   int `json:"atk"`
	Def   int `json:"def"`
	Agi   int `json:"agi"`
}

// Item is an immutable catalog entry. Inventory slots reference catalog
// items by pointer; they are never copied or mutated.
type Item struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Rarity     Rarity   `json:"rarity"`
	MaxStack   int      `json:"max_stack"`
	Bonus      Bonus    `json:"bonus"`
	Consumable bool     `json:"consumable"`
}

// Stackable reports whether more than one unit fits in a single slot.
func (it *Item) Stackable() bool {
	return it.MaxStack > 1
}
