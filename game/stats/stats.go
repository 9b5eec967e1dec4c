package stats

import "math"

// Per-level growth. Applied on every level-up.
const (
	growthMaxHP       = 10
	growthMaxMP       = 5
	growthAtk         = 2
	growthDef         = 1
	growthMag         = 2
	growthAgi         = 1
	growthLuk         = 1
	skillPointsPerLvl = 3

	// Experience threshold multiplier per level, rounded to nearest.
	expCurveFactor = 1.2
)

// Stats is the progression and combat state of one character or monster.
// All mutating operations clamp their inputs instead of returning errors:
// negative or over-cap values are inert where they have no defined effect.
type Stats struct {
	Level     int `json:"level"`
	Exp       int `json:"exp"`
	ExpToNext int `json:"exp_to_next"`

	HP    int `json:"hp"`
	MaxHP int `json:"max_hp"`
	MP    int `json:"mp"`
	MaxMP int `json:"max_mp"`

	Atk int `json:"atk"`
	Def int `json:"def"`
	Mag int `json:"mag"`
	Agi int `json:"agi"`
	Luk int `json:"luk"`

	CritChance float64 `json:"crit_chance"`
	CritMult   float64 `json:"crit_mult"`

	SkillPoints int `json:"skill_points"`
}

// New returns level-1 stats with the default starting values.
func New() *Stats {
	return &Stats{
		Level:      1,
		ExpToNext:  100,
		HP:         100,
		MaxHP:      100,
		MP:         50,
		MaxMP:      50,
		Atk:        10,
		Def:        5,
		Mag:        10,
		Agi:        10,
		Luk:        10,
		CritChance: 0.05,
		CritMult:   1.5,
	}
}

// AddExperience adds n experience points and applies as many level-ups as
// the new total covers. Non-positive n is a no-op. Returns the number of
// levels gained.
//
// Repeated calls are equivalent to a single call with the summed amount.
func (s *Stats) AddExperience(n int) int {
	if n <= 0 {
		return 0
	}
	s.Exp += n
	gained := 0
	for s.Exp >= s.ExpToNext {
		s.levelUp()
		gained++
	}
	return gained
}

// levelUp consumes one threshold worth of experience and applies growth.
// Current HP/MP are fully restored to the new maximums.
func (s *Stats) levelUp() {
	s.Exp -= s.ExpToNext
	s.Level++
	s.SkillPoints += skillPointsPerLvl

	s.MaxHP += growthMaxHP
	s.MaxMP += growthMaxMP
	s.Atk += growthAtk
	s.Def += growthDef
	s.Mag += growthMag
	s.Agi += growthAgi
	s.Luk += growthLuk

	s.HP = s.MaxHP
	s.MP = s.MaxMP

	s.ExpToNext = int(math.Round(float64(s.ExpToNext) * expCurveFactor))
}

// TakeDamage applies amount as incoming damage, reduced by Def but never
// below 1. HP is clamped to [0, MaxHP]. Non-positive amounts are ignored.
// Returns the effective damage dealt.
func (s *Stats) TakeDamage(amount int) int {
	if amount <= 0 {
		return 0
	}
	dmg := amount - s.Def
	if dmg < 1 {
		dmg = 1
	}
	s.HP -= dmg
	if s.HP < 0 {
		s.HP = 0
	}
	return dmg
}

// Heal restores up to n HP, never exceeding MaxHP. Inert when n <= 0 or
// HP is already full.
func (s *Stats) Heal(n int) {
	if n <= 0 {
		return
	}
	s.HP += n
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
}

// RestoreMana restores up to n MP, never exceeding MaxMP.
func (s *Stats) RestoreMana(n int) {
	if n <= 0 {
		return
	}
	s.MP += n
	if s.MP > s.MaxMP {
		s.MP = s.MaxMP
	}
}

// IsDead reports whether HP has reached zero.
func (s *Stats) IsDead() bool {
	return s.HP <= 0
}

// clampCurrent re-establishes the current-never-exceeds-max invariant after
// external max adjustments (equipment bonuses).
func (s *Stats) clampCurrent() {
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
	if s.MP > s.MaxMP {
		s.MP = s.MaxMP
	}
}

// ApplyBonus raises the stat maximums and attributes by the given deltas.
// Current HP/MP are unchanged.
func (s *Stats) ApplyBonus(hp, mp, atk, def, agi int) {
	s.MaxHP += hp
	s.MaxMP += mp
	s.Atk += atk
	s.Def += def
	s.Agi += agi
}

// RemoveBonus exactly undoes a prior ApplyBonus with the same deltas, then
// clamps current HP/MP to the lowered maximums.
func (s *Stats) RemoveBonus(hp, mp, atk, def, agi int) {
	s.MaxHP -= hp
	s.MaxMP -= mp
	s.Atk -= atk
	s.Def -= def
	s.Agi -= agi
	s.clampCurrent()
}
