package model

import "time"

// Character is the persisted form of a player character. The live stat
// block (including equipment bonuses) is materialized in game/session;
// this row holds the base values written back on save.
type Character struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID   int64     `gorm:"index:idx_account;not null" json:"account_id"`
	Name        string    `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Level       int       `gorm:"default:1" json:"level"`
	Exp         int       `gorm:"default:0" json:"exp"`
	ExpToNext   int       `gorm:"default:100" json:"exp_to_next"`
	HP          int       `gorm:"not null" json:"hp"`
	MaxHP       int       `gorm:"not null" json:"max_hp"`
	MP          int       `gorm:"not null" json:"mp"`
	MaxMP       int       `gorm:"not null" json:"max_mp"`
	Atk         int       `gorm:"default:10" json:"atk"`
	Def         int       `gorm:"default:5" json:"def"`
	Mag         int       `gorm:"default:10" json:"mag"`
	Agi         int       `gorm:"default:10" json:"agi"`
	Luk         int       `gorm:"default:10" json:"luk"`
	SkillPoints int       `gorm:"default:0" json:"skill_points"`
	SceneID     string    `gorm:"size:64" json:"scene_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
