package model

import "time"

// Account status values.
const (
	AccountBanned = 0
	AccountActive = 1
)

// Account is a player login. Characters hang off it one-to-many.
type Account struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string     `gorm:"size:60;not null" json:"-"` // bcrypt output
	Status       int        `gorm:"default:1" json:"status"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLoginIP  string     `gorm:"size:45" json:"last_login_ip"`
}

// Banned reports whether the account is blocked from logging in.
func (a *Account) Banned() bool { return a.Status == AccountBanned }
