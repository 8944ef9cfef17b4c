package models

import (
	"time"
)

// Identity written onto pins that predate per-user ownership.
const (
	LegacyUserID   = "legacy-user"
	LegacyUsername = "Legacy User"
)

// Pin is a marker on the guild map. DiscordUserID, DiscordUsername and
// CreatedAt are set once on creation and never updated.
type Pin struct {
	ID              uint      `gorm:"column:id;primaryKey" json:"id"`
	Title           string    `gorm:"column:title;not null" json:"title"`
	Description     string    `gorm:"column:description;not null;default:''" json:"description"`
	Category        string    `gorm:"column:category;not null" json:"category"`
	Lat             float64   `gorm:"column:lat;not null" json:"lat"`
	Lng             float64   `gorm:"column:lng;not null" json:"lng"`
	DiscordUserID   string    `gorm:"column:discord_user_id;size:50;not null;index" json:"discord_user_id"`
	DiscordUsername string    `gorm:"column:discord_username;size:100;not null" json:"discord_username"`
	CreatedAt       time.Time `gorm:"column:created_at;not null;autoCreateTime" json:"created_at"`
}

func (Pin) TableName() string {
	return "pins"
}

// LegacyPin is the pre-ownership pins table. Only used to build fixtures and
// to describe what the migration reads from.
type LegacyPin struct {
	ID          uint      `gorm:"column:id;primaryKey"`
	Title       string    `gorm:"column:title;not null"`
	Description *string   `gorm:"column:description"`
	Category    string    `gorm:"column:category;not null"`
	Lat         float64   `gorm:"column:lat;not null"`
	Lng         float64   `gorm:"column:lng;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LegacyPin) TableName() string {
	return "pins"
}
