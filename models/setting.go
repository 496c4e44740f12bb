package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is a runtime-tunable key/value pair, unique on Key. Policy knobs
// like the comment rate limit live here so they can change without a redeploy.
type Setting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"size:100;not null;uniqueIndex" json:"key"`
	Value       string    `gorm:"type:text;not null" json:"value"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName keeps the table name of the existing schema.
func (Setting) TableName() string { return "site_settings" }

// Well-known setting keys.
const (
	SettingCommentRateLimit  = "comment_rate_limit"
	SettingCommentRateWindow = "comment_rate_window_seconds"
)

// GetSettingInt returns the integer value stored under key, or def when the
// row is missing or its value does not parse. Invalid values never fail the
// request; they fall back.
func GetSettingInt(db *gorm.DB, key string, def int) int {
	var s Setting
	if err := db.Where("`key` = ?", key).First(&s).Error; err != nil {
		return def
	}
	v, err := strconv.Atoi(s.Value)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// SetSetting inserts or updates a setting value by key.
func SetSetting(db *gorm.DB, key, value, description string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value, "updated_at": time.Now()}),
	}).Create(&Setting{Key: key, Value: value, Description: description}).Error
}
