package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// TagList stores a post's tags as a JSON array inside a TEXT column.
type TagList []string

// Value serializes the tag list for storage. An empty list is stored as "[]"
// so reads never have to deal with NULL.
func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		t = TagList{}
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the stored JSON array.
func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = TagList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("tags: unsupported column type")
	}
	if len(raw) == 0 {
		*t = TagList{}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return err
	}
	*t = TagList(list)
	return nil
}

// Post represents a blog article. Writes go through the admin gate; reads are
// public, but scheduled posts (Date in the future) stay hidden from non-admins.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null;index" json:"title"`
	Excerpt   string    `gorm:"type:text;not null" json:"excerpt"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Tags      TagList   `gorm:"type:text" json:"tags"`
	Date      time.Time `gorm:"index;not null" json:"date"` // publish time
	ViewCount int64     `gorm:"not null;default:0" json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name of the existing schema.
func (Post) TableName() string { return "blog_posts" }
