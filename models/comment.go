package models

import "time"

// Comment is an anonymous reply to a post. ParentID links replies to their
// parent comment on the same post; top-level comments have ParentID nil.
// Deleting a parent does not cascade, so replies may end up referencing a
// comment id that no longer exists. Such replies simply never appear in the
// assembled tree.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	Nickname  string    `gorm:"size:50;not null;default:'匿名用户'" json:"nickname"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
