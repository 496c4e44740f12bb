package models

import "time"

// ViewRecord marks that a client IP viewed a post. At most one row exists per
// (post, ip) pair; ViewedAt decides whether the record still blocks a new
// count within the dedup window.
type ViewRecord struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"index:idx_view_post_ip,unique;not null" json:"post_id"`
	IP       string    `gorm:"index:idx_view_post_ip,unique;size:45;not null" json:"ip"`
	ViewedAt time.Time `gorm:"index;not null" json:"viewed_at"`
}

// TableName keeps the table name of the existing schema.
func (ViewRecord) TableName() string { return "post_view_ips" }
