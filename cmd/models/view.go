package models

import (
    "time"

    "gorm.io/gorm"
)

// PostView is an append-only analytics row. Every view attempt produces
// one row, whether or not the post's views_count was incremented.
type PostView struct {
    gorm.Model
    PostID    uint      `gorm:"column:post_id;not null;index:idx_view_post_user" json:"post_id"`
    UserID    *uint     `gorm:"column:user_id;index:idx_view_post_user" json:"user_id,omitempty"`
    IPAddress string    `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
    UserAgent string    `gorm:"column:user_agent;size:255" json:"user_agent,omitempty"`
    Referrer  string    `gorm:"column:referrer;size:255" json:"referrer,omitempty"`
    ViewedAt  time.Time `gorm:"column:viewed_at;not null;index" json:"viewed_at"`
}
