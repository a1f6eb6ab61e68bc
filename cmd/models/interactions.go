package models

import "gorm.io/gorm"

// Like and Bookmark are toggle records: existence of the row is the
// "has reacted" state, so each carries a unique (post_id, user_id) index.

type Like struct {
    gorm.Model
    PostID uint `gorm:"column:post_id;not null;index;uniqueIndex:idx_like_post_user" json:"post_id"`
    UserID uint `gorm:"column:user_id;not null;uniqueIndex:idx_like_post_user" json:"user_id"`
}

type Bookmark struct {
    gorm.Model
    PostID uint `gorm:"column:post_id;not null;index;uniqueIndex:idx_bookmark_post_user" json:"post_id"`
    UserID uint `gorm:"column:user_id;not null;uniqueIndex:idx_bookmark_post_user" json:"user_id"`
}

// Share is not a toggle: every share inserts a new row, and anonymous
// shares are allowed, so user_id is nullable and not deduplicated.
type Share struct {
    gorm.Model
    PostID uint  `gorm:"column:post_id;not null;index" json:"post_id"`
    UserID *uint `gorm:"column:user_id;index" json:"user_id,omitempty"`
}
