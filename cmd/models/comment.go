package models

import "gorm.io/gorm"

// Comments are soft-deleted only: a deleted comment keeps its row so
// replies stay linked to their parent.
const (
    CommentStatusPublished = "published"
    CommentStatusDeleted   = "deleted"
)

type Comment struct {
    gorm.Model
    PostID   uint   `gorm:"column:post_id;not null;index" json:"post_id"`
    UserID   uint   `gorm:"column:user_id;not null" json:"user_id"`
    Content  string `gorm:"column:content;type:text;not null" json:"content"`
    ParentID *uint  `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
    Status   string `gorm:"column:status;size:20;default:published" json:"status"`

    LikesCount int `gorm:"column:likes_count;default:0" json:"likes_count"`
    FlagsCount int `gorm:"column:flags_count;default:0" json:"flags_count"`

    User    *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
    Replies []Comment `gorm:"-" json:"replies,omitempty"`
}

type CommentLike struct {
    gorm.Model
    CommentID uint `gorm:"column:comment_id;not null;index;uniqueIndex:idx_comment_like" json:"comment_id"`
    UserID    uint `gorm:"column:user_id;not null;uniqueIndex:idx_comment_like" json:"user_id"`
}

type CommentFlag struct {
    gorm.Model
    CommentID   uint   `gorm:"column:comment_id;not null;index;uniqueIndex:idx_comment_flag" json:"comment_id"`
    UserID      uint   `gorm:"column:user_id;not null;uniqueIndex:idx_comment_flag" json:"user_id"`
    Reason      string `gorm:"column:reason;size:50;not null" json:"reason"`
    Description string `gorm:"column:description;size:500" json:"description,omitempty"`
}
