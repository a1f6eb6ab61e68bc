package models

import "gorm.io/gorm"

// Publication status of a post.
const (
    PostStatusDraft     = "draft"
    PostStatusPublished = "published"
    PostStatusScheduled = "scheduled"
    PostStatusArchived  = "archived"
    PostStatusDeleted   = "deleted"
)

// Moderation status of a post, independent of its publication status.
const (
    ModerationPending     = "pending"
    ModerationApproved    = "approved"
    ModerationRejected    = "rejected"
    ModerationFlagged     = "flagged"
    ModerationUnderReview = "under_review"
)

type Post struct {
    gorm.Model
    UserID           uint   `gorm:"column:user_id;not null;index" json:"user_id"`
    Slug             string `gorm:"column:slug;size:255;uniqueIndex;not null" json:"slug"`
    Title            string `gorm:"column:title;size:255;not null" json:"title"`
    Content          string `gorm:"column:content;type:text;not null" json:"content"`
    Status           string `gorm:"column:status;size:20;default:published" json:"status"`
    ModerationStatus string `gorm:"column:moderation_status;size:20;default:pending" json:"moderation_status"`
    ModerationNotes  string `gorm:"column:moderation_notes;size:500" json:"moderation_notes,omitempty"`

    LikesCount     int `gorm:"column:likes_count;default:0" json:"likes_count"`
    BookmarksCount int `gorm:"column:bookmarks_count;default:0" json:"bookmarks_count"`
    CommentsCount  int `gorm:"column:comments_count;default:0" json:"comments_count"`
    SharesCount    int `gorm:"column:shares_count;default:0" json:"shares_count"`
    ViewsCount     int `gorm:"column:views_count;default:0" json:"views_count"`
    FlagsCount     int `gorm:"column:flags_count;default:0" json:"flags_count"`

    AllowLikes     bool `gorm:"column:allow_likes;default:true" json:"allow_likes"`
    AllowBookmarks bool `gorm:"column:allow_bookmarks;default:true" json:"allow_bookmarks"`
    AllowComments  bool `gorm:"column:allow_comments;default:true" json:"allow_comments"`
    AllowShares    bool `gorm:"column:allow_shares;default:true" json:"allow_shares"`

    User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
