package models

import (
    "time"

    "gorm.io/gorm"
)

// Flag report reasons.
const (
    FlagReasonSpam           = "spam"
    FlagReasonHarassment     = "harassment"
    FlagReasonMisinformation = "misinformation"
    FlagReasonInappropriate  = "inappropriate"
    FlagReasonCopyright      = "copyright"
    FlagReasonOther          = "other"
)

// Flag lifecycle. A flag leaves pending exactly once and is never
// mutated afterwards.
const (
    FlagStatusPending   = "pending"
    FlagStatusResolved  = "resolved"
    FlagStatusDismissed = "dismissed"
)

// The (post_id, user_id) dedup key is enforced in the handler rather than
// by a unique index: under the "pending" re-file policy a reviewed flag
// must not block a new one, and reviewed flags are never removed.
type Flag struct {
    gorm.Model
    PostID      uint       `gorm:"column:post_id;not null;index:idx_flag_post_user" json:"post_id"`
    UserID      uint       `gorm:"column:user_id;not null;index:idx_flag_post_user" json:"user_id"`
    Reason      string     `gorm:"column:reason;size:50;not null" json:"reason"`
    Description string     `gorm:"column:description;size:500" json:"description,omitempty"`
    Status      string     `gorm:"column:status;size:20;default:pending;index" json:"status"`
    ReviewedAt  *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
    ReviewedBy  *uint      `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
}

// ValidFlagReason reports whether reason is one of the accepted report categories.
func ValidFlagReason(reason string) bool {
    switch reason {
    case FlagReasonSpam, FlagReasonHarassment, FlagReasonMisinformation,
        FlagReasonInappropriate, FlagReasonCopyright, FlagReasonOther:
        return true
    }
    return false
}
