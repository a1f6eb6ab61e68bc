package moderation

import (
    "github.com/inkwell-press/inkwell-server/cmd/models"
    "github.com/inkwell-press/inkwell-server/cmd/utils"
)

// Review actions on an individual flag.
const (
    ActionResolve = "resolve"
    ActionDismiss = "dismiss"
)

// Reviewer actions on a post's moderation status.
const (
    ActionApprove     = "approve"
    ActionReject      = "reject"
    ActionFlag        = "flag"
    ActionUnderReview = "under_review"
)

// NextFlagStatus returns the terminal status a flag moves to for the given
// review action. A flag leaves pending exactly once.
func NextFlagStatus(current, action string) (string, *utils.AppError) {
    if current != models.FlagStatusPending {
        return "", utils.NewAppError(utils.ErrOperationNotAllowed, "Flag has already been reviewed", nil)
    }
    switch action {
    case ActionResolve:
        return models.FlagStatusResolved, nil
    case ActionDismiss:
        return models.FlagStatusDismissed, nil
    }
    return "", utils.NewAppError(utils.ErrInvalidAction, "Unknown review action: "+action, nil)
}

// NextModerationStatus maps a reviewer action to the moderation status it
// sets. Reviewer transitions are re-enterable, so the result depends only
// on the action.
func NextModerationStatus(action string) (string, *utils.AppError) {
    switch action {
    case ActionApprove:
        return models.ModerationApproved, nil
    case ActionReject:
        return models.ModerationRejected, nil
    case ActionFlag:
        return models.ModerationFlagged, nil
    case ActionUnderReview:
        return models.ModerationUnderReview, nil
    }
    return "", utils.NewAppError(utils.ErrInvalidAction, "Unknown moderation action: "+action, nil)
}

// ShouldAutoEscalate reports whether the report volume flips a post to
// flagged. The escalation is a one-way latch: it never fires once the post
// has left pending moderation.
func ShouldAutoEscalate(current string, flagCount, threshold int) bool {
    if current != models.ModerationPending && current != "" {
        return false
    }
    return flagCount >= threshold
}
