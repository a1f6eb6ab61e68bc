package interactions

import (
    "errors"
    "time"

    "github.com/inkwell-press/inkwell-server/cmd/utils"
    "gorm.io/gorm"
)

// ToggleResult is the client-usable projection returned by every toggle:
// the post-mutation reacted state and the new counter value.
type ToggleResult struct {
    Active bool `json:"active"`
    Count  int  `json:"count"`
}

// ToggleRequest describes one react/un-react application. The same
// primitive serves post likes, post bookmarks and comment likes, so the
// record/counter pair stays consistent in exactly one place.
type ToggleRequest struct {
    Probe    interface{}            // empty reaction record used for the dedup lookup
    Record   interface{}            // populated reaction record inserted on activation
    DedupKey map[string]interface{} // (target, user) columns identifying the reaction
    Target   interface{}            // model carrying the denormalized counter
    TargetID uint
    Counter  string // counter column to adjust
    OldCount int    // counter value from the read that decided the branch
}

// Toggle flips the reaction record identified by DedupKey and adjusts the
// target's counter inside one transaction. The returned count is computed
// as OldCount±1 from the caller's own read, never re-read after the write;
// the persisted mutation is always a relative delta so concurrent toggles
// cannot lose updates.
func Toggle(db *gorm.DB, req ToggleRequest) (*ToggleResult, *utils.AppError) {
    tx := db.Begin()
    if tx.Error != nil {
        return nil, utils.NewDatabaseError(tx.Error)
    }

    err := tx.Where(req.DedupKey).First(req.Probe).Error
    switch {
    case err == nil:
        // Reaction exists: remove it. Hard delete — row existence is the
        // reacted state, and the unique index must be free for a re-toggle.
        if err := tx.Unscoped().Where(req.DedupKey).Delete(req.Probe).Error; err != nil {
            tx.Rollback()
            return nil, utils.NewDatabaseError(err)
        }
        if err := adjustCounter(tx, req, -1); err != nil {
            tx.Rollback()
            return nil, utils.NewDatabaseError(err)
        }
        if err := tx.Commit().Error; err != nil {
            return nil, utils.NewDatabaseError(err)
        }
        return &ToggleResult{Active: false, Count: req.OldCount - 1}, nil

    case errors.Is(err, gorm.ErrRecordNotFound):
        if err := tx.Create(req.Record).Error; err != nil {
            tx.Rollback()
            if errors.Is(err, gorm.ErrDuplicatedKey) {
                return nil, utils.NewAppError(utils.ErrAlreadyExists, "Reaction already recorded", err)
            }
            return nil, utils.NewDatabaseError(err)
        }
        if err := adjustCounter(tx, req, 1); err != nil {
            tx.Rollback()
            return nil, utils.NewDatabaseError(err)
        }
        if err := tx.Commit().Error; err != nil {
            return nil, utils.NewDatabaseError(err)
        }
        return &ToggleResult{Active: true, Count: req.OldCount + 1}, nil

    default:
        tx.Rollback()
        return nil, utils.NewDatabaseError(err)
    }
}

// adjustCounter applies the counter delta and bumps updated_at so
// downstream caches see the mutation.
func adjustCounter(tx *gorm.DB, req ToggleRequest, delta int) error {
    return tx.Model(req.Target).Where("id = ?", req.TargetID).
        UpdateColumns(map[string]interface{}{
            req.Counter:  gorm.Expr(req.Counter+" + ?", delta),
            "updated_at": time.Now(),
        }).Error
}
