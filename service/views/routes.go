package views

import (
    "errors"
    "net"
    "net/http"
    "os"
    "strconv"
    "time"

    "github.com/inkwell-press/inkwell-server/cmd/models"
    "github.com/inkwell-press/inkwell-server/cmd/utils"
    "github.com/gorilla/mux"
    "gorm.io/gorm"
)

// DefaultCooldown is how long a repeat view by the same user is logged
// without incrementing the post's views_count.
const DefaultCooldown = 60 * time.Minute

type Handler struct {
    db       *gorm.DB
    cooldown time.Duration
}

func NewHandler(db *gorm.DB) *Handler {
    cooldown := DefaultCooldown
    if v := os.Getenv("VIEW_COOLDOWN_MINUTES"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            cooldown = time.Duration(n) * time.Minute
        }
    }
    return &Handler{db: db, cooldown: cooldown}
}

func NewHandlerWithCooldown(db *gorm.DB, cooldown time.Duration) *Handler {
    return &Handler{db: db, cooldown: cooldown}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
    router.HandleFunc("/posts/{id}/view", utils.OptionalAuth(h.RecordView)).Methods("POST")
}

// RecordView logs a page view and increments the post's view counter
// unless the caller is an identified user inside the cool-down window.
// Every attempt produces a log row so the analytics trail stays complete.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    postID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid post ID", err))
        return
    }

    var post models.Post
    if err := h.db.First(&post, uint(postID)).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            utils.RespondWithAppError(w, utils.NewNotFoundError("Post"))
            return
        }
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }
    if post.Status == models.PostStatusDeleted {
        utils.RespondWithAppError(w, utils.NewNotFoundError("Post"))
        return
    }

    var viewer *uint
    if userID, err := utils.GetUserIDFromContext(r); err == nil {
        viewer = &userID
    }

    now := time.Now()

    // Repeat views inside the window are logged but not counted.
    // Anonymous views always count; without an identity key there is
    // nothing to rate-limit on.
    counted := true
    if viewer != nil {
        var last models.PostView
        err := h.db.Where("post_id = ? AND user_id = ?", post.ID, *viewer).
            Order("viewed_at DESC").First(&last).Error
        switch {
        case err == nil:
            if now.Sub(last.ViewedAt) < h.cooldown {
                counted = false
            }
        case errors.Is(err, gorm.ErrRecordNotFound):
            // First view by this user
        default:
            utils.RespondWithAppError(w, utils.NewDatabaseError(err))
            return
        }
    }

    tx := h.db.Begin()

    view := models.PostView{
        PostID:    post.ID,
        UserID:    viewer,
        IPAddress: clientIP(r),
        UserAgent: r.UserAgent(),
        Referrer:  r.Referer(),
        ViewedAt:  now,
    }
    if err := tx.Create(&view).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    if counted {
        if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
            UpdateColumns(map[string]interface{}{
                "views_count": gorm.Expr("views_count + ?", 1),
                "updated_at":  now,
            }).Error; err != nil {
            tx.Rollback()
            utils.RespondWithAppError(w, utils.NewDatabaseError(err))
            return
        }
    }

    if err := tx.Commit().Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"counted": counted})
}

func clientIP(r *http.Request) string {
    if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
        return forwarded
    }
    host, _, err := net.SplitHostPort(r.RemoteAddr)
    if err != nil {
        return r.RemoteAddr
    }
    return host
}
