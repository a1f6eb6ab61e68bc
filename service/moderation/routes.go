package moderation

import (
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "os"
    "strconv"
    "time"

    "github.com/inkwell-press/inkwell-server/cmd/models"
    "github.com/inkwell-press/inkwell-server/cmd/utils"
    "github.com/gorilla/mux"
    "gorm.io/gorm"
)

// Re-file policies for reporters whose earlier flag on the same post has
// already been reviewed.
const (
    RefilePolicyEver    = "ever"    // any prior flag blocks re-filing (reference behavior)
    RefilePolicyPending = "pending" // only a still-pending flag blocks
)

const DefaultFlagThreshold = 5

type Config struct {
    FlagThreshold int
    RefilePolicy  string
}

// ConfigFromEnv reads FLAG_THRESHOLD and FLAG_REFILE_POLICY, falling back
// to the defaults (5 reports, "ever").
func ConfigFromEnv() Config {
    cfg := Config{FlagThreshold: DefaultFlagThreshold, RefilePolicy: RefilePolicyEver}
    if v := os.Getenv("FLAG_THRESHOLD"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            cfg.FlagThreshold = n
        }
    }
    if os.Getenv("FLAG_REFILE_POLICY") == RefilePolicyPending {
        cfg.RefilePolicy = RefilePolicyPending
    }
    return cfg
}

type Handler struct {
    db  *gorm.DB
    cfg Config
}

func NewHandler(db *gorm.DB) *Handler {
    return &Handler{db: db, cfg: ConfigFromEnv()}
}

func NewHandlerWithConfig(db *gorm.DB, cfg Config) *Handler {
    return &Handler{db: db, cfg: cfg}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
    router.HandleFunc("/posts/{id}/flags", utils.AuthMiddleware(h.FileFlag)).Methods("POST")
    router.HandleFunc("/posts/{id}/flags", utils.AuthMiddleware(h.ListFlags)).Methods("GET")
    router.HandleFunc("/posts/{id}/moderate", utils.AuthMiddleware(h.ModeratePost)).Methods("POST")
    router.HandleFunc("/flags/{id}/review", utils.AuthMiddleware(h.ReviewFlag)).Methods("POST")
}

// FileFlag records an abuse report against a post. Crossing the report
// threshold escalates a pending post to flagged in the same transaction.
func (h *Handler) FileFlag(w http.ResponseWriter, r *http.Request) {
    reporter, appErr := h.requireUser(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    post, appErr := h.fetchPost(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    var body struct {
        Reason      string `json:"reason"`
        Description string `json:"description"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err))
        return
    }
    if !models.ValidFlagReason(body.Reason) {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid flag reason: "+body.Reason, nil))
        return
    }

    // One report per (post, reporter). Under the default policy a resolved
    // or dismissed flag still blocks re-filing.
    dedup := h.db.Model(&models.Flag{}).Where("post_id = ? AND user_id = ?", post.ID, reporter.ID)
    if h.cfg.RefilePolicy == RefilePolicyPending {
        dedup = dedup.Where("status = ?", models.FlagStatusPending)
    }
    var existing int64
    if err := dedup.Count(&existing).Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }
    if existing > 0 {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrAlreadyExists, "You have already reported this post", nil))
        return
    }

    tx := h.db.Begin()

    flag := models.Flag{
        PostID:      post.ID,
        UserID:      reporter.ID,
        Reason:      body.Reason,
        Description: body.Description,
        Status:      models.FlagStatusPending,
    }
    if err := tx.Create(&flag).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    updates := map[string]interface{}{
        "flags_count": gorm.Expr("flags_count + ?", 1),
        "updated_at":  time.Now(),
    }
    newCount := post.FlagsCount + 1
    escalated := ShouldAutoEscalate(post.ModerationStatus, newCount, h.cfg.FlagThreshold)
    if escalated {
        updates["moderation_status"] = models.ModerationFlagged
    }
    if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumns(updates).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    if err := tx.Commit().Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    moderationStatus := post.ModerationStatus
    if escalated {
        moderationStatus = models.ModerationFlagged
    }
    utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
        "flag":              flag,
        "flags_count":       newCount,
        "moderation_status": moderationStatus,
    })
}

// ReviewFlag resolves or dismisses a single pending flag
func (h *Handler) ReviewFlag(w http.ResponseWriter, r *http.Request) {
    reviewer, appErr := h.requireUser(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }
    if !reviewer.IsPrivileged() {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrForbidden, "Reviewer role required", nil))
        return
    }

    vars := mux.Vars(r)
    flagID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid flag ID", err))
        return
    }

    var body struct {
        Action string `json:"action"`
        Notes  string `json:"notes"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err))
        return
    }

    var flag models.Flag
    if err := h.db.First(&flag, uint(flagID)).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            utils.RespondWithAppError(w, utils.NewNotFoundError("Flag"))
            return
        }
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    newStatus, appErr := NextFlagStatus(flag.Status, body.Action)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    tx := h.db.Begin()

    now := time.Now()
    if err := tx.Model(&flag).UpdateColumns(map[string]interface{}{
        "status":      newStatus,
        "reviewed_at": now,
        "reviewed_by": reviewer.ID,
        "updated_at":  now,
    }).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    // A resolved report escalates a still-pending post to flagged.
    if newStatus == models.FlagStatusResolved {
        var post models.Post
        if err := tx.First(&post, flag.PostID).Error; err != nil {
            tx.Rollback()
            utils.RespondWithAppError(w, utils.NewDatabaseError(err))
            return
        }
        if post.ModerationStatus == models.ModerationPending || post.ModerationStatus == "" {
            notes := body.Notes
            if notes == "" {
                notes = fmt.Sprintf("Flagged after resolved report: %s", flag.Reason)
            }
            if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumns(map[string]interface{}{
                "moderation_status": models.ModerationFlagged,
                "moderation_notes":  notes,
                "updated_at":        now,
            }).Error; err != nil {
                tx.Rollback()
                utils.RespondWithAppError(w, utils.NewDatabaseError(err))
                return
            }
        }
    }

    if err := tx.Commit().Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    flag.Status = newStatus
    flag.ReviewedAt = &now
    reviewedBy := reviewer.ID
    flag.ReviewedBy = &reviewedBy
    utils.RespondWithJSON(w, http.StatusOK, flag)
}

// ModeratePost applies a reviewer decision to the post itself. Decisions
// are re-entrant; approving also bulk-resolves every pending flag.
func (h *Handler) ModeratePost(w http.ResponseWriter, r *http.Request) {
    reviewer, appErr := h.requireUser(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }
    if !reviewer.IsPrivileged() {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrForbidden, "Reviewer role required", nil))
        return
    }

    var body struct {
        Action string `json:"action"`
        Notes  string `json:"notes"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err))
        return
    }

    newStatus, appErr := NextModerationStatus(body.Action)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    post, appErr := h.fetchPost(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    tx := h.db.Begin()

    now := time.Now()
    if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumns(map[string]interface{}{
        "moderation_status": newStatus,
        "moderation_notes":  body.Notes,
        "updated_at":        now,
    }).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    if newStatus == models.ModerationApproved {
        if err := tx.Model(&models.Flag{}).
            Where("post_id = ? AND status = ?", post.ID, models.FlagStatusPending).
            UpdateColumns(map[string]interface{}{
                "status":      models.FlagStatusResolved,
                "reviewed_at": now,
                "reviewed_by": reviewer.ID,
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

    utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
        "id":                post.ID,
        "moderation_status": newStatus,
        "moderation_notes":  body.Notes,
    })
}

// ListFlags retrieves flags for a post with pagination
func (h *Handler) ListFlags(w http.ResponseWriter, r *http.Request) {
    reviewer, appErr := h.requireUser(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }
    if !reviewer.IsPrivileged() {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrForbidden, "Reviewer role required", nil))
        return
    }

    post, appErr := h.fetchPost(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    if page < 1 {
        page = 1
    }
    pageSize := 20

    query := h.db.Model(&models.Flag{}).Where("post_id = ?", post.ID)
    if status := r.URL.Query().Get("status"); status != "" {
        query = query.Where("status = ?", status)
    }

    var total int64
    query.Count(&total)

    var flags []models.Flag
    if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
        Order("created_at DESC").Find(&flags).Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
        "flags":       flags,
        "total":       total,
        "page":        page,
        "page_size":   pageSize,
        "total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
    })
}

func (h *Handler) requireUser(r *http.Request) (*models.User, *utils.AppError) {
    userID, err := utils.GetUserIDFromContext(r)
    if err != nil {
        return nil, utils.NewUnauthenticatedError(err.Error())
    }
    var user models.User
    if err := h.db.First(&user, userID).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, utils.NewUnauthenticatedError("unknown user")
        }
        return nil, utils.NewDatabaseError(err)
    }
    return &user, nil
}

func (h *Handler) fetchPost(r *http.Request) (*models.Post, *utils.AppError) {
    vars := mux.Vars(r)
    postID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        return nil, utils.NewAppError(utils.ErrInvalidInput, "Invalid post ID", err)
    }

    var post models.Post
    if err := h.db.First(&post, uint(postID)).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, utils.NewNotFoundError("Post")
        }
        return nil, utils.NewDatabaseError(err)
    }
    if post.Status == models.PostStatusDeleted {
        return nil, utils.NewNotFoundError("Post")
    }
    return &post, nil
}
