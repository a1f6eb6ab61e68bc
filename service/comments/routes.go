package comments

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/inkwell-press/inkwell-server/cmd/models"
    "github.com/inkwell-press/inkwell-server/cmd/utils"
    "github.com/inkwell-press/inkwell-server/service/interactions"
    "github.com/gorilla/mux"
    "gorm.io/gorm"
)

type Handler struct {
    db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
    return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
    router.HandleFunc("/posts/{id}/comments", utils.AuthMiddleware(h.CreateComment)).Methods("POST")
    router.HandleFunc("/posts/{id}/comments", h.ListComments).Methods("GET")
    router.HandleFunc("/comments/{id}", utils.AuthMiddleware(h.DeleteComment)).Methods("DELETE")
    router.HandleFunc("/comments/{id}/like", utils.AuthMiddleware(h.LikeComment)).Methods("POST")
    router.HandleFunc("/comments/{id}/flags", utils.AuthMiddleware(h.FlagComment)).Methods("POST")
}

// CreateComment adds a top-level comment or a one-level-deep reply
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
    userID, appErr := h.requireUser(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    post, appErr := h.fetchPost(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    if !post.AllowComments {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrOperationNotAllowed, "Comments are disabled for this post", nil))
        return
    }

    var body struct {
        Content  string `json:"content"`
        ParentID *uint  `json:"parent_id"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err))
        return
    }
    if body.Content == "" {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Content is required", nil))
        return
    }

    if body.ParentID != nil {
        var parent models.Comment
        if err := h.db.First(&parent, *body.ParentID).Error; err != nil {
            if errors.Is(err, gorm.ErrRecordNotFound) {
                utils.RespondWithAppError(w, utils.NewNotFoundError("Parent comment"))
                return
            }
            utils.RespondWithAppError(w, utils.NewDatabaseError(err))
            return
        }
        // Replies nest exactly one level and never cross posts.
        if parent.PostID != post.ID || parent.ParentID != nil {
            utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidParent, "Parent comment does not belong to this post", nil))
            return
        }
        if parent.Status != models.CommentStatusPublished {
            utils.RespondWithAppError(w, utils.NewAppError(utils.ErrOperationNotAllowed, "Cannot reply to a deleted comment", nil))
            return
        }
    }

    tx := h.db.Begin()

    comment := models.Comment{
        PostID:   post.ID,
        UserID:   userID,
        Content:  body.Content,
        ParentID: body.ParentID,
        Status:   models.CommentStatusPublished,
    }
    if err := tx.Create(&comment).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    // Replies count toward the same comments_count as top-level comments.
    if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
        UpdateColumns(map[string]interface{}{
            "comments_count": gorm.Expr("comments_count + ?", 1),
            "updated_at":     time.Now(),
        }).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    if err := tx.Commit().Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, comment)
}

// ListComments retrieves a post's comment threads with pagination.
// Top-level comments come newest-first; replies within a thread read
// chronologically, oldest-first.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
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

    var total int64
    h.db.Model(&models.Comment{}).
        Where("post_id = ? AND parent_id IS NULL", post.ID).Count(&total)

    var topLevel []models.Comment
    if err := h.db.Where("post_id = ? AND parent_id IS NULL", post.ID).
        Order("created_at DESC").
        Offset((page - 1) * pageSize).Limit(pageSize).
        Find(&topLevel).Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    parentIDs := make([]uint, 0, len(topLevel))
    for _, c := range topLevel {
        parentIDs = append(parentIDs, c.ID)
    }

    var replies []models.Comment
    if len(parentIDs) > 0 {
        if err := h.db.Where("parent_id IN ? AND status = ?", parentIDs, models.CommentStatusPublished).
            Order("created_at ASC").
            Find(&replies).Error; err != nil {
            utils.RespondWithAppError(w, utils.NewDatabaseError(err))
            return
        }
    }

    byParent := make(map[uint][]models.Comment)
    for _, reply := range replies {
        byParent[*reply.ParentID] = append(byParent[*reply.ParentID], reply)
    }

    // Deleted comments are filtered out, except a deleted parent with
    // surviving replies, which is kept with its content blanked so the
    // thread shape holds.
    threads := make([]models.Comment, 0, len(topLevel))
    for _, c := range topLevel {
        c.Replies = byParent[c.ID]
        if c.Status == models.CommentStatusDeleted {
            if len(c.Replies) == 0 {
                continue
            }
            c.Content = "[deleted]"
        }
        threads = append(threads, c)
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
        "comments":    threads,
        "total":       total,
        "page":        page,
        "page_size":   pageSize,
        "total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
    })
}

// DeleteComment soft-deletes a comment. The row stays so replies remain
// linked, and the post's comments_count is not decremented.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
    userID, appErr := h.requireUser(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    comment, appErr := h.fetchComment(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    if comment.UserID != userID {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrForbidden, "Only the comment author can delete it", nil))
        return
    }

    if err := h.db.Model(&models.Comment{}).Where("id = ?", comment.ID).
        UpdateColumns(map[string]interface{}{
            "status":     models.CommentStatusDeleted,
            "updated_at": time.Now(),
        }).Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]string{
        "message": "Comment deleted successfully",
    })
}

// LikeComment toggles the caller's like on a published comment
func (h *Handler) LikeComment(w http.ResponseWriter, r *http.Request) {
    userID, appErr := h.requireUser(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    comment, appErr := h.fetchComment(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    result, appErr := interactions.Toggle(h.db, interactions.ToggleRequest{
        Probe:    &models.CommentLike{},
        Record:   &models.CommentLike{CommentID: comment.ID, UserID: userID},
        DedupKey: map[string]interface{}{"comment_id": comment.ID, "user_id": userID},
        Target:   &models.Comment{},
        TargetID: comment.ID,
        Counter:  "likes_count",
        OldCount: comment.LikesCount,
    })
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, result)
}

// FlagComment records an abuse report against a comment. Comment flags
// never auto-escalate; only posts carry a moderation state machine.
func (h *Handler) FlagComment(w http.ResponseWriter, r *http.Request) {
    userID, appErr := h.requireUser(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    comment, appErr := h.fetchComment(r)
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

    var existing int64
    if err := h.db.Model(&models.CommentFlag{}).
        Where("comment_id = ? AND user_id = ?", comment.ID, userID).
        Count(&existing).Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }
    if existing > 0 {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrAlreadyExists, "You have already reported this comment", nil))
        return
    }

    tx := h.db.Begin()

    flag := models.CommentFlag{
        CommentID:   comment.ID,
        UserID:      userID,
        Reason:      body.Reason,
        Description: body.Description,
    }
    if err := tx.Create(&flag).Error; err != nil {
        tx.Rollback()
        if errors.Is(err, gorm.ErrDuplicatedKey) {
            utils.RespondWithAppError(w, utils.NewAppError(utils.ErrAlreadyExists, "You have already reported this comment", err))
            return
        }
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    if err := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).
        UpdateColumns(map[string]interface{}{
            "flags_count": gorm.Expr("flags_count + ?", 1),
            "updated_at":  time.Now(),
        }).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    if err := tx.Commit().Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
        "flag":        flag,
        "flags_count": comment.FlagsCount + 1,
    })
}

func (h *Handler) requireUser(r *http.Request) (uint, *utils.AppError) {
    userID, err := utils.GetUserIDFromContext(r)
    if err != nil {
        return 0, utils.NewUnauthenticatedError(err.Error())
    }
    var user models.User
    if err := h.db.First(&user, userID).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return 0, utils.NewUnauthenticatedError("unknown user")
        }
        return 0, utils.NewDatabaseError(err)
    }
    return userID, nil
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

// fetchComment loads a published comment; deleted comments are not valid
// targets for likes, flags or further deletion.
func (h *Handler) fetchComment(r *http.Request) (*models.Comment, *utils.AppError) {
    vars := mux.Vars(r)
    commentID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        return nil, utils.NewAppError(utils.ErrInvalidInput, "Invalid comment ID", err)
    }

    var comment models.Comment
    if err := h.db.First(&comment, uint(commentID)).Error; err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, utils.NewNotFoundError("Comment")
        }
        return nil, utils.NewDatabaseError(err)
    }
    if comment.Status != models.CommentStatusPublished {
        return nil, utils.NewAppError(utils.ErrOperationNotAllowed, "Comment is no longer published", nil)
    }
    return &comment, nil
}
