package interactions

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/inkwell-press/inkwell-server/cmd/models"
    "github.com/inkwell-press/inkwell-server/cmd/utils"
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
    router.HandleFunc("/posts/{id}/like", utils.AuthMiddleware(h.LikePost)).Methods("POST")
    router.HandleFunc("/posts/{id}/bookmark", utils.AuthMiddleware(h.BookmarkPost)).Methods("POST")
    router.HandleFunc("/posts/{id}/share", utils.OptionalAuth(h.SharePost)).Methods("POST")
}

// LikePost toggles the caller's like on a post
func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
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

    if !post.AllowLikes {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrOperationNotAllowed, "Likes are disabled for this post", nil))
        return
    }

    result, appErr := Toggle(h.db, ToggleRequest{
        Probe:    &models.Like{},
        Record:   &models.Like{PostID: post.ID, UserID: userID},
        DedupKey: map[string]interface{}{"post_id": post.ID, "user_id": userID},
        Target:   &models.Post{},
        TargetID: post.ID,
        Counter:  "likes_count",
        OldCount: post.LikesCount,
    })
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, result)
}

// BookmarkPost toggles the caller's bookmark on a post
func (h *Handler) BookmarkPost(w http.ResponseWriter, r *http.Request) {
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

    if !post.AllowBookmarks {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrOperationNotAllowed, "Bookmarks are disabled for this post", nil))
        return
    }

    result, appErr := Toggle(h.db, ToggleRequest{
        Probe:    &models.Bookmark{},
        Record:   &models.Bookmark{PostID: post.ID, UserID: userID},
        DedupKey: map[string]interface{}{"post_id": post.ID, "user_id": userID},
        Target:   &models.Post{},
        TargetID: post.ID,
        Counter:  "bookmarks_count",
        OldCount: post.BookmarksCount,
    })
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, result)
}

// SharePost records a share. Shares are not toggles: every call inserts a
// new row, and anonymous callers are allowed.
func (h *Handler) SharePost(w http.ResponseWriter, r *http.Request) {
    var sharer *uint
    if userID, err := utils.GetUserIDFromContext(r); err == nil {
        var user models.User
        if err := h.db.First(&user, userID).Error; err != nil {
            utils.RespondWithAppError(w, utils.NewUnauthenticatedError("unknown user"))
            return
        }
        sharer = &userID
    }

    post, appErr := h.fetchPost(r)
    if appErr != nil {
        utils.RespondWithAppError(w, appErr)
        return
    }

    if !post.AllowShares {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrOperationNotAllowed, "Shares are disabled for this post", nil))
        return
    }

    tx := h.db.Begin()

    share := models.Share{PostID: post.ID, UserID: sharer}
    if err := tx.Create(&share).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
        UpdateColumns(map[string]interface{}{
            "shares_count": gorm.Expr("shares_count + ?", 1),
            "updated_at":   time.Now(),
        }).Error; err != nil {
        tx.Rollback()
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    if err := tx.Commit().Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]int{"count": post.SharesCount + 1})
}

// requireUser resolves the authenticated caller and verifies the account
// still exists.
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
