package posts

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/inkwell-press/inkwell-server/cmd/models"
    "github.com/inkwell-press/inkwell-server/cmd/utils"
    "github.com/google/uuid"
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
    router.HandleFunc("/posts", utils.AuthMiddleware(h.CreatePost)).Methods("POST")
    router.HandleFunc("/posts", h.GetPosts).Methods("GET")
    router.HandleFunc("/posts/{id:[0-9]+}", h.GetPost).Methods("GET")
    router.HandleFunc("/posts/slug/{slug}", h.GetPostBySlug).Methods("GET")
}

// CreatePost creates a new post
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
    userID, err := utils.GetUserIDFromContext(r)
    if err != nil {
        utils.RespondWithAppError(w, utils.NewUnauthenticatedError(err.Error()))
        return
    }

    var body struct {
        Title          string `json:"title"`
        Content        string `json:"content"`
        Status         string `json:"status"`
        AllowLikes     *bool  `json:"allow_likes"`
        AllowBookmarks *bool  `json:"allow_bookmarks"`
        AllowComments  *bool  `json:"allow_comments"`
        AllowShares    *bool  `json:"allow_shares"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid request body", err))
        return
    }
    if body.Title == "" || body.Content == "" {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Title and content are required", nil))
        return
    }

    status := body.Status
    if status == "" {
        status = models.PostStatusPublished
    }
    switch status {
    case models.PostStatusDraft, models.PostStatusPublished, models.PostStatusScheduled, models.PostStatusArchived:
    default:
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid post status: "+status, nil))
        return
    }

    post := models.Post{
        UserID:           userID,
        Slug:             h.uniqueSlug(body.Title),
        Title:            body.Title,
        Content:          body.Content,
        Status:           status,
        ModerationStatus: models.ModerationPending,
        AllowLikes:       allowOrDefault(body.AllowLikes),
        AllowBookmarks:   allowOrDefault(body.AllowBookmarks),
        AllowComments:    allowOrDefault(body.AllowComments),
        AllowShares:      allowOrDefault(body.AllowShares),
    }

    if err := h.db.Create(&post).Error; err != nil {
        if errors.Is(err, gorm.ErrDuplicatedKey) {
            utils.RespondWithAppError(w, utils.NewAppError(utils.ErrAlreadyExists, "A post with this slug already exists", err))
            return
        }
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, post)
}

// GetPost retrieves a post with its counters
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)
    postID, err := strconv.ParseUint(vars["id"], 10, 64)
    if err != nil {
        utils.RespondWithAppError(w, utils.NewAppError(utils.ErrInvalidInput, "Invalid post ID", err))
        return
    }

    var post models.Post
    if err := h.db.Preload("User").First(&post, uint(postID)).Error; err != nil {
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

    utils.RespondWithJSON(w, http.StatusOK, post)
}

// GetPostBySlug retrieves a post by its human-readable key
func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
    vars := mux.Vars(r)

    var post models.Post
    if err := h.db.Preload("User").Where("slug = ?", vars["slug"]).First(&post).Error; err != nil {
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

    utils.RespondWithJSON(w, http.StatusOK, post)
}

// GetPosts retrieves published posts with pagination
func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    if page < 1 {
        page = 1
    }
    pageSize := 10

    var posts []models.Post
    var total int64

    query := h.db.Model(&models.Post{}).
        Where("status = ?", models.PostStatusPublished).
        Preload("User")
    query.Count(&total)

    if err := query.Offset((page - 1) * pageSize).Limit(pageSize).
        Order("created_at DESC").Find(&posts).Error; err != nil {
        utils.RespondWithAppError(w, utils.NewDatabaseError(err))
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
        "posts":       posts,
        "total":       total,
        "page":        page,
        "page_size":   pageSize,
        "total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
    })
}

// uniqueSlug derives a slug from the title and appends a short random
// fragment when the slug is already taken.
func (h *Handler) uniqueSlug(title string) string {
    slug := slugify(title)

    var count int64
    h.db.Model(&models.Post{}).Where("slug = ?", slug).Count(&count)
    if count == 0 {
        return slug
    }
    return slug + "-" + uuid.NewString()[:8]
}

func slugify(title string) string {
    var b strings.Builder
    lastHyphen := true
    for _, r := range strings.ToLower(title) {
        switch {
        case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
            b.WriteRune(r)
            lastHyphen = false
        case !lastHyphen:
            b.WriteByte('-')
            lastHyphen = true
        }
    }
    return strings.Trim(b.String(), "-")
}

func allowOrDefault(flag *bool) bool {
    if flag == nil {
        return true
    }
    return *flag
}
