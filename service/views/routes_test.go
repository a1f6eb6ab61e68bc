package views

import (
    "context"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/inkwell-press/inkwell-server/cmd/models"
    "github.com/inkwell-press/inkwell-server/cmd/utils"
    "github.com/gorilla/mux"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "gorm.io/driver/sqlite"
    "gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
    dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
    db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
    require.NoError(t, err)
    require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.PostView{}))
    return db
}

func createPost(t *testing.T, db *gorm.DB) *models.Post {
    user := &models.User{Handle: "author", Email: "author@example.com", Password: "x"}
    require.NoError(t, db.Create(user).Error)
    post := &models.Post{
        UserID:           user.ID,
        Slug:             "viewed-post",
        Title:            "Post",
        Content:          "Content",
        Status:           models.PostStatusPublished,
        ModerationStatus: models.ModerationPending,
        AllowLikes:       true,
        AllowBookmarks:   true,
        AllowComments:    true,
        AllowShares:      true,
    }
    require.NoError(t, db.Create(post).Error)
    return post
}

func viewRequest(postID uint, userID *uint) *http.Request {
    req := httptest.NewRequest("POST", "/posts/1/view", nil)
    req.Header.Set("User-Agent", "test-agent")
    req.Header.Set("Referer", "https://example.com/feed")
    if userID != nil {
        req = req.WithContext(context.WithValue(req.Context(), utils.UserIDKey, *userID))
    }
    return mux.SetURLVars(req, map[string]string{"id": fmt.Sprint(postID)})
}

func TestViewCooldown(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    post := createPost(t, db)
    userID := uint(7)

    // First view counts
    w := httptest.NewRecorder()
    h.RecordView(w, viewRequest(post.ID, &userID))
    require.Equal(t, http.StatusOK, w.Code)
    assert.JSONEq(t, `{"counted":true}`, w.Body.String())

    // Second view inside the window is logged but not counted
    w = httptest.NewRecorder()
    h.RecordView(w, viewRequest(post.ID, &userID))
    require.Equal(t, http.StatusOK, w.Code)
    assert.JSONEq(t, `{"counted":false}`, w.Body.String())

    var rows int64
    db.Model(&models.PostView{}).Where("post_id = ?", post.ID).Count(&rows)
    assert.EqualValues(t, 2, rows)

    var got models.Post
    require.NoError(t, db.First(&got, post.ID).Error)
    assert.Equal(t, 1, got.ViewsCount)

    // Age the log rows past the window: the next view counts again
    require.NoError(t, db.Model(&models.PostView{}).Where("post_id = ?", post.ID).
        UpdateColumn("viewed_at", time.Now().Add(-2*time.Hour)).Error)

    w = httptest.NewRecorder()
    h.RecordView(w, viewRequest(post.ID, &userID))
    require.Equal(t, http.StatusOK, w.Code)
    assert.JSONEq(t, `{"counted":true}`, w.Body.String())

    require.NoError(t, db.First(&got, post.ID).Error)
    assert.Equal(t, 2, got.ViewsCount)

    db.Model(&models.PostView{}).Where("post_id = ?", post.ID).Count(&rows)
    assert.EqualValues(t, 3, rows)
}

func TestAnonymousViewsAlwaysCount(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    post := createPost(t, db)

    for i := 0; i < 3; i++ {
        w := httptest.NewRecorder()
        h.RecordView(w, viewRequest(post.ID, nil))
        require.Equal(t, http.StatusOK, w.Code)
        assert.JSONEq(t, `{"counted":true}`, w.Body.String())
    }

    var got models.Post
    require.NoError(t, db.First(&got, post.ID).Error)
    assert.Equal(t, 3, got.ViewsCount)

    var rows int64
    db.Model(&models.PostView{}).Where("post_id = ? AND user_id IS NULL", post.ID).Count(&rows)
    assert.EqualValues(t, 3, rows)
}

func TestViewLogCapturesRequestMetadata(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    post := createPost(t, db)

    w := httptest.NewRecorder()
    h.RecordView(w, viewRequest(post.ID, nil))
    require.Equal(t, http.StatusOK, w.Code)

    var view models.PostView
    require.NoError(t, db.First(&view).Error)
    assert.Equal(t, "test-agent", view.UserAgent)
    assert.Equal(t, "https://example.com/feed", view.Referrer)
    assert.NotEmpty(t, view.IPAddress)
    assert.False(t, view.ViewedAt.IsZero())
}

func TestViewUnknownPost(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)

    w := httptest.NewRecorder()
    h.RecordView(w, viewRequest(99, nil))
    assert.Equal(t, http.StatusNotFound, w.Code)

    var rows int64
    db.Model(&models.PostView{}).Count(&rows)
    assert.EqualValues(t, 0, rows)
}

func TestCooldownSeparatesUsers(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandlerWithCooldown(db, time.Hour)
    post := createPost(t, db)

    alice := uint(1)
    bob := uint(2)

    for _, userID := range []uint{alice, bob} {
        id := userID
        w := httptest.NewRecorder()
        h.RecordView(w, viewRequest(post.ID, &id))
        require.Equal(t, http.StatusOK, w.Code)
        assert.JSONEq(t, `{"counted":true}`, w.Body.String())
    }

    var got models.Post
    require.NoError(t, db.First(&got, post.ID).Error)
    assert.Equal(t, 2, got.ViewsCount)
}
