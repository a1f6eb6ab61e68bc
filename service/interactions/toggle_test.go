package interactions

import (
    "context"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"

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
    require.NoError(t, db.AutoMigrate(
        &models.User{}, &models.Post{}, &models.Like{}, &models.Bookmark{}, &models.Share{},
    ))
    return db
}

func createUser(t *testing.T, db *gorm.DB, handle string) *models.User {
    user := &models.User{Handle: handle, Email: handle + "@example.com", Password: "x"}
    require.NoError(t, db.Create(user).Error)
    return user
}

func createPost(t *testing.T, db *gorm.DB, author *models.User) *models.Post {
    post := &models.Post{
        UserID:           author.ID,
        Slug:             "post-by-" + author.Handle,
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

func authedRequest(method, target string, userID uint, pathVars map[string]string) *http.Request {
    req := httptest.NewRequest(method, target, nil)
    req = req.WithContext(context.WithValue(req.Context(), utils.UserIDKey, userID))
    return mux.SetURLVars(req, pathVars)
}

func TestLikeToggleRoundTrip(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    user := createUser(t, db, "alice")
    post := createPost(t, db, createUser(t, db, "author"))

    postVars := map[string]string{"id": fmt.Sprint(post.ID)}

    // First toggle activates
    w := httptest.NewRecorder()
    h.LikePost(w, authedRequest("POST", "/posts/1/like", user.ID, postVars))
    assert.Equal(t, http.StatusOK, w.Code)
    assert.JSONEq(t, `{"active":true,"count":1}`, w.Body.String())

    var likeRows int64
    db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likeRows)
    assert.EqualValues(t, 1, likeRows)

    var got models.Post
    require.NoError(t, db.First(&got, post.ID).Error)
    assert.Equal(t, 1, got.LikesCount)

    // Second toggle returns to the original state
    w = httptest.NewRecorder()
    h.LikePost(w, authedRequest("POST", "/posts/1/like", user.ID, postVars))
    assert.Equal(t, http.StatusOK, w.Code)
    assert.JSONEq(t, `{"active":false,"count":0}`, w.Body.String())

    db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likeRows)
    assert.EqualValues(t, 0, likeRows)

    require.NoError(t, db.First(&got, post.ID).Error)
    assert.Equal(t, 0, got.LikesCount)
}

func TestCounterMatchesRecords(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    post := createPost(t, db, createUser(t, db, "author"))

    for i := 0; i < 3; i++ {
        user := createUser(t, db, fmt.Sprintf("user%d", i))
        w := httptest.NewRecorder()
        h.BookmarkPost(w, authedRequest("POST", "/posts/1/bookmark", user.ID,
            map[string]string{"id": fmt.Sprint(post.ID)}))
        require.Equal(t, http.StatusOK, w.Code)
    }

    var rows int64
    db.Model(&models.Bookmark{}).Where("post_id = ?", post.ID).Count(&rows)

    var got models.Post
    require.NoError(t, db.First(&got, post.ID).Error)
    assert.EqualValues(t, got.BookmarksCount, rows)
    assert.Equal(t, 3, got.BookmarksCount)
}

func TestLikeDisabledPost(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    user := createUser(t, db, "alice")
    post := createPost(t, db, createUser(t, db, "author"))
    require.NoError(t, db.Model(post).UpdateColumn("allow_likes", false).Error)

    w := httptest.NewRecorder()
    h.LikePost(w, authedRequest("POST", "/posts/1/like", user.ID,
        map[string]string{"id": fmt.Sprint(post.ID)}))

    assert.Equal(t, http.StatusForbidden, w.Code)
    assert.Contains(t, w.Body.String(), utils.ErrOperationNotAllowed)

    var rows int64
    db.Model(&models.Like{}).Count(&rows)
    assert.EqualValues(t, 0, rows)
}

func TestLikeUnknownPost(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    user := createUser(t, db, "alice")

    w := httptest.NewRecorder()
    h.LikePost(w, authedRequest("POST", "/posts/99/like", user.ID,
        map[string]string{"id": "99"}))

    assert.Equal(t, http.StatusNotFound, w.Code)
    assert.Contains(t, w.Body.String(), utils.ErrNotFound)
}

func TestLikeUnknownUser(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    post := createPost(t, db, createUser(t, db, "author"))

    w := httptest.NewRecorder()
    h.LikePost(w, authedRequest("POST", "/posts/1/like", 42,
        map[string]string{"id": fmt.Sprint(post.ID)}))

    assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShareIsNotAToggle(t *testing.T) {
    db := setupTestDB(t)
    h := NewHandler(db)
    user := createUser(t, db, "alice")
    post := createPost(t, db, createUser(t, db, "author"))
    postVars := map[string]string{"id": fmt.Sprint(post.ID)}

    // Same user shares twice: both count
    for i := 0; i < 2; i++ {
        w := httptest.NewRecorder()
        h.SharePost(w, authedRequest("POST", "/posts/1/share", user.ID, postVars))
        require.Equal(t, http.StatusOK, w.Code)
    }

    // Anonymous share is allowed
    req := mux.SetURLVars(httptest.NewRequest("POST", "/posts/1/share", nil), postVars)
    w := httptest.NewRecorder()
    h.SharePost(w, req)
    assert.Equal(t, http.StatusOK, w.Code)

    var got models.Post
    require.NoError(t, db.First(&got, post.ID).Error)
    assert.Equal(t, 3, got.SharesCount)

    var rows int64
    db.Model(&models.Share{}).Where("post_id = ?", post.ID).Count(&rows)
    assert.EqualValues(t, 3, rows)

    var anonymous int64
    db.Model(&models.Share{}).Where("post_id = ? AND user_id IS NULL", post.ID).Count(&anonymous)
    assert.EqualValues(t, 1, anonymous)
}
