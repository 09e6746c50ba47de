package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/pulse/config"
	"github.com/d60-Lab/pulse/internal/api/handler"
	"github.com/d60-Lab/pulse/internal/identity"
	"github.com/d60-Lab/pulse/internal/imagestore"
	"github.com/d60-Lab/pulse/internal/model"
	"github.com/d60-Lab/pulse/internal/repository"
	"github.com/d60-Lab/pulse/internal/service"
)

type testAPI struct {
	engine   *gin.Engine
	provider *identity.StaticProvider
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Follow{}, &model.Fan{},
		&model.Post{}, &model.PostLike{}, &model.Comment{}, &model.Notification{},
	))

	provider := identity.NewStaticProvider()
	images := imagestore.NewMemoryStore()

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	h := handler.New(
		service.NewUserService(userRepo, followRepo, fanRepo, provider, images),
		service.NewRelationshipService(db, userRepo, followRepo, fanRepo),
		service.NewEngagementService(db, userRepo, postRepo, likeRepo),
		service.NewContentService(db, userRepo, postRepo, commentRepo, likeRepo, images),
		service.NewNotificationService(notificationRepo, userRepo, postRepo, commentRepo),
	)

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	engine := New(cfg, h, provider, nil)
	return &testAPI{engine: engine, provider: provider}
}

// do performs a request as the given principal; an empty principal means
// anonymous. JSON bodies are passed as raw strings.
func (a *testAPI) do(method, path, principal, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if principal != "" {
		req.Header.Set("Authorization", "Bearer "+principal)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Code int             `json:"code"`
		Msg  string          `json:"msg"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	if len(envelope.Data) == 0 {
		return nil
	}
	var data map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data
}

func (a *testAPI) sync(t *testing.T, principal, email string) map[string]any {
	t.Helper()
	a.provider.Register(identity.Account{ID: principal, Email: email})
	w := a.do(http.MethodPost, "/api/v1/users/sync", principal, "")
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, w.Code)
	return decodeData(t, w)
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	a := newTestAPI(t)
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/users/sync"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/posts"},
		{http.MethodGet, "/api/v1/notifications"},
	} {
		w := a.do(route.method, route.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestSyncThenMe(t *testing.T) {
	a := newTestAPI(t)
	a.provider.Register(identity.Account{ID: "alice", Email: "alice@example.com", FirstName: "Alice"})

	first := a.do(http.MethodPost, "/api/v1/users/sync", "alice", "")
	assert.Equal(t, http.StatusCreated, first.Code)

	second := a.do(http.MethodPost, "/api/v1/users/sync", "alice", "")
	assert.Equal(t, http.StatusOK, second.Code)

	me := a.do(http.MethodGet, "/api/v1/users/me", "alice", "")
	require.Equal(t, http.StatusOK, me.Code)
	data := decodeData(t, me)
	assert.Equal(t, "alice", data["username"])
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	a.sync(t, "owner", "owner@example.com")
	a.sync(t, "visitor", "visitor@example.com")

	// Create.
	created := a.do(http.MethodPost, "/api/v1/posts", "owner", `{"content":"hello world"}`)
	require.Equal(t, http.StatusCreated, created.Code)
	postID, _ := decodeData(t, created)["id"].(string)
	require.NotEmpty(t, postID)

	// Public read.
	got := a.do(http.MethodGet, "/api/v1/posts/"+postID, "", "")
	require.Equal(t, http.StatusOK, got.Code)
	data := decodeData(t, got)
	assert.Equal(t, "hello world", data["content"])

	// Like toggles on, then off.
	liked := a.do(http.MethodPost, "/api/v1/posts/"+postID+"/like", "visitor", "")
	require.Equal(t, http.StatusOK, liked.Code)
	assert.Equal(t, true, decodeData(t, liked)["liked"])

	unliked := a.do(http.MethodPost, "/api/v1/posts/"+postID+"/like", "visitor", "")
	require.Equal(t, http.StatusOK, unliked.Code)
	assert.Equal(t, false, decodeData(t, unliked)["liked"])

	// Exactly one like notification reached the owner.
	notifs := a.do(http.MethodGet, "/api/v1/notifications", "owner", "")
	require.Equal(t, http.StatusOK, notifs.Code)
	var envelope struct {
		Data struct {
			Notifications []map[string]any `json:"notifications"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(notifs.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Notifications, 1)
	assert.Equal(t, "like", envelope.Data.Notifications[0]["type"])

	// Only the owner may delete.
	forbidden := a.do(http.MethodDelete, "/api/v1/posts/"+postID, "visitor", "")
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	deleted := a.do(http.MethodDelete, "/api/v1/posts/"+postID, "owner", "")
	assert.Equal(t, http.StatusOK, deleted.Code)

	gone := a.do(http.MethodGet, "/api/v1/posts/"+postID, "", "")
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestFollowToggleOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	a.sync(t, "fa", "fa@example.com")
	fb := a.sync(t, "fb", "fb@example.com")
	fbID, _ := fb["id"].(string)
	require.NotEmpty(t, fbID)

	w := a.do(http.MethodPost, "/api/v1/users/follow/"+fbID, "fa", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeData(t, w)["following"])

	w = a.do(http.MethodPost, "/api/v1/users/follow/"+fbID, "fa", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeData(t, w)["following"])
}

func TestCommentValidationOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	a.sync(t, "ca", "ca@example.com")

	created := a.do(http.MethodPost, "/api/v1/posts", "ca", `{"content":"talk"}`)
	require.Equal(t, http.StatusCreated, created.Code)
	postID, _ := decodeData(t, created)["id"].(string)

	blank := a.do(http.MethodPost, "/api/v1/comments/post/"+postID, "ca", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, blank.Code)

	ok := a.do(http.MethodPost, "/api/v1/comments/post/"+postID, "ca", `{"content":"first!"}`)
	assert.Equal(t, http.StatusCreated, ok.Code)
}
