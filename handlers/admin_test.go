package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docrepo "github.com/quicksign/quicksign/internal/document/repository"
	docservice "github.com/quicksign/quicksign/internal/document/service"
	"github.com/quicksign/quicksign/internal/field"
	"github.com/quicksign/quicksign/internal/notify"
	reqrepo "github.com/quicksign/quicksign/internal/request/repository"
	reqservice "github.com/quicksign/quicksign/internal/request/service"
	"github.com/quicksign/quicksign/internal/storage"
	"github.com/quicksign/quicksign/internal/users"
	"github.com/quicksign/quicksign/pkg/middleware"
)

type adminEnv struct {
	g        *gin.Engine
	users    *users.Service
	docs     *docservice.Service
	workflow *reqservice.Service
	adminID  string
}

func authAs(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	usersSvc := users.NewService(users.NewMemoryRepository())
	require.NoError(t, usersSvc.EnsureAdmin(context.Background(), "admin@example.com", "adminpass"))
	admin, err := usersSvc.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)

	repo := docrepo.NewMemoryRepo()
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	docs := docservice.New(repo, local, 1<<20)
	fields := field.NewService(field.NewMemoryRepository(), repo)
	outbox := notify.NewOutbox(notify.NewRecorder())
	workflow := reqservice.New(reqrepo.NewMemoryRepository(), repo, fields, outbox, usersSvc.GetByID, "http://localhost:3000")

	g := gin.New()
	h := NewAdminHandler(usersSvc, docs, workflow, fields, nil)
	h.Register(g.Group("/"), authAs(admin.ID), middleware.AdminMiddleware(usersSvc.GetByID))
	return &adminEnv{g: g, users: usersSvc, docs: docs, workflow: workflow, adminID: admin.ID}
}

func TestAdminListUsersAndStats(t *testing.T) {
	e := newAdminEnv(t)
	_, err := e.users.Register(context.Background(), "Alice", "alice@example.com", "secret1", true)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	e.g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Users []map[string]any `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Users, 2)

	w = httptest.NewRecorder()
	e.g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Stats struct {
			TotalUsers  int            `json:"totalUsers"`
			UsersByPlan map[string]int `json:"usersByPlan"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Stats.TotalUsers)
	assert.Equal(t, 1, stats.Stats.UsersByPlan["enterprise"])
	assert.Equal(t, 1, stats.Stats.UsersByPlan["free"])
}

func TestAdminUpdatePlan(t *testing.T) {
	e := newAdminEnv(t)
	u, err := e.users.Register(context.Background(), "Alice", "alice@example.com", "secret1", true)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/admin/users/"+u.ID+"/plan", strings.NewReader(`{"plan":"pro"}`))
	req.Header.Set("Content-Type", "application/json")
	e.g.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := e.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "pro", got.Plan)

	// invalid plan
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/admin/users/"+u.ID+"/plan", strings.NewReader(`{"plan":"platinum"}`))
	req.Header.Set("Content-Type", "application/json")
	e.g.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminDeleteUserCascades(t *testing.T) {
	e := newAdminEnv(t)
	ctx := context.Background()
	u, err := e.users.Register(ctx, "Alice", "alice@example.com", "secret1", true)
	require.NoError(t, err)

	d, err := e.docs.Upload(ctx, u.ID, "a.pdf", "application/pdf", 4, strings.NewReader("abcd"))
	require.NoError(t, err)
	_, err = e.workflow.Create(ctx, d.ID, u.ID, []reqservice.SignerInput{{Name: "Bob", Email: "bob@example.com"}}, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	e.g.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+u.ID, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, err = e.users.GetByID(ctx, u.ID)
	require.Error(t, err)
	docs, err := e.docs.ListByUploader(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
	mine, err := e.workflow.ForUser(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Empty(t, mine.Created)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	e := newAdminEnv(t)
	w := httptest.NewRecorder()
	e.g.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+e.adminID, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesForbiddenForNonAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	usersSvc := users.NewService(users.NewMemoryRepository())
	u, err := usersSvc.Register(context.Background(), "Eve", "eve@example.com", "secret1", true)
	require.NoError(t, err)

	repo := docrepo.NewMemoryRepo()
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	docs := docservice.New(repo, local, 1<<20)
	fields := field.NewService(field.NewMemoryRepository(), repo)
	workflow := reqservice.New(reqrepo.NewMemoryRepository(), repo, fields, notify.NewOutbox(notify.NewRecorder()), usersSvc.GetByID, "http://localhost:3000")

	g := gin.New()
	h := NewAdminHandler(usersSvc, docs, workflow, fields, nil)
	h.Register(g.Group("/"), authAs(u.ID), middleware.AdminMiddleware(usersSvc.GetByID))

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// dashboard stats only needs authentication
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
