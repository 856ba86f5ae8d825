package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/quicksign/quicksign/internal/config"
	"github.com/quicksign/quicksign/internal/models"
	"github.com/quicksign/quicksign/internal/tokens"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "middleware-test-secret-32-bytes-x"
	return cfg
}

func TestAuthMiddleware_NoHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(testConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })

	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_InvalidHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(testConfig()), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "BadHeader")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	cfg := testConfig()
	tok, err := tokens.GenerateAccessToken(cfg, &models.User{ID: "user-1", Email: "t@example.com"}, time.Minute)
	require.NoError(t, err)

	g := gin.New()
	g.GET("/", AuthMiddleware(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userId")})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)

	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), "user-1")
}

func TestAdminMiddleware_RejectsNonAdmin(t *testing.T) {
	cfg := testConfig()
	tok, err := tokens.GenerateAccessToken(cfg, &models.User{ID: "plain-user"}, time.Minute)
	require.NoError(t, err)

	lookup := func(ctx context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, IsAdmin: false}, nil
	}

	g := gin.New()
	g.GET("/admin", AuthMiddleware(cfg), AdminMiddleware(lookup), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusForbidden, rw.Code)
}

func TestAdminMiddleware_AllowsAdmin(t *testing.T) {
	cfg := testConfig()
	tok, err := tokens.GenerateAccessToken(cfg, &models.User{ID: "admin-user"}, time.Minute)
	require.NoError(t, err)

	lookup := func(ctx context.Context, id string) (*models.User, error) {
		return &models.User{ID: id, IsAdmin: true}, nil
	}

	g := gin.New()
	g.GET("/admin", AuthMiddleware(cfg), AdminMiddleware(lookup), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
}
