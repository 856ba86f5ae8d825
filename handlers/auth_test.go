package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicksign/quicksign/internal/config"
	"github.com/quicksign/quicksign/internal/notify"
	"github.com/quicksign/quicksign/internal/users"
	"github.com/quicksign/quicksign/internal/verification"
	"github.com/quicksign/quicksign/pkg/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour},
	}
}

func newAuthRouter(t *testing.T, mailEnabled bool) (*gin.Engine, *notify.Recorder, *users.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	usersSvc := users.NewService(users.NewMemoryRepository())
	verifySvc := verification.NewService(verification.NewMemoryRepository())
	rec := notify.NewRecorder()

	g := gin.New()
	h := NewAuthHandler(cfg, usersSvc, verifySvc, rec, mailEnabled)
	h.Register(g.Group("/"), middleware.AuthMiddleware(cfg))
	return g, rec, usersSvc
}

func postJSON(g *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	return w
}

func TestRegisterDirectWhenMailDisabled(t *testing.T) {
	g, _, _ := newAuthRouter(t, false)

	w := postJSON(g, "/api/auth/register",
		`{"fullName":"Alice Adams","email":"alice@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email         string `json:"email"`
			Plan          string `json:"plan"`
			EmailVerified bool   `json:"emailVerified"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "free", resp.User.Plan)
	assert.False(t, resp.User.EmailVerified)

	// duplicate registration
	w = postJSON(g, "/api/auth/register",
		`{"fullName":"Alice Adams","email":"alice@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterVerificationFlow(t *testing.T) {
	g, rec, _ := newAuthRouter(t, true)

	w := postJSON(g, "/api/auth/register",
		`{"fullName":"Bob Brown","email":"bob@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		RequiresVerification bool `json:"requiresVerification"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.RequiresVerification)

	sent := rec.SentTo("bob@example.com", notify.KindVerification)
	require.Len(t, sent, 1)
	code := sent[0].Payload["code"]
	require.Len(t, code, 6)

	// wrong code
	w = postJSON(g, "/api/auth/verify-email",
		`{"email":"bob@example.com","verificationCode":"000000"}`)
	if code != "000000" {
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	// resend replaces the code
	w = postJSON(g, "/api/auth/resend-verification", `{"email":"bob@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	sent = rec.SentTo("bob@example.com", notify.KindVerification)
	require.Len(t, sent, 2)
	code = sent[1].Payload["code"]

	// correct code creates the verified account
	w = postJSON(g, "/api/auth/verify-email",
		`{"email":"bob@example.com","verificationCode":"`+code+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Token string `json:"token"`
		User  struct {
			EmailVerified bool `json:"emailVerified"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Token)
	assert.True(t, created.User.EmailVerified)
}

func TestRegisterFallsBackWhenMailFails(t *testing.T) {
	g, rec, _ := newAuthRouter(t, true)
	rec.FailFor["carol@example.com"] = true

	w := postJSON(g, "/api/auth/register",
		`{"fullName":"Carol Cole","email":"carol@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// account exists and can log in despite the failed email
	w = postJSON(g, "/api/auth/login", `{"email":"carol@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResendWithoutPending(t *testing.T) {
	g, _, _ := newAuthRouter(t, true)
	w := postJSON(g, "/api/auth/resend-verification", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginAndProfile(t *testing.T) {
	g, _, _ := newAuthRouter(t, false)

	w := postJSON(g, "/api/auth/register",
		`{"fullName":"Dana Drew","email":"dana@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(g, "/api/auth/login", `{"email":"dana@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(g, "/api/auth/login", `{"email":"dana@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	// profile requires the bearer token
	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusUnauthorized, rw.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
	var prof struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &prof))
	assert.Equal(t, "dana@example.com", prof.User.Email)
}
