package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/complaint-desk/internal/middleware"
	"github.com/noah-isme/complaint-desk/internal/models"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
)

type authServiceMock struct {
	users map[string]*models.User
}

func (m *authServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if _, exists := m.users[req.Email]; exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	user := &models.User{ID: "id-" + req.Email, Email: req.Email, Name: req.Name}
	m.users[req.Email] = user
	return user, nil
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	user, ok := m.users[req.Email]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid email or password")
	}
	return user, nil
}

func (m *authServiceMock) IssueToken(user *models.User) (*models.TokenResponse, error) {
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	return &models.TokenResponse{AccessToken: "token-" + user.ID, TokenType: "Bearer"}, nil
}

func newAuthRouter(svc *authServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("session", cookie.NewStore([]byte("secret"))))
	h := NewAuthHandler(svc)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/session", func(c *gin.Context) {
		value, _ := sessions.Default(c).Get(middleware.SessionUserKey).(string)
		c.String(http.StatusOK, value)
	})
	return r
}

func postJSON(r http.Handler, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerRegisterStartsSession(t *testing.T) {
	r := newAuthRouter(&authServiceMock{users: map[string]*models.User{}})

	w := postJSON(r, "/auth/register", `{"email":"a@example.com","password":"pw","name":"A"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	session := postJSON(r, "/auth/session", "", cookies)
	assert.Equal(t, "id-a@example.com", session.Body.String())

	dup := postJSON(r, "/auth/register", `{"email":"a@example.com","password":"pw","name":"A"}`, nil)
	assert.Equal(t, http.StatusConflict, dup.Code)
}

func TestAuthHandlerLogin(t *testing.T) {
	svc := &authServiceMock{users: map[string]*models.User{
		"a@example.com": {ID: "u1", Email: "a@example.com", Name: "A"},
	}}
	r := newAuthRouter(svc)

	w := postJSON(r, "/auth/login", `{"email":"a@example.com","password":"whatever"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"user"`)

	unknown := postJSON(r, "/auth/login", `{"email":"nobody@example.com","password":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)

	bad := postJSON(r, "/auth/login", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestAuthHandlerLogoutClearsSession(t *testing.T) {
	svc := &authServiceMock{users: map[string]*models.User{
		"a@example.com": {ID: "u1", Email: "a@example.com"},
	}}
	r := newAuthRouter(svc)

	login := postJSON(r, "/auth/login", `{"email":"a@example.com","password":"x"}`, nil)
	logout := postJSON(r, "/auth/logout", "", login.Result().Cookies())
	require.Equal(t, http.StatusNoContent, logout.Code)

	var cleared bool
	for _, ck := range logout.Result().Cookies() {
		if ck.Name == "session" && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestAuthHandlerMeAndToken(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})

	c, w := newTestContext(http.MethodGet, "/auth/me", nil, nil)
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	user := &models.User{ID: "u1", Email: "a@example.com", Name: "A", Role: models.RoleAdmin}
	c, w = newTestContext(http.MethodGet, "/auth/me", nil, user)
	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"role":"admin"`))

	c, w = newTestContext(http.MethodPost, "/auth/token", nil, user)
	h.Token(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token-u1")
}
