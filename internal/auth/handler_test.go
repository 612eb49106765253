package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() (*Handler, *Manager, *memUserStore) {
	sessionStore := newMemSessionStore()
	userStore := newMemUserStore()
	manager := NewManager(sessionStore, userStore)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewHandler(manager, userStore, newTestHasher(), logger), manager, userStore
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestSignup_CreatesUserAndSession(t *testing.T) {
	h, manager, _ := newTestHandler()

	rec := postJSON(t, h.Signup, "/api/signup", credentials{Username: "alice", Password: "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	u, err := manager.Resolve(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.UserName)
}

func TestSignup_DuplicateUsernameConflicts(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := postJSON(t, h.Signup, "/api/signup", credentials{Username: "alice", Password: "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.Signup, "/api/signup", credentials{Username: "alice", Password: "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignup_RejectsEmptyCredentials(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := postJSON(t, h.Signup, "/api/signup", credentials{Username: " ", Password: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_RightAndWrongPassword(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := postJSON(t, h.Signup, "/api/signup", credentials{Username: "bob", Password: "hunter2"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, h.Login, "/api/login", credentials{Username: "bob", Password: "hunter2"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, sessionCookie(t, rec).Value)

	rec = postJSON(t, h.Login, "/api/login", credentials{Username: "bob", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownUserLooksLikeWrongPassword(t *testing.T) {
	h, _, _ := newTestHandler()

	rec := postJSON(t, h.Login, "/api/login", credentials{Username: "nobody", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RevokesSessionAndClearsCookie(t *testing.T) {
	h, manager, _ := newTestHandler()

	rec := postJSON(t, h.Signup, "/api/signup", credentials{Username: "carol", Password: "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := sessionCookie(t, rec).Value

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Less(t, sessionCookie(t, rec).MaxAge, 0)

	u, err := manager.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestMiddleware_ResolvesCookieToUser(t *testing.T) {
	h, manager, _ := newTestHandler()

	rec := postJSON(t, h.Signup, "/api/signup", credentials{Username: "dave", Password: "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)
	token := sessionCookie(t, rec).Value

	protected := Middleware(manager)(http.HandlerFunc(h.Me))

	// With the cookie the request is authenticated.
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Without it the request is anonymous and Me rejects it.
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
