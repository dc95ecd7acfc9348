package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: "test-secret"})
	require.NoError(t, err)
	return m
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// =============================================================================
// Session Tests
// =============================================================================

func TestSession_Flashes(t *testing.T) {
	s := New()
	assert.Nil(t, s.PopFlashes())
	assert.False(t, s.Dirty())

	s.AddFlash("one")
	s.AddFlash("two")
	assert.True(t, s.Dirty())
	assert.Equal(t, []string{"one", "two"}, s.PopFlashes())
	assert.Nil(t, s.PopFlashes())
}

func TestSession_CSRFTokenIsStable(t *testing.T) {
	s := New()
	token := s.CSRFToken()
	assert.NotEmpty(t, token)
	assert.Equal(t, token, s.CSRFToken())

	s.Clear()
	assert.NotEqual(t, token, s.CSRFToken())
}

func TestSession_Login(t *testing.T) {
	s := New()
	s.AddFlash("stale")
	_ = s.CSRFToken()

	s.Login(7)
	assert.Equal(t, 7, s.UserID)
	assert.Empty(t, s.Flashes)
	assert.Empty(t, s.CSRF)
}

func TestFromContext_Missing(t *testing.T) {
	s := FromContext(context.Background())
	require.NotNil(t, s)
	assert.Zero(t, s.UserID)
}

func TestFromContext_RoundTrip(t *testing.T) {
	s := &Session{UserID: 3}
	got := FromContext(WithContext(context.Background(), s))
	assert.Same(t, s, got)
}

// =============================================================================
// Manager Tests
// =============================================================================

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(Config{})
	assert.ErrorIs(t, err, ErrSecretRequired)
}

func TestManager_EncodeDecode(t *testing.T) {
	m := newTestManager(t)
	value, err := m.Encode(&Session{UserID: 5, Flashes: []string{"hi"}, CSRF: "tok"})
	require.NoError(t, err)

	got, err := m.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, 5, got.UserID)
	assert.Equal(t, []string{"hi"}, got.Flashes)
	assert.Equal(t, "tok", got.CSRF)
}

func TestManager_DecodeWithOtherSecretFails(t *testing.T) {
	m := newTestManager(t)
	value, err := m.Encode(&Session{UserID: 5})
	require.NoError(t, err)

	other, err := NewManager(Config{Secret: "another-secret"})
	require.NoError(t, err)
	_, err = other.Decode(value)
	assert.Error(t, err)
}

func TestManager_LoadTamperedCookie(t *testing.T) {
	m := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "garbage"})

	s := m.Load(req)
	assert.Zero(t, s.UserID)
	assert.Empty(t, s.Flashes)
	assert.True(t, s.Dirty())
}

func TestManager_SaveAndLoad(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, &Session{UserID: 9}))

	c := sessionCookie(t, rec, DefaultCookieName)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Equal(t, 9, m.Load(req).UserID)
}

func TestManager_SaveEmptyDeletesCookie(t *testing.T) {
	m := newTestManager(t)

	fresh := httptest.NewRecorder()
	require.NoError(t, m.Save(fresh, New()))
	assert.Nil(t, sessionCookie(t, fresh, DefaultCookieName))

	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, &Session{hadCookie: true}))
	c := sessionCookie(t, rec, DefaultCookieName)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestManager_CustomCookieName(t *testing.T) {
	m, err := NewManager(Config{Secret: "s", CookieName: "board", Secure: true})
	require.NoError(t, err)
	assert.Equal(t, "board", m.CookieName())

	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, &Session{UserID: 1}))
	c := sessionCookie(t, rec, "board")
	require.NotNil(t, c)
	assert.True(t, c.Secure)
}

// =============================================================================
// Middleware Tests
// =============================================================================

func TestMiddleware_SavesChangesBeforeRedirect(t *testing.T) {
	m := newTestManager(t)
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).AddFlash("saved")
		http.Redirect(w, r, "/next", http.StatusFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	c := sessionCookie(t, rec, DefaultCookieName)
	require.NotNil(t, c)

	s, err := m.Decode(c.Value)
	require.NoError(t, err)
	assert.Equal(t, []string{"saved"}, s.Flashes)
}

func TestMiddleware_UnchangedSessionSetsNoCookie(t *testing.T) {
	m := newTestManager(t)
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "ok", rec.Body.String())
	assert.Nil(t, sessionCookie(t, rec, DefaultCookieName))
}

func TestMiddleware_SavesWhenHandlerWritesNothing(t *testing.T) {
	m := newTestManager(t)
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Login(4)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	c := sessionCookie(t, rec, DefaultCookieName)
	require.NotNil(t, c)
	s, err := m.Decode(c.Value)
	require.NoError(t, err)
	assert.Equal(t, 4, s.UserID)
}
