package web

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/artpar/askboard/internal/core/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Signup Tests
// =============================================================================

func signupForm(username string) url.Values {
	return url.Values{
		"username":  {username},
		"password1": {"password"},
		"password2": {"password"},
		"email":     {username + "@example.com"},
	}
}

func TestSignup_Success(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(http.MethodGet, "/auth/signup/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password2"`)

	rec = env.do(http.MethodPost, "/auth/signup/", signupForm("newbie"), as(nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	user, err := env.store.GetUserByUsername(context.Background(), "newbie")
	require.NoError(t, err)
	assert.Equal(t, "newbie@example.com", user.Email)
	assert.NotEqual(t, "password", user.Password)
	assert.NoError(t, crypto.CheckPassword(user.Password, "password"))
}

func TestSignup_DuplicateUsername(t *testing.T) {
	env := setupTestEnv(t)
	env.user("taken")

	rec := env.do(http.MethodPost, "/auth/signup/", signupForm("taken"), as(nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgUserExists)
}

func TestSignup_Invalid(t *testing.T) {
	env := setupTestEnv(t)
	form := signupForm("newbie")
	form.Set("password2", "different")

	rec := env.do(http.MethodPost, "/auth/signup/", form, as(nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match.")
	assert.Contains(t, rec.Body.String(), `value="newbie"`)
}

// =============================================================================
// Login Tests
// =============================================================================

func TestLogin_Success(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.user("alice")

	rec := env.do(http.MethodPost, "/auth/login/",
		url.Values{"username": {"alice"}, "password": {"secret-alice"}}, as(nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	s := env.sessionOf(rec)
	require.NotNil(t, s)
	assert.Equal(t, alice.ID, s.UserID)
	// Logging in starts a fresh session.
	assert.Empty(t, s.CSRF)
}

func TestLogin_FollowsLocalNext(t *testing.T) {
	env := setupTestEnv(t)
	env.user("alice")

	rec := env.do(http.MethodGet, "/auth/login/?next=%2Fquestion%2Fcreate%2F", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/auth/login/?next=%2Fquestion%2Fcreate%2F"`)

	rec = env.do(http.MethodPost, "/auth/login/?next=%2Fquestion%2Fcreate%2F",
		url.Values{"username": {"alice"}, "password": {"secret-alice"}}, as(nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/question/create/", rec.Header().Get("Location"))
}

func TestLogin_IgnoresForeignNext(t *testing.T) {
	env := setupTestEnv(t)
	env.user("alice")

	rec := env.do(http.MethodPost, "/auth/login/?next="+url.QueryEscape("https://evil.example/"),
		url.Values{"username": {"alice"}, "password": {"secret-alice"}}, as(nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLogin_UnknownUser(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/login/",
		url.Values{"username": {"ghost"}, "password": {"whatever"}}, as(nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgUnknownUser)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := setupTestEnv(t)
	env.user("alice")

	rec := env.do(http.MethodPost, "/auth/login/",
		url.Values{"username": {"alice"}, "password": {"nope"}}, as(nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgWrongPassword)

	s := env.sessionOf(rec)
	if s != nil {
		assert.Zero(t, s.UserID)
	}
}

// =============================================================================
// Logout Tests
// =============================================================================

func TestLogout_ClearsSession(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.user("alice")

	rec := env.do(http.MethodGet, "/auth/logout/", nil, as(alice))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == env.sessions.CookieName() {
			cleared = c.MaxAge < 0
		}
	}
	assert.True(t, cleared)
}
