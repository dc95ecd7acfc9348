// Package session keeps per-browser state in a sealed cookie.
//
// The cookie carries the logged-in user id, pending flash messages and the
// CSRF token. Its payload is JSON sealed with AES-GCM, so clients can neither
// read nor forge it.
package session

import (
	"context"

	"github.com/google/uuid"
)

// Session is the decoded cookie payload of one browser.
type Session struct {
	UserID  int      `json:"user_id,omitempty"`
	Flashes []string `json:"flashes,omitempty"`
	CSRF    string   `json:"csrf,omitempty"`

	dirty     bool
	hadCookie bool
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

// Login replaces the session contents with a fresh login for userID.
func (s *Session) Login(userID int) {
	s.Clear()
	s.UserID = userID
}

// Clear removes everything from the session, including the CSRF token.
func (s *Session) Clear() {
	s.UserID = 0
	s.Flashes = nil
	s.CSRF = ""
	s.dirty = true
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(msg string) {
	s.Flashes = append(s.Flashes, msg)
	s.dirty = true
}

// PopFlashes returns the queued messages and removes them from the session.
func (s *Session) PopFlashes() []string {
	if len(s.Flashes) == 0 {
		return nil
	}
	msgs := s.Flashes
	s.Flashes = nil
	s.dirty = true
	return msgs
}

// CSRFToken returns the session CSRF token, creating one when missing.
func (s *Session) CSRFToken() string {
	if s.CSRF == "" {
		s.CSRF = uuid.NewString()
		s.dirty = true
	}
	return s.CSRF
}

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	return s.dirty
}

func (s *Session) empty() bool {
	return s.UserID == 0 && len(s.Flashes) == 0 && s.CSRF == ""
}

// =============================================================================
// Context
// =============================================================================

type contextKey struct{}

// WithContext stores the session in ctx.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx.
// Without one it returns a detached empty session so callers never nil-check.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok && s != nil {
		return s
	}
	return New()
}
