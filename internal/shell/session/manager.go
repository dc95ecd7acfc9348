package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/artpar/askboard/internal/core/crypto"
)

// DefaultCookieName is used when Config.CookieName is empty.
const DefaultCookieName = "askboard_session"

// ErrSecretRequired is returned when no session secret is configured.
var ErrSecretRequired = errors.New("session secret is required")

// Config configures the session cookie.
type Config struct {
	Secret     string
	CookieName string
	Secure     bool
	Logger     *slog.Logger
}

// Manager loads and saves sessions from request cookies.
type Manager struct {
	key    []byte
	name   string
	secure bool
	logger *slog.Logger
}

// NewManager creates a session manager. The cookie key is derived from
// cfg.Secret.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrSecretRequired
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		key:    crypto.DeriveKey(cfg.Secret),
		name:   cfg.CookieName,
		secure: cfg.Secure,
		logger: cfg.Logger,
	}, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.name
}

// Load decodes the session cookie of r.
// A missing, tampered or undecodable cookie yields an empty session.
func (m *Manager) Load(r *http.Request) *Session {
	c, err := r.Cookie(m.name)
	if err != nil || c.Value == "" {
		return New()
	}

	s, err := m.Decode(c.Value)
	if err != nil {
		m.logger.Debug("discarding invalid session cookie",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		// Overwrite the bad cookie on the next save.
		return &Session{hadCookie: true, dirty: true}
	}
	s.hadCookie = true
	return s
}

// Save writes the session cookie. An empty session deletes the cookie.
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	if s.empty() {
		if s.hadCookie {
			http.SetCookie(w, m.cookie("", -1))
		}
		return nil
	}

	value, err := m.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(value, 0))
	s.dirty = false
	return nil
}

// Encode seals a session into a cookie value.
func (m *Manager) Encode(s *Session) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	value, err := crypto.EncryptToBase64(payload, m.key)
	if err != nil {
		return "", fmt.Errorf("seal session: %w", err)
	}
	return value, nil
}

// Decode opens a cookie value produced by Encode.
func (m *Manager) Decode(value string) (*Session, error) {
	payload, err := crypto.DecryptFromBase64(value, m.key)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// =============================================================================
// Middleware
// =============================================================================

// Middleware loads the session into the request context and saves it back
// before the response header is written, if the handler changed it.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Load(r)
		sw := &savingWriter{ResponseWriter: w, manager: m, session: s}

		next.ServeHTTP(sw, r.WithContext(WithContext(r.Context(), s)))

		sw.save()
	})
}

// savingWriter saves the session on the first header write.
type savingWriter struct {
	http.ResponseWriter
	manager *Manager
	session *Session
	saved   bool
}

func (w *savingWriter) save() {
	if w.saved {
		return
	}
	w.saved = true
	if !w.session.Dirty() {
		return
	}
	if err := w.manager.Save(w.ResponseWriter, w.session); err != nil {
		w.manager.logger.Error("failed to save session", "error", err)
	}
}

func (w *savingWriter) WriteHeader(code int) {
	w.save()
	w.ResponseWriter.WriteHeader(code)
}

func (w *savingWriter) Write(b []byte) (int, error) {
	w.save()
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for middleware compatibility.
func (w *savingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
