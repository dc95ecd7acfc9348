package web

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/askboard/internal/core/auth"
	"github.com/artpar/askboard/internal/shell/session"
	"github.com/go-chi/chi/v5/middleware"
)

// =============================================================================
// Middleware
// =============================================================================

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// loadUser resolves the session user into the auth context.
// A session pointing at a deleted user is treated as anonymous.
func (h *Handler) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := auth.Anonymous()

		if s := session.FromContext(r.Context()); s.UserID != 0 {
			user, err := h.store.GetUser(r.Context(), s.UserID)
			switch {
			case err == nil:
				authCtx = auth.LoggedIn(user.ID, user.Username)
			case isNotFound(err):
				h.logger.Debug("session user no longer exists", "user_id", s.UserID)
			default:
				h.logger.Error("failed to load session user", "user_id", s.UserID, "error", err)
			}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithContext(r.Context(), authCtx)))
	})
}

// requireLogin redirects anonymous users to the login page. GET requests
// carry their URL in next so the user lands back there after logging in.
func (h *Handler) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()).Authenticated {
			next.ServeHTTP(w, r)
			return
		}

		target := "/auth/login/"
		if r.Method == http.MethodGet {
			target += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
}

// verifyCSRF rejects POST requests whose csrf_token field does not match the
// session token. It is mounted after requireLogin so anonymous posts to
// protected routes get the login redirect rather than a 400.
func (h *Handler) verifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		expected := session.FromContext(r.Context()).CSRF
		got := r.PostFormValue("csrf_token")
		if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			h.logger.Warn("csrf token mismatch",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			http.Error(w, "The CSRF token is missing or invalid.", http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// safeNext returns next when it is a local absolute path, else "/".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return next
}
