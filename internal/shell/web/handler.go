// Package web serves the server-rendered pages of the board.
package web

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/artpar/askboard/internal/shell/session"
	"github.com/artpar/askboard/internal/shell/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides the HTML handlers of the board.
type Handler struct {
	store    store.Store
	sessions *session.Manager
	metrics  *Metrics
	renderer *renderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a web handler. metrics may be nil.
func NewHandler(s store.Store, sessions *session.Manager, m *Metrics, l *slog.Logger) (*Handler, error) {
	if l == nil {
		l = slog.Default()
	}
	rd, err := newRenderer(NewMarkdown())
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:    s,
		sessions: sessions,
		metrics:  m,
		renderer: rd,
		logger:   l,
		now:      time.Now,
	}, nil
}

// Routes returns the router with all pages configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestIDHeader)
	r.Use(h.requestLogger)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	r.Use(h.sessions.Middleware)
	r.Use(h.loadUser)

	r.NotFound(h.notFound)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", h.handleIndex)

	r.Route("/question", func(r chi.Router) {
		r.Get("/list/", h.handleQuestionList)
		r.Get("/detail/{id}/", h.handleQuestionDetail)

		r.Group(func(r chi.Router) {
			r.Use(h.requireLogin)
			r.Use(h.verifyCSRF)
			r.Get("/create/", h.handleQuestionCreate)
			r.Post("/create/", h.handleQuestionCreate)
			r.Get("/modify/{id}/", h.handleQuestionModify)
			r.Post("/modify/{id}/", h.handleQuestionModify)
			r.Post("/delete/{id}", h.handleQuestionDelete)
			r.Post("/vote/{id}/", h.handleQuestionVote)
		})
	})

	r.Route("/answer", func(r chi.Router) {
		r.Use(h.requireLogin)
		r.Use(h.verifyCSRF)
		r.Post("/create/{question_id}", h.handleAnswerCreate)
		r.Get("/modify/{id}", h.handleAnswerModify)
		r.Post("/modify/{id}", h.handleAnswerModify)
		r.Post("/delete/{id}", h.handleAnswerDelete)
		r.Post("/vote/{id}/", h.handleAnswerVote)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/signup/", h.handleSignup)
		r.With(h.verifyCSRF).Post("/signup/", h.handleSignup)
		r.Get("/login/", h.handleLogin)
		r.With(h.verifyCSRF).Post("/login/", h.handleLogin)
		r.Get("/logout/", h.handleLogout)
	})

	return r
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/question/list/", http.StatusFound)
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "not_found", nil)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// urlID parses a numeric route parameter; ok is false for anything else.
func urlID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func flash(r *http.Request, msg string) {
	session.FromContext(r.Context()).AddFlash(msg)
}

func questionURL(id int) string {
	return "/question/detail/" + strconv.Itoa(id) + "/"
}

func answerURL(questionID, answerID int) string {
	return questionURL(questionID) + "#answer_" + strconv.Itoa(answerID)
}

func isNotFound(err error) bool {
	return store.IsNotFound(err)
}
