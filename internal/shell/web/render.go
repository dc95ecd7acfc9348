package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/artpar/askboard/internal/core/auth"
	"github.com/artpar/askboard/internal/core/domain"
	"github.com/artpar/askboard/internal/core/validation"
	"github.com/artpar/askboard/internal/shell/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/base.html"

const datetimeLayout = "2006-01-02 15:04"

// =============================================================================
// Renderer
// =============================================================================

// renderer holds one parsed template set per page, each layered on the
// shared layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(md *Markdown) (*renderer, error) {
	funcs := template.FuncMap{
		"markdown": md.Render,
		"datetime": formatDatetime,
	}

	layout, err := template.New("base").Funcs(funcs).ParseFS(templateFS, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}

	return &renderer{pages: pages}, nil
}

// view is the data passed to every page.
type view struct {
	Auth      auth.Context
	Flashes   []string
	CSRFToken string
	Page      any
}

// render executes a page into a buffer first so a template error can still
// become a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page any) {
	t, ok := h.renderer.pages[name]
	if !ok {
		h.logger.Error("unknown template", "template", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s := session.FromContext(r.Context())
	data := view{
		Auth:      auth.FromContext(r.Context()),
		Flashes:   s.PopFlashes(),
		CSRFToken: s.CSRFToken(),
		Page:      page,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func formatDatetime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Local().Format(datetimeLayout)
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Local().Format(datetimeLayout)
	default:
		return ""
	}
}

// =============================================================================
// Page Models
// =============================================================================

type listPage struct {
	Questions *domain.Pagination[domain.Question]
	Query     domain.ListQuery
}

// PageURL links to page n keeping the keyword and sort mode.
func (p listPage) PageURL(n int) string {
	q := p.Query
	q.Page = n
	if encoded := q.Values().Encode(); encoded != "" {
		return "/question/list/?" + encoded
	}
	return "/question/list/"
}

// SortIs reports whether the list is sorted by mode.
func (p listPage) SortIs(mode string) bool {
	return string(p.Query.Sort) == mode
}

type detailPage struct {
	Question *domain.Question
	Answers  []domain.Answer
	Form     validation.AnswerForm
	Errors   validation.FieldErrors
}

type questionFormPage struct {
	Form    validation.QuestionForm
	Errors  validation.FieldErrors
	Action  string
	Editing bool
}

type answerFormPage struct {
	Form   validation.AnswerForm
	Errors validation.FieldErrors
	Action string
}

type signupPage struct {
	Form   validation.UserCreateForm
	Errors validation.FieldErrors
}

type loginPage struct {
	Form   validation.UserLoginForm
	Errors validation.FieldErrors
	Action string
}
