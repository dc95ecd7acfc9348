package web

import (
	"net/http"
	"strconv"

	"github.com/artpar/askboard/internal/core/auth"
	"github.com/artpar/askboard/internal/core/domain"
	"github.com/artpar/askboard/internal/core/validation"
)

// =============================================================================
// Question Handlers
// =============================================================================

func (h *Handler) handleQuestionList(w http.ResponseWriter, r *http.Request) {
	query := domain.ParseListQuery(r.URL.Query())

	page, err := h.store.ListQuestions(r.Context(), query)
	if err != nil {
		h.serverError(w, r, "failed to list questions", err)
		return
	}

	h.render(w, r, http.StatusOK, "question_list", listPage{Questions: page, Query: query})
}

func (h *Handler) handleQuestionDetail(w http.ResponseWriter, r *http.Request) {
	question, ok := h.loadQuestion(w, r, "id")
	if !ok {
		return
	}
	h.renderDetail(w, r, question, validation.AnswerForm{}, nil)
}

func (h *Handler) renderDetail(w http.ResponseWriter, r *http.Request, question *domain.Question, form validation.AnswerForm, errs validation.FieldErrors) {
	answers, err := h.store.ListAnswersByQuestion(r.Context(), question.ID)
	if err != nil {
		h.serverError(w, r, "failed to list answers", err)
		return
	}

	h.render(w, r, http.StatusOK, "question_detail", detailPage{
		Question: question,
		Answers:  answers,
		Form:     form,
		Errors:   errs,
	})
}

func (h *Handler) handleQuestionCreate(w http.ResponseWriter, r *http.Request) {
	page := questionFormPage{Action: "/question/create/"}

	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, "question_form", page)
		return
	}

	page.Form = questionFormFrom(r)
	if page.Errors = validation.Validate(page.Form); page.Errors.Any() {
		h.render(w, r, http.StatusOK, "question_form", page)
		return
	}

	user := auth.FromContext(r.Context())
	question, err := domain.NewQuestion(user.UserID, page.Form.Subject, page.Form.Content, h.now())
	if err != nil {
		h.serverError(w, r, "failed to build question", err)
		return
	}
	if err := h.store.CreateQuestion(r.Context(), question); err != nil {
		h.serverError(w, r, "failed to create question", err)
		return
	}
	h.metrics.postCreated("question")

	h.logger.Info("question created", "question_id", question.ID, "user_id", user.UserID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) handleQuestionModify(w http.ResponseWriter, r *http.Request) {
	question, ok := h.loadQuestion(w, r, "id")
	if !ok {
		return
	}

	if !auth.CanModifyQuestion(auth.FromContext(r.Context()), *question) {
		flash(r, auth.MsgModifyDenied)
		http.Redirect(w, r, questionURL(question.ID), http.StatusFound)
		return
	}

	page := questionFormPage{
		Action:  "/question/modify/" + strconv.Itoa(question.ID) + "/",
		Editing: true,
	}

	if r.Method != http.MethodPost {
		page.Form = validation.QuestionForm{Subject: question.Subject, Content: question.Content}
		h.render(w, r, http.StatusOK, "question_form", page)
		return
	}

	page.Form = questionFormFrom(r)
	if page.Errors = validation.Validate(page.Form); page.Errors.Any() {
		h.render(w, r, http.StatusOK, "question_form", page)
		return
	}

	if err := question.Edit(page.Form.Subject, page.Form.Content, h.now()); err != nil {
		h.serverError(w, r, "failed to edit question", err)
		return
	}
	if err := h.store.UpdateQuestion(r.Context(), question); err != nil {
		if isNotFound(err) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, "failed to update question", err)
		return
	}

	http.Redirect(w, r, questionURL(question.ID), http.StatusFound)
}

func (h *Handler) handleQuestionDelete(w http.ResponseWriter, r *http.Request) {
	question, ok := h.loadQuestion(w, r, "id")
	if !ok {
		return
	}

	user := auth.FromContext(r.Context())
	if !auth.CanDeleteQuestion(user, *question) {
		flash(r, auth.MsgDeleteDenied)
		http.Redirect(w, r, questionURL(question.ID), http.StatusFound)
		return
	}

	if err := h.store.DeleteQuestion(r.Context(), question.ID); err != nil && !isNotFound(err) {
		h.serverError(w, r, "failed to delete question", err)
		return
	}

	h.logger.Info("question deleted", "question_id", question.ID, "user_id", user.UserID)
	http.Redirect(w, r, "/question/list/", http.StatusFound)
}

func (h *Handler) handleQuestionVote(w http.ResponseWriter, r *http.Request) {
	question, ok := h.loadQuestion(w, r, "id")
	if !ok {
		return
	}

	user := auth.FromContext(r.Context())
	if !auth.CanVoteQuestion(user, *question) {
		flash(r, auth.MsgSelfVote)
		http.Redirect(w, r, questionURL(question.ID), http.StatusFound)
		return
	}

	if err := h.store.VoteQuestion(r.Context(), question.ID, user.UserID); err != nil {
		if isNotFound(err) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, "failed to vote question", err)
		return
	}
	h.metrics.voteRecorded("question")

	http.Redirect(w, r, questionURL(question.ID), http.StatusFound)
}

// loadQuestion fetches the question named by the route parameter and writes
// a 404 page when it does not exist.
func (h *Handler) loadQuestion(w http.ResponseWriter, r *http.Request, param string) (*domain.Question, bool) {
	id, ok := urlID(r, param)
	if !ok {
		h.notFound(w, r)
		return nil, false
	}

	question, err := h.store.GetQuestion(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.notFound(w, r)
			return nil, false
		}
		h.serverError(w, r, "failed to get question", err)
		return nil, false
	}
	return question, true
}

func questionFormFrom(r *http.Request) validation.QuestionForm {
	return validation.QuestionForm{
		Subject: r.PostFormValue("subject"),
		Content: r.PostFormValue("content"),
	}
}
