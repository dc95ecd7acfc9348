package web

import (
	"net/http"
	"strconv"

	"github.com/artpar/askboard/internal/core/auth"
	"github.com/artpar/askboard/internal/core/domain"
	"github.com/artpar/askboard/internal/core/validation"
)

// =============================================================================
// Answer Handlers
// =============================================================================

func (h *Handler) handleAnswerCreate(w http.ResponseWriter, r *http.Request) {
	question, ok := h.loadQuestion(w, r, "question_id")
	if !ok {
		return
	}

	form := validation.AnswerForm{Content: r.PostFormValue("content")}
	if errs := validation.Validate(form); errs.Any() {
		h.renderDetail(w, r, question, form, errs)
		return
	}

	user := auth.FromContext(r.Context())
	answer, err := domain.NewAnswer(question.ID, user.UserID, form.Content, h.now())
	if err != nil {
		h.serverError(w, r, "failed to build answer", err)
		return
	}
	if err := h.store.CreateAnswer(r.Context(), answer); err != nil {
		h.serverError(w, r, "failed to create answer", err)
		return
	}
	h.metrics.postCreated("answer")

	http.Redirect(w, r, answerURL(question.ID, answer.ID), http.StatusFound)
}

func (h *Handler) handleAnswerModify(w http.ResponseWriter, r *http.Request) {
	answer, ok := h.loadAnswer(w, r)
	if !ok {
		return
	}

	if !auth.CanModifyAnswer(auth.FromContext(r.Context()), *answer) {
		flash(r, auth.MsgModifyDenied)
		http.Redirect(w, r, questionURL(answer.QuestionID), http.StatusFound)
		return
	}

	page := answerFormPage{Action: "/answer/modify/" + strconv.Itoa(answer.ID)}

	if r.Method != http.MethodPost {
		page.Form = validation.AnswerForm{Content: answer.Content}
		h.render(w, r, http.StatusOK, "answer_form", page)
		return
	}

	page.Form = validation.AnswerForm{Content: r.PostFormValue("content")}
	if page.Errors = validation.Validate(page.Form); page.Errors.Any() {
		h.render(w, r, http.StatusOK, "answer_form", page)
		return
	}

	if err := answer.Edit(page.Form.Content, h.now()); err != nil {
		h.serverError(w, r, "failed to edit answer", err)
		return
	}
	if err := h.store.UpdateAnswer(r.Context(), answer); err != nil {
		if isNotFound(err) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, "failed to update answer", err)
		return
	}

	http.Redirect(w, r, answerURL(answer.QuestionID, answer.ID), http.StatusFound)
}

func (h *Handler) handleAnswerDelete(w http.ResponseWriter, r *http.Request) {
	answer, ok := h.loadAnswer(w, r)
	if !ok {
		return
	}

	if !auth.CanDeleteAnswer(auth.FromContext(r.Context()), *answer) {
		flash(r, auth.MsgDeleteDenied)
		http.Redirect(w, r, questionURL(answer.QuestionID), http.StatusFound)
		return
	}

	if err := h.store.DeleteAnswer(r.Context(), answer.ID); err != nil && !isNotFound(err) {
		h.serverError(w, r, "failed to delete answer", err)
		return
	}

	http.Redirect(w, r, questionURL(answer.QuestionID), http.StatusFound)
}

func (h *Handler) handleAnswerVote(w http.ResponseWriter, r *http.Request) {
	answer, ok := h.loadAnswer(w, r)
	if !ok {
		return
	}

	user := auth.FromContext(r.Context())
	if !auth.CanVoteAnswer(user, *answer) {
		flash(r, auth.MsgSelfVote)
		http.Redirect(w, r, answerURL(answer.QuestionID, answer.ID), http.StatusFound)
		return
	}

	if err := h.store.VoteAnswer(r.Context(), answer.ID, user.UserID); err != nil {
		if isNotFound(err) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, "failed to vote answer", err)
		return
	}
	h.metrics.voteRecorded("answer")

	http.Redirect(w, r, answerURL(answer.QuestionID, answer.ID), http.StatusFound)
}

func (h *Handler) loadAnswer(w http.ResponseWriter, r *http.Request) (*domain.Answer, bool) {
	id, ok := urlID(r, "id")
	if !ok {
		h.notFound(w, r)
		return nil, false
	}

	answer, err := h.store.GetAnswer(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.notFound(w, r)
			return nil, false
		}
		h.serverError(w, r, "failed to get answer", err)
		return nil, false
	}
	return answer, true
}
