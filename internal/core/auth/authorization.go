package auth

import "github.com/artpar/askboard/internal/core/domain"

// =============================================================================
// Denial Messages
// =============================================================================

// Messages flashed to the user when an action is refused.
const (
	MsgModifyDenied = "You do not have permission to modify this post."
	MsgDeleteDenied = "You do not have permission to delete this post."
	MsgSelfVote     = "You cannot recommend your own post."
)

// =============================================================================
// Question Authorization
// =============================================================================

// CanModifyQuestion checks if the user can modify a question.
// Only the author can modify their question.
func CanModifyQuestion(ctx Context, q domain.Question) bool {
	return ctx.Authenticated && q.IsAuthor(ctx.UserID)
}

// CanDeleteQuestion checks if the user can delete a question.
// Only the author can delete their question.
func CanDeleteQuestion(ctx Context, q domain.Question) bool {
	return ctx.Authenticated && q.IsAuthor(ctx.UserID)
}

// CanVoteQuestion checks if the user can recommend a question.
// Any logged-in user except the author may vote.
func CanVoteQuestion(ctx Context, q domain.Question) bool {
	return ctx.Authenticated && !q.IsAuthor(ctx.UserID)
}

// =============================================================================
// Answer Authorization
// =============================================================================

// CanModifyAnswer checks if the user can modify an answer.
func CanModifyAnswer(ctx Context, a domain.Answer) bool {
	return ctx.Authenticated && a.IsAuthor(ctx.UserID)
}

// CanDeleteAnswer checks if the user can delete an answer.
func CanDeleteAnswer(ctx Context, a domain.Answer) bool {
	return ctx.Authenticated && a.IsAuthor(ctx.UserID)
}

// CanVoteAnswer checks if the user can recommend an answer.
func CanVoteAnswer(ctx Context, a domain.Answer) bool {
	return ctx.Authenticated && !a.IsAuthor(ctx.UserID)
}
