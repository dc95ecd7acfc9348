package store

import (
	"context"

	"github.com/artpar/askboard/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for board entities.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// Question operations
	CreateQuestion(ctx context.Context, question *domain.Question) error
	GetQuestion(ctx context.Context, id int) (*domain.Question, error)
	UpdateQuestion(ctx context.Context, question *domain.Question) error
	DeleteQuestion(ctx context.Context, id int) error
	ListQuestions(ctx context.Context, query domain.ListQuery) (*domain.Pagination[domain.Question], error)
	CountQuestions(ctx context.Context, keyword string) (int, error)

	// Answer operations
	CreateAnswer(ctx context.Context, answer *domain.Answer) error
	GetAnswer(ctx context.Context, id int) (*domain.Answer, error)
	UpdateAnswer(ctx context.Context, answer *domain.Answer) error
	DeleteAnswer(ctx context.Context, id int) error
	ListAnswersByQuestion(ctx context.Context, questionID int) ([]domain.Answer, error)

	// Vote operations. Voting twice is a no-op.
	VoteQuestion(ctx context.Context, questionID, userID int) error
	VoteAnswer(ctx context.Context, answerID, userID int) error

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
