// Package domain contains the core domain types of the board.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"strings"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrSubjectRequired = errors.New("subject is required")
	ErrSubjectTooLong  = errors.New("subject must be at most 200 characters")
	ErrContentRequired = errors.New("content is required")
	ErrAuthorRequired  = errors.New("author is required")
	ErrQuestionMissing = errors.New("question is required")
)

// MaxSubjectLength is the column width of question.subject.
const MaxSubjectLength = 200

// =============================================================================
// Question
// =============================================================================

// Question is a post that opens a discussion thread.
type Question struct {
	ID         int
	Subject    string
	Content    string
	CreateDate time.Time
	ModifyDate *time.Time
	UserID     int

	// Read-side fields filled by the store.
	Author      User
	AnswerCount int
	VoterCount  int
}

// NewQuestion creates a question authored by userID at now.
func NewQuestion(userID int, subject, content string, now time.Time) (*Question, error) {
	q := &Question{
		Subject:    subject,
		Content:    content,
		CreateDate: now,
		UserID:     userID,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Validate checks the invariants the database relies on.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Subject) == "" {
		return ErrSubjectRequired
	}
	if len([]rune(q.Subject)) > MaxSubjectLength {
		return ErrSubjectTooLong
	}
	if strings.TrimSpace(q.Content) == "" {
		return ErrContentRequired
	}
	if q.UserID <= 0 {
		return ErrAuthorRequired
	}
	return nil
}

// Edit replaces subject and content and stamps the modification time.
func (q *Question) Edit(subject, content string, now time.Time) error {
	prevSubject, prevContent := q.Subject, q.Content
	q.Subject = subject
	q.Content = content
	if err := q.Validate(); err != nil {
		q.Subject, q.Content = prevSubject, prevContent
		return err
	}
	q.ModifyDate = &now
	return nil
}

// IsAuthor reports whether userID wrote the question.
func (q Question) IsAuthor(userID int) bool {
	return userID > 0 && q.UserID == userID
}
