package domain

import (
	"strings"
	"time"
)

// Answer is a reply attached to a question.
type Answer struct {
	ID         int
	QuestionID int
	Content    string
	CreateDate time.Time
	ModifyDate *time.Time
	UserID     int

	Author     User
	VoterCount int
}

// NewAnswer creates an answer to questionID authored by userID.
func NewAnswer(questionID, userID int, content string, now time.Time) (*Answer, error) {
	a := &Answer{
		QuestionID: questionID,
		Content:    content,
		CreateDate: now,
		UserID:     userID,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the invariants the database relies on.
func (a *Answer) Validate() error {
	if a.QuestionID <= 0 {
		return ErrQuestionMissing
	}
	if strings.TrimSpace(a.Content) == "" {
		return ErrContentRequired
	}
	if a.UserID <= 0 {
		return ErrAuthorRequired
	}
	return nil
}

// Edit replaces the content and stamps the modification time.
func (a *Answer) Edit(content string, now time.Time) error {
	prev := a.Content
	a.Content = content
	if err := a.Validate(); err != nil {
		a.Content = prev
		return err
	}
	a.ModifyDate = &now
	return nil
}

// IsAuthor reports whether userID wrote the answer.
func (a Answer) IsAuthor(userID int) bool {
	return userID > 0 && a.UserID == userID
}
