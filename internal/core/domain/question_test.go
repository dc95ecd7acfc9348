package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Question Tests
// =============================================================================

func TestNewQuestion_Success(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	q, err := NewQuestion(7, "How do I paginate?", "Details here", now)
	require.NoError(t, err)

	assert.Equal(t, "How do I paginate?", q.Subject)
	assert.Equal(t, "Details here", q.Content)
	assert.Equal(t, 7, q.UserID)
	assert.Equal(t, now, q.CreateDate)
	assert.Nil(t, q.ModifyDate)
}

func TestNewQuestion_Validation(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		userID  int
		subject string
		content string
		err     error
	}{
		{"empty subject", 1, "", "body", ErrSubjectRequired},
		{"blank subject", 1, "   ", "body", ErrSubjectRequired},
		{"long subject", 1, strings.Repeat("x", MaxSubjectLength+1), "body", ErrSubjectTooLong},
		{"empty content", 1, "subject", "", ErrContentRequired},
		{"no author", 0, "subject", "body", ErrAuthorRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuestion(tt.userID, tt.subject, tt.content, now)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewQuestion_SubjectLengthCountsRunes(t *testing.T) {
	subject := strings.Repeat("질", MaxSubjectLength)
	_, err := NewQuestion(1, subject, "body", time.Now())
	assert.NoError(t, err)
}

func TestQuestion_Edit(t *testing.T) {
	q, err := NewQuestion(1, "old", "old body", time.Now())
	require.NoError(t, err)

	edited := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, q.Edit("new", "new body", edited))

	assert.Equal(t, "new", q.Subject)
	assert.Equal(t, "new body", q.Content)
	require.NotNil(t, q.ModifyDate)
	assert.Equal(t, edited, *q.ModifyDate)
}

func TestQuestion_Edit_InvalidKeepsOriginal(t *testing.T) {
	q, err := NewQuestion(1, "old", "old body", time.Now())
	require.NoError(t, err)

	err = q.Edit("", "new body", time.Now())
	assert.ErrorIs(t, err, ErrSubjectRequired)
	assert.Equal(t, "old", q.Subject)
	assert.Equal(t, "old body", q.Content)
	assert.Nil(t, q.ModifyDate)
}

func TestQuestion_IsAuthor(t *testing.T) {
	q := Question{UserID: 3}

	assert.True(t, q.IsAuthor(3))
	assert.False(t, q.IsAuthor(4))
	assert.False(t, Question{}.IsAuthor(0))
}

// =============================================================================
// Answer Tests
// =============================================================================

func TestNewAnswer_Success(t *testing.T) {
	a, err := NewAnswer(5, 2, "Use LIMIT/OFFSET", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 5, a.QuestionID)
	assert.Equal(t, 2, a.UserID)
}

func TestNewAnswer_Validation(t *testing.T) {
	_, err := NewAnswer(0, 1, "body", time.Now())
	assert.ErrorIs(t, err, ErrQuestionMissing)

	_, err = NewAnswer(1, 1, " ", time.Now())
	assert.ErrorIs(t, err, ErrContentRequired)

	_, err = NewAnswer(1, 0, "body", time.Now())
	assert.ErrorIs(t, err, ErrAuthorRequired)
}

func TestAnswer_Edit(t *testing.T) {
	a, err := NewAnswer(1, 1, "first", time.Now())
	require.NoError(t, err)

	require.NoError(t, a.Edit("second", time.Now()))
	assert.Equal(t, "second", a.Content)
	assert.NotNil(t, a.ModifyDate)

	assert.Error(t, a.Edit("", time.Now()))
	assert.Equal(t, "second", a.Content)
}

// =============================================================================
// User Tests
// =============================================================================

func TestUser_Validate(t *testing.T) {
	assert.NoError(t, User{Username: "kim", Email: "kim@example.com"}.Validate())
	assert.ErrorIs(t, User{Email: "kim@example.com"}.Validate(), ErrUsernameRequired)
	assert.ErrorIs(t, User{Username: "kim"}.Validate(), ErrEmailRequired)
}
