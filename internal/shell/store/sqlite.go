package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/askboard/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// queries implements every entity operation against an executor.
// SQLiteStore and txSQLiteStore embed it with a DB or a Tx respectively.
type queries struct {
	exec executor
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	queries
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// :memory: databases are per connection.
	if isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{queries: queries{exec: db}, db: db}, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{queries: queries{exec: tx}, tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	queries
	tx *sqlx.Tx
}

// WithTx runs fn inside the current transaction.
func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *txSQLiteStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op; the transaction is owned by WithTx.
func (s *txSQLiteStore) Close() error {
	return nil
}

// =============================================================================
// User Operations
// =============================================================================

type userRow struct {
	ID       int    `db:"id"`
	Username string `db:"username"`
	Password string `db:"password"`
	Email    string `db:"email"`
}

func (q queries) CreateUser(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return NewStoreError("CreateUser", "user", "", err.Error(), ErrInvalidData)
	}

	query := `
		INSERT INTO users (username, password, email)
		VALUES (:username, :password, :email)`

	result, err := q.exec.NamedExecContext(ctx, query, map[string]any{
		"username": user.Username,
		"password": user.Password,
		"email":    user.Email,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return NewStoreError("CreateUser", "user", user.Username, "username already taken", ErrDuplicateUsername)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return NewStoreError("CreateUser", "user", user.Username, "email already registered", ErrDuplicateEmail)
		}
		return NewStoreError("CreateUser", "user", user.Username, err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateUser", "user", user.Username, err.Error(), err)
	}
	user.ID = int(id)
	return nil
}

func (q queries) GetUser(ctx context.Context, id int) (*domain.User, error) {
	var row userRow
	err := q.exec.GetContext(ctx, &row, `SELECT id, username, password, email FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUser", "user", strconv.Itoa(id), "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUser", "user", strconv.Itoa(id), err.Error(), err)
	}
	return rowToUser(&row), nil
}

func (q queries) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var row userRow
	err := q.exec.GetContext(ctx, &row, `SELECT id, username, password, email FROM users WHERE username = ?`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUserByUsername", "user", username, "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUserByUsername", "user", username, err.Error(), err)
	}
	return rowToUser(&row), nil
}

// =============================================================================
// Question Operations
// =============================================================================

// questionRow is a question joined with its author and aggregate counts.
type questionRow struct {
	ID             int     `db:"id"`
	Subject        string  `db:"subject"`
	Content        string  `db:"content"`
	CreateDate     string  `db:"create_date"`
	ModifyDate     *string `db:"modify_date"`
	UserID         int     `db:"user_id"`
	AuthorUsername string  `db:"author_username"`
	AuthorEmail    string  `db:"author_email"`
	AnswerCount    int     `db:"answer_count"`
	VoterCount     int     `db:"voter_count"`
}

const questionSelect = `
	SELECT q.id, q.subject, q.content, q.create_date, q.modify_date, q.user_id,
		u.username AS author_username, u.email AS author_email,
		COALESCE(ac.n, 0) AS answer_count,
		COALESCE(vc.n, 0) AS voter_count
	FROM questions q
	JOIN users u ON u.id = q.user_id
	LEFT JOIN (SELECT question_id, COUNT(*) AS n FROM answers GROUP BY question_id) ac
		ON ac.question_id = q.id
	LEFT JOIN (SELECT question_id, COUNT(*) AS n FROM question_voters GROUP BY question_id) vc
		ON vc.question_id = q.id`

// questionSearch selects the ids of questions whose subject, content or
// author, or any answer's content or author, contains the keyword.
// Every placeholder takes the same escaped LIKE pattern.
const questionSearch = `
	q.id IN (
		SELECT DISTINCT sq.id
		FROM questions sq
		JOIN users su ON su.id = sq.user_id
		LEFT JOIN answers sa ON sa.question_id = sq.id
		LEFT JOIN users sau ON sau.id = sa.user_id
		WHERE sq.subject LIKE ? ESCAPE '\'
			OR sq.content LIKE ? ESCAPE '\'
			OR su.username LIKE ? ESCAPE '\'
			OR sa.content LIKE ? ESCAPE '\'
			OR sau.username LIKE ? ESCAPE '\'
	)`

const searchPlaceholders = 5

func (q queries) CreateQuestion(ctx context.Context, question *domain.Question) error {
	if err := question.Validate(); err != nil {
		return NewStoreError("CreateQuestion", "question", "", err.Error(), ErrInvalidData)
	}

	query := `
		INSERT INTO questions (subject, content, create_date, modify_date, user_id)
		VALUES (:subject, :content, :create_date, :modify_date, :user_id)`

	result, err := q.exec.NamedExecContext(ctx, query, map[string]any{
		"subject":     question.Subject,
		"content":     question.Content,
		"create_date": formatTime(question.CreateDate),
		"modify_date": formatTimePtr(question.ModifyDate),
		"user_id":     question.UserID,
	})
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateQuestion", "question", "", "author does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateQuestion", "question", "", err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateQuestion", "question", "", err.Error(), err)
	}
	question.ID = int(id)
	return nil
}

func (q queries) GetQuestion(ctx context.Context, id int) (*domain.Question, error) {
	var row questionRow
	err := q.exec.GetContext(ctx, &row, questionSelect+` WHERE q.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetQuestion", "question", strconv.Itoa(id), "question not found", ErrNotFound)
		}
		return nil, NewStoreError("GetQuestion", "question", strconv.Itoa(id), err.Error(), err)
	}
	return rowToQuestion(&row)
}

func (q queries) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	if err := question.Validate(); err != nil {
		return NewStoreError("UpdateQuestion", "question", strconv.Itoa(question.ID), err.Error(), ErrInvalidData)
	}

	query := `
		UPDATE questions SET
			subject = :subject,
			content = :content,
			modify_date = :modify_date
		WHERE id = :id`

	result, err := q.exec.NamedExecContext(ctx, query, map[string]any{
		"id":          question.ID,
		"subject":     question.Subject,
		"content":     question.Content,
		"modify_date": formatTimePtr(question.ModifyDate),
	})
	if err != nil {
		return NewStoreError("UpdateQuestion", "question", strconv.Itoa(question.ID), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateQuestion", "question", strconv.Itoa(question.ID), "question not found", ErrNotFound)
	}
	return nil
}

func (q queries) DeleteQuestion(ctx context.Context, id int) error {
	result, err := q.exec.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteQuestion", "question", strconv.Itoa(id), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteQuestion", "question", strconv.Itoa(id), "question not found", ErrNotFound)
	}
	return nil
}

// ListQuestions returns one page of questions filtered by keyword and ordered
// by the sort mode. A page past the end yields an empty item list.
func (q queries) ListQuestions(ctx context.Context, lq domain.ListQuery) (*domain.Pagination[domain.Question], error) {
	lq = lq.Normalize()

	total, err := q.CountQuestions(ctx, lq.Keyword)
	if err != nil {
		return nil, err
	}

	where, args := searchClause(lq.Keyword)
	query := questionSelect + where + ` ORDER BY ` + orderClause(lq.Sort) + ` LIMIT ? OFFSET ?`
	args = append(args, domain.PerPage, lq.Offset())

	var rows []questionRow
	if err := q.exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListQuestions", "question", "", err.Error(), err)
	}

	items := make([]domain.Question, 0, len(rows))
	for i := range rows {
		question, err := rowToQuestion(&rows[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *question)
	}

	return domain.NewPagination(lq.Page, domain.PerPage, total, items), nil
}

// CountQuestions counts questions matching keyword; "" counts all.
func (q queries) CountQuestions(ctx context.Context, keyword string) (int, error) {
	where, args := searchClause(keyword)

	var total int
	if err := q.exec.GetContext(ctx, &total, `SELECT COUNT(*) FROM questions q`+where, args...); err != nil {
		return 0, NewStoreError("CountQuestions", "question", "", err.Error(), err)
	}
	return total, nil
}

func searchClause(keyword string) (string, []any) {
	if keyword == "" {
		return "", nil
	}
	pattern := "%" + escapeLike(keyword) + "%"
	args := make([]any, searchPlaceholders)
	for i := range args {
		args[i] = pattern
	}
	return ` WHERE ` + questionSearch, args
}

func orderClause(sort domain.SortMode) string {
	switch sort {
	case domain.SortRecommend:
		return `voter_count DESC, q.create_date DESC, q.id DESC`
	case domain.SortPopular:
		return `answer_count DESC, q.create_date DESC, q.id DESC`
	default:
		return `q.create_date DESC, q.id DESC`
	}
}

// escapeLike makes LIKE wildcards in s match literally under ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// =============================================================================
// Answer Operations
// =============================================================================

type answerRow struct {
	ID             int     `db:"id"`
	QuestionID     int     `db:"question_id"`
	Content        string  `db:"content"`
	CreateDate     string  `db:"create_date"`
	ModifyDate     *string `db:"modify_date"`
	UserID         int     `db:"user_id"`
	AuthorUsername string  `db:"author_username"`
	AuthorEmail    string  `db:"author_email"`
	VoterCount     int     `db:"voter_count"`
}

const answerSelect = `
	SELECT a.id, a.question_id, a.content, a.create_date, a.modify_date, a.user_id,
		u.username AS author_username, u.email AS author_email,
		(SELECT COUNT(*) FROM answer_voters av WHERE av.answer_id = a.id) AS voter_count
	FROM answers a
	JOIN users u ON u.id = a.user_id`

func (q queries) CreateAnswer(ctx context.Context, answer *domain.Answer) error {
	if err := answer.Validate(); err != nil {
		return NewStoreError("CreateAnswer", "answer", "", err.Error(), ErrInvalidData)
	}

	query := `
		INSERT INTO answers (question_id, content, create_date, modify_date, user_id)
		VALUES (:question_id, :content, :create_date, :modify_date, :user_id)`

	result, err := q.exec.NamedExecContext(ctx, query, map[string]any{
		"question_id": answer.QuestionID,
		"content":     answer.Content,
		"create_date": formatTime(answer.CreateDate),
		"modify_date": formatTimePtr(answer.ModifyDate),
		"user_id":     answer.UserID,
	})
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateAnswer", "answer", "", "question or author does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateAnswer", "answer", "", err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateAnswer", "answer", "", err.Error(), err)
	}
	answer.ID = int(id)
	return nil
}

func (q queries) GetAnswer(ctx context.Context, id int) (*domain.Answer, error) {
	var row answerRow
	err := q.exec.GetContext(ctx, &row, answerSelect+` WHERE a.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetAnswer", "answer", strconv.Itoa(id), "answer not found", ErrNotFound)
		}
		return nil, NewStoreError("GetAnswer", "answer", strconv.Itoa(id), err.Error(), err)
	}
	return rowToAnswer(&row)
}

func (q queries) UpdateAnswer(ctx context.Context, answer *domain.Answer) error {
	if err := answer.Validate(); err != nil {
		return NewStoreError("UpdateAnswer", "answer", strconv.Itoa(answer.ID), err.Error(), ErrInvalidData)
	}

	query := `
		UPDATE answers SET
			content = :content,
			modify_date = :modify_date
		WHERE id = :id`

	result, err := q.exec.NamedExecContext(ctx, query, map[string]any{
		"id":          answer.ID,
		"content":     answer.Content,
		"modify_date": formatTimePtr(answer.ModifyDate),
	})
	if err != nil {
		return NewStoreError("UpdateAnswer", "answer", strconv.Itoa(answer.ID), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("UpdateAnswer", "answer", strconv.Itoa(answer.ID), "answer not found", ErrNotFound)
	}
	return nil
}

func (q queries) DeleteAnswer(ctx context.Context, id int) error {
	result, err := q.exec.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteAnswer", "answer", strconv.Itoa(id), err.Error(), err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return NewStoreError("DeleteAnswer", "answer", strconv.Itoa(id), "answer not found", ErrNotFound)
	}
	return nil
}

// ListAnswersByQuestion returns the answers of a question, oldest first.
func (q queries) ListAnswersByQuestion(ctx context.Context, questionID int) ([]domain.Answer, error) {
	var rows []answerRow
	query := answerSelect + ` WHERE a.question_id = ? ORDER BY a.create_date ASC, a.id ASC`
	if err := q.exec.SelectContext(ctx, &rows, query, questionID); err != nil {
		return nil, NewStoreError("ListAnswersByQuestion", "answer", "", err.Error(), err)
	}

	answers := make([]domain.Answer, 0, len(rows))
	for i := range rows {
		answer, err := rowToAnswer(&rows[i])
		if err != nil {
			return nil, err
		}
		answers = append(answers, *answer)
	}
	return answers, nil
}

// =============================================================================
// Vote Operations
// =============================================================================

func (q queries) VoteQuestion(ctx context.Context, questionID, userID int) error {
	_, err := q.exec.ExecContext(ctx,
		`INSERT OR IGNORE INTO question_voters (user_id, question_id) VALUES (?, ?)`,
		userID, questionID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("VoteQuestion", "question", strconv.Itoa(questionID), "question or voter not found", ErrNotFound)
		}
		return NewStoreError("VoteQuestion", "question", strconv.Itoa(questionID), err.Error(), err)
	}
	return nil
}

func (q queries) VoteAnswer(ctx context.Context, answerID, userID int) error {
	_, err := q.exec.ExecContext(ctx,
		`INSERT OR IGNORE INTO answer_voters (user_id, answer_id) VALUES (?, ?)`,
		userID, answerID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("VoteAnswer", "answer", strconv.Itoa(answerID), "answer or voter not found", ErrNotFound)
		}
		return NewStoreError("VoteAnswer", "answer", strconv.Itoa(answerID), err.Error(), err)
	}
	return nil
}

// =============================================================================
// Row Conversion
// =============================================================================

func rowToUser(row *userRow) *domain.User {
	return &domain.User{
		ID:       row.ID,
		Username: row.Username,
		Password: row.Password,
		Email:    row.Email,
	}
}

func rowToQuestion(row *questionRow) (*domain.Question, error) {
	created, err := parseTime(row.CreateDate)
	if err != nil {
		return nil, NewStoreError("rowToQuestion", "question", strconv.Itoa(row.ID), "failed to parse create_date", ErrInvalidData)
	}
	modified, err := parseTimePtr(row.ModifyDate)
	if err != nil {
		return nil, NewStoreError("rowToQuestion", "question", strconv.Itoa(row.ID), "failed to parse modify_date", ErrInvalidData)
	}

	return &domain.Question{
		ID:          row.ID,
		Subject:     row.Subject,
		Content:     row.Content,
		CreateDate:  created,
		ModifyDate:  modified,
		UserID:      row.UserID,
		Author:      domain.User{ID: row.UserID, Username: row.AuthorUsername, Email: row.AuthorEmail},
		AnswerCount: row.AnswerCount,
		VoterCount:  row.VoterCount,
	}, nil
}

func rowToAnswer(row *answerRow) (*domain.Answer, error) {
	created, err := parseTime(row.CreateDate)
	if err != nil {
		return nil, NewStoreError("rowToAnswer", "answer", strconv.Itoa(row.ID), "failed to parse create_date", ErrInvalidData)
	}
	modified, err := parseTimePtr(row.ModifyDate)
	if err != nil {
		return nil, NewStoreError("rowToAnswer", "answer", strconv.Itoa(row.ID), "failed to parse modify_date", ErrInvalidData)
	}

	return &domain.Answer{
		ID:         row.ID,
		QuestionID: row.QuestionID,
		Content:    row.Content,
		CreateDate: created,
		ModifyDate: modified,
		UserID:     row.UserID,
		Author:     domain.User{ID: row.UserID, Username: row.AuthorUsername, Email: row.AuthorEmail},
		VoterCount: row.VoterCount,
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
