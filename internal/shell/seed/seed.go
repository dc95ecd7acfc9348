// Package seed fills a board store with fixture or generated data.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/artpar/askboard/internal/core/crypto"
	"github.com/artpar/askboard/internal/core/domain"
	"github.com/artpar/askboard/internal/shell/store"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Fixture Types
// =============================================================================

// Fixture is the YAML document read by Load.
type Fixture struct {
	Users     []UserFixture     `yaml:"users"`
	Questions []QuestionFixture `yaml:"questions"`
}

// UserFixture is a user with a plain-text password; it is hashed on insert.
type UserFixture struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
}

// QuestionFixture is a question with its answers and voters.
type QuestionFixture struct {
	Author  string          `yaml:"author"`
	Subject string          `yaml:"subject"`
	Content string          `yaml:"content"`
	Created *time.Time      `yaml:"created,omitempty"`
	Voters  []string        `yaml:"voters,omitempty"`
	Answers []AnswerFixture `yaml:"answers,omitempty"`
}

// AnswerFixture is an answer to the enclosing question.
type AnswerFixture struct {
	Author  string     `yaml:"author"`
	Content string     `yaml:"content"`
	Created *time.Time `yaml:"created,omitempty"`
	Voters  []string   `yaml:"voters,omitempty"`
}

// Summary counts the rows a seed run inserted.
type Summary struct {
	Users     int
	Questions int
	Answers   int
	Votes     int
}

// ErrUnknownAuthor is returned when a fixture names a user that neither the
// fixture nor the store contains.
var ErrUnknownAuthor = errors.New("unknown author")

// =============================================================================
// Loading
// =============================================================================

// Parse decodes a fixture document. Unknown keys are rejected.
func Parse(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// LoadFile reads the fixture at path and inserts it with Load.
func LoadFile(ctx context.Context, s store.Store, path string, now time.Time) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Load(ctx, s, f, now)
}

// Load inserts the fixture in a single transaction; any failure leaves the
// store unchanged. Entries without a created time are spaced one minute
// apart ending at now, in document order.
func Load(ctx context.Context, s store.Store, f *Fixture, now time.Time) (*Summary, error) {
	sum := &Summary{}
	stamps := timestamps(f, now)

	err := s.WithTx(ctx, func(tx store.Store) error {
		users := make(map[string]int)
		lookup := func(username string) (int, error) {
			if id, ok := users[username]; ok {
				return id, nil
			}
			u, err := tx.GetUserByUsername(ctx, username)
			if err != nil {
				if store.IsNotFound(err) {
					return 0, fmt.Errorf("%w: %q", ErrUnknownAuthor, username)
				}
				return 0, err
			}
			users[username] = u.ID
			return u.ID, nil
		}

		for _, uf := range f.Users {
			hash, err := crypto.HashPassword(uf.Password)
			if err != nil {
				return fmt.Errorf("hash password for %q: %w", uf.Username, err)
			}
			u := &domain.User{Username: uf.Username, Password: hash, Email: uf.Email}
			if err := u.Validate(); err != nil {
				return fmt.Errorf("user %q: %w", uf.Username, err)
			}
			if err := tx.CreateUser(ctx, u); err != nil {
				return err
			}
			users[u.Username] = u.ID
			sum.Users++
		}

		for _, qf := range f.Questions {
			authorID, err := lookup(qf.Author)
			if err != nil {
				return err
			}
			q, err := domain.NewQuestion(authorID, qf.Subject, qf.Content, stamps.next(qf.Created))
			if err != nil {
				return fmt.Errorf("question %q: %w", qf.Subject, err)
			}
			if err := tx.CreateQuestion(ctx, q); err != nil {
				return err
			}
			sum.Questions++

			for _, voter := range qf.Voters {
				id, err := lookup(voter)
				if err != nil {
					return err
				}
				if err := tx.VoteQuestion(ctx, q.ID, id); err != nil {
					return err
				}
				sum.Votes++
			}

			for _, af := range qf.Answers {
				authorID, err := lookup(af.Author)
				if err != nil {
					return err
				}
				a, err := domain.NewAnswer(q.ID, authorID, af.Content, stamps.next(af.Created))
				if err != nil {
					return fmt.Errorf("answer to %q: %w", qf.Subject, err)
				}
				if err := tx.CreateAnswer(ctx, a); err != nil {
					return err
				}
				sum.Answers++

				for _, voter := range af.Voters {
					id, err := lookup(voter)
					if err != nil {
						return err
					}
					if err := tx.VoteAnswer(ctx, a.ID, id); err != nil {
						return err
					}
					sum.Votes++
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// =============================================================================
// Generation
// =============================================================================

// GeneratedContent is the body of every generated question.
const GeneratedContent = "No content."

// Generate creates n numbered questions authored by username, the oldest
// first, so "Test data [000]" ends up last on the recent list.
func Generate(ctx context.Context, s store.Store, username string, n int, now time.Time) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	created := 0
	err := s.WithTx(ctx, func(tx store.Store) error {
		author, err := tx.GetUserByUsername(ctx, username)
		if err != nil {
			if store.IsNotFound(err) {
				return fmt.Errorf("%w: %q", ErrUnknownAuthor, username)
			}
			return err
		}
		start := now.Add(-time.Duration(n-1) * time.Second)
		for i := 0; i < n; i++ {
			subject := fmt.Sprintf("Test data [%03d]", i)
			q, err := domain.NewQuestion(author.ID, subject, GeneratedContent, start.Add(time.Duration(i)*time.Second))
			if err != nil {
				return err
			}
			if err := tx.CreateQuestion(ctx, q); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// =============================================================================
// Helpers
// =============================================================================

type clock struct {
	t time.Time
}

// timestamps starts the implicit clock so that the last undated entry lands
// on now.
func timestamps(f *Fixture, now time.Time) *clock {
	undated := 0
	for _, q := range f.Questions {
		if q.Created == nil {
			undated++
		}
		for _, a := range q.Answers {
			if a.Created == nil {
				undated++
			}
		}
	}
	if undated == 0 {
		return &clock{t: now}
	}
	return &clock{t: now.Add(-time.Duration(undated-1) * time.Minute)}
}

func (c *clock) next(explicit *time.Time) time.Time {
	if explicit != nil {
		return *explicit
	}
	t := c.t
	c.t = c.t.Add(time.Minute)
	return t
}
