package resources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/artpar/askboard/internal/core/domain"
	"github.com/artpar/askboard/internal/shell/store"
	"github.com/manyminds/api2go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupResource(t *testing.T) (*QuestionResource, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewQuestionResource(s), s
}

func newRequest(params map[string][]string) api2go.Request {
	return api2go.Request{
		PlainRequest: httptest.NewRequest(http.MethodGet, "/v1/questions", nil),
		QueryParams:  params,
	}
}

func TestListQueryFromParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string][]string
		want   domain.ListQuery
	}{
		{
			name:   "defaults",
			params: nil,
			want:   domain.ListQuery{Page: 1, Sort: domain.SortRecent},
		},
		{
			name:   "all set",
			params: map[string][]string{"page[number]": {"3"}, "filter[kw]": {" go "}, "sort": {"popular"}},
			want:   domain.ListQuery{Page: 3, Keyword: "go", Sort: domain.SortPopular},
		},
		{
			name:   "keyword with comma is rejoined",
			params: map[string][]string{"filter[kw]": {"a", "b"}},
			want:   domain.ListQuery{Page: 1, Keyword: "a,b", Sort: domain.SortRecent},
		},
		{
			name:   "bad page and unknown sort",
			params: map[string][]string{"page[number]": {"x"}, "sort": {"oldest"}},
			want:   domain.ListQuery{Page: 1, Sort: domain.SortRecent},
		},
		{
			name:   "negative page",
			params: map[string][]string{"page[number]": {"-4"}},
			want:   domain.ListQuery{Page: 1, Sort: domain.SortRecent},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ListQueryFromParams(tt.params))
		})
	}
}

func TestQuestionResource_FindAllAndOne(t *testing.T) {
	res, s := setupResource(t)
	ctx := context.Background()

	user := &domain.User{Username: "alice", Password: "hash", Email: "alice@example.com"}
	require.NoError(t, s.CreateUser(ctx, user))
	q, err := domain.NewQuestion(user.ID, "How do channels work?", "body", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, s.CreateQuestion(ctx, q))

	resp, err := res.FindAll(newRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	items := resp.Result().([]Question)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].Author)
	assert.Equal(t, 1, resp.Metadata()["pages"])

	total, _, err := res.PaginatedFindAll(newRequest(map[string][]string{"page[number]": {"1"}, "page[size]": {"10"}}))
	require.NoError(t, err)
	assert.Equal(t, uint(1), total)

	one, err := res.FindOne(items[0].GetID(), newRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "How do channels work?", one.Result().(Question).Subject)
}

func TestQuestionResource_RejectsOtherPageSizes(t *testing.T) {
	res, _ := setupResource(t)

	tests := []map[string][]string{
		{"page[number]": {"1"}, "page[size]": {"5"}},
		{"page[size]": {"abc"}},
		{"page[offset]": {"0"}, "page[limit]": {"10"}},
	}
	for _, params := range tests {
		_, resp, err := res.PaginatedFindAll(newRequest(params))
		require.Error(t, err, params)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode(), params)

		var httpErr api2go.HTTPError
		assert.True(t, errors.As(err, &httpErr), params)
	}

	resp, err := res.FindAll(newRequest(map[string][]string{"page[size]": {"10"}}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}

func TestQuestionResource_FindOneNotFound(t *testing.T) {
	res, _ := setupResource(t)

	resp, err := res.FindOne("42", newRequest(nil))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	var httpErr api2go.HTTPError
	require.True(t, errors.As(err, &httpErr))
}

func TestQuestionResource_ReadOnly(t *testing.T) {
	res, _ := setupResource(t)

	resp, err := res.Create(&Question{}, newRequest(nil))
	assert.Error(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode())

	resp, err = res.Update(&Question{ID: "1"}, newRequest(nil))
	assert.Error(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode())

	resp, err = res.Delete("1", newRequest(nil))
	assert.Error(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode())
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, isNotFound(nil))
	assert.True(t, isNotFound(store.ErrNotFound))
	assert.True(t, isNotFound(store.NewStoreError("GetQuestion", "question", "1", "not found", store.ErrNotFound)))
	assert.False(t, isNotFound(errors.New("boom")))
}
