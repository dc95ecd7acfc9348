package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// ParseSortMode Tests
// =============================================================================

func TestParseSortMode_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected SortMode
	}{
		{"recent", "recent", SortRecent},
		{"recommend", "recommend", SortRecommend},
		{"popular", "popular", SortPopular},
		{"empty", "", SortRecent},
		{"unknown", "oldest", SortRecent},
		{"case sensitive", "Popular", SortRecent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSortMode(tt.input))
		})
	}
}

// =============================================================================
// ParseListQuery Tests
// =============================================================================

func TestParseListQuery_Defaults(t *testing.T) {
	q := ParseListQuery(url.Values{})

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, "", q.Keyword)
	assert.Equal(t, SortRecent, q.Sort)
	assert.Equal(t, 0, q.Offset())
}

func TestParseListQuery_AllParams(t *testing.T) {
	q := ParseListQuery(url.Values{
		"page": {"3"},
		"kw":   {"  golang  "},
		"so":   {"popular"},
	})

	assert.Equal(t, 3, q.Page)
	assert.Equal(t, "golang", q.Keyword)
	assert.Equal(t, SortPopular, q.Sort)
	assert.Equal(t, 20, q.Offset())
}

func TestParseListQuery_InvalidPage(t *testing.T) {
	q := ParseListQuery(url.Values{"page": {"abc"}})
	assert.Equal(t, 1, q.Page)
}

func TestParseListQuery_PageWithSurroundingSpaces(t *testing.T) {
	q := ParseListQuery(url.Values{"page": {" 3 "}})
	assert.Equal(t, 3, q.Page)

	q = ParseListQuery(url.Values{"page": {"\t2\n"}})
	assert.Equal(t, 2, q.Page)
}

func TestParseListQuery_NegativePage(t *testing.T) {
	q := ParseListQuery(url.Values{"page": {"-4"}})
	assert.Equal(t, 1, q.Page)
}

func TestParseListQuery_HugePageIsClamped(t *testing.T) {
	q := ParseListQuery(url.Values{"page": {"9223372036854775807"}})
	assert.Equal(t, maxPage, q.Page)
	assert.Greater(t, q.Offset(), 0)
}

func TestParseListQuery_WhitespaceKeywordIsEmpty(t *testing.T) {
	q := ParseListQuery(url.Values{"kw": {"   \t "}})
	assert.Equal(t, "", q.Keyword)
}

func TestListQuery_Values_OmitsDefaults(t *testing.T) {
	assert.Empty(t, ListQuery{Page: 1, Sort: SortRecent}.Values())

	v := ListQuery{Page: 2, Keyword: "flask", Sort: SortRecommend}.Values()
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "flask", v.Get("kw"))
	assert.Equal(t, "recommend", v.Get("so"))
}
