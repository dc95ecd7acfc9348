package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// =============================================================================
// Sort Modes
// =============================================================================

// SortMode selects the ordering of the question list.
type SortMode string

const (
	// SortRecent orders by creation date, newest first.
	SortRecent SortMode = "recent"
	// SortRecommend orders by number of voters, then newest first.
	SortRecommend SortMode = "recommend"
	// SortPopular orders by number of answers, then newest first.
	SortPopular SortMode = "popular"
)

// ParseSortMode maps a raw "so" value to a SortMode.
// Unknown and empty values fall back to SortRecent.
func ParseSortMode(raw string) SortMode {
	switch SortMode(raw) {
	case SortRecommend:
		return SortRecommend
	case SortPopular:
		return SortPopular
	default:
		return SortRecent
	}
}

// IsValid reports whether s is one of the known sort modes.
func (s SortMode) IsValid() bool {
	switch s {
	case SortRecent, SortRecommend, SortPopular:
		return true
	default:
		return false
	}
}

// =============================================================================
// List Query
// =============================================================================

// PerPage is the fixed page size of the question list.
const PerPage = 10

// maxPage keeps (page-1)*PerPage well inside int range.
const maxPage = 1 << 30

// ListQuery holds the parsed parameters of a question list request.
type ListQuery struct {
	Page    int
	Keyword string
	Sort    SortMode
}

// ParseListQuery reads page, kw and so from query values.
//
// A missing or non-numeric page becomes 1, the keyword is trimmed, and an
// unknown sort mode becomes SortRecent. The result is already normalized.
func ParseListQuery(values url.Values) ListQuery {
	page := 1
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	return ListQuery{
		Page:    page,
		Keyword: strings.TrimSpace(values.Get("kw")),
		Sort:    ParseSortMode(values.Get("so")),
	}.Normalize()
}

// Normalize clamps the page into [1, maxPage] and fills a default sort mode.
// Out-of-range pages never error; they simply produce an empty page.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > maxPage {
		q.Page = maxPage
	}
	if !q.Sort.IsValid() {
		q.Sort = SortRecent
	}
	return q
}

// Offset returns the row offset of the first item on the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * PerPage
}

// Values encodes the query back into URL values, omitting defaults.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Keyword != "" {
		v.Set("kw", q.Keyword)
	}
	if q.Sort != "" && q.Sort != SortRecent {
		v.Set("so", string(q.Sort))
	}
	return v
}
