package resources

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/askboard/internal/core/domain"
	"github.com/artpar/askboard/internal/shell/store"
	"github.com/manyminds/api2go"
)

// =============================================================================
// Question JSON:API Model
// =============================================================================

// Question is the JSON:API view of domain.Question.
type Question struct {
	ID          string     `json:"-"`
	Subject     string     `json:"subject"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	AnswerCount int        `json:"answer_count"`
	VoterCount  int        `json:"voter_count"`
	CreateDate  time.Time  `json:"create_date"`
	ModifyDate  *time.Time `json:"modify_date,omitempty"`
}

// GetID returns the question ID for JSON:API.
func (q Question) GetID() string {
	return q.ID
}

// SetID sets the question ID for JSON:API.
func (q *Question) SetID(id string) error {
	q.ID = id
	return nil
}

// GetName returns the JSON:API resource type name.
func (q Question) GetName() string {
	return "questions"
}

// QuestionFromDomain converts a domain.Question to a JSON:API Question.
func QuestionFromDomain(q *domain.Question) Question {
	return Question{
		ID:          strconv.Itoa(q.ID),
		Subject:     q.Subject,
		Content:     q.Content,
		Author:      q.Author.Username,
		AnswerCount: q.AnswerCount,
		VoterCount:  q.VoterCount,
		CreateDate:  q.CreateDate,
		ModifyDate:  q.ModifyDate,
	}
}

// =============================================================================
// Question Resource
// =============================================================================

// QuestionResource serves the question list and detail over JSON:API.
// Writes go through the HTML forms, so the mutating methods answer 405.
type QuestionResource struct {
	Store store.Store
}

// NewQuestionResource creates a new question resource.
func NewQuestionResource(s store.Store) *QuestionResource {
	return &QuestionResource{Store: s}
}

// ListQueryFromParams maps page[number], filter[kw] and sort onto the same
// parsing rules the HTML list uses for page, kw and so.
func ListQueryFromParams(params map[string][]string) domain.ListQuery {
	values := url.Values{}
	// api2go splits every parameter on commas.
	if v, ok := params["page[number]"]; ok && len(v) > 0 {
		values.Set("page", v[0])
	}
	if v, ok := params["filter[kw]"]; ok {
		values.Set("kw", strings.Join(v, ","))
	}
	if v, ok := params["sort"]; ok && len(v) > 0 {
		values.Set("so", v[0])
	}
	return domain.ParseListQuery(values)
}

// FindAll returns one page of questions.
// GET /api/v1/questions?page[number]=N&filter[kw]=K&sort=S
func (r QuestionResource) FindAll(req api2go.Request) (api2go.Responder, error) {
	if err := checkPageParams(req.QueryParams); err != nil {
		return &Response{Code: http.StatusBadRequest}, err
	}
	query := ListQueryFromParams(req.QueryParams)

	page, err := r.Store.ListQuestions(req.PlainRequest.Context(), query)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	result := make([]Question, 0, len(page.Items))
	for i := range page.Items {
		result = append(result, QuestionFromDomain(&page.Items[i]))
	}

	return &Response{
		Code: http.StatusOK,
		Res:  result,
		Meta: map[string]interface{}{
			"total":    page.Total,
			"page":     page.Page,
			"per_page": page.PerPage,
			"pages":    page.Pages(),
			"sort":     string(query.Sort),
		},
	}, nil
}

// PaginatedFindAll serves requests that carry both page[number] and
// page[size]. api2go builds the pagination links from page[size], so any
// size other than domain.PerPage is rejected by FindAll.
func (r QuestionResource) PaginatedFindAll(req api2go.Request) (uint, api2go.Responder, error) {
	resp, err := r.FindAll(req)
	if err != nil {
		return 0, resp, err
	}
	total, _ := resp.Metadata()["total"].(int)
	return uint(total), resp, nil
}

// FindOne returns a single question by ID.
// GET /api/v1/questions/{id}
func (r QuestionResource) FindOne(id string, req api2go.Request) (api2go.Responder, error) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 1 {
		return &Response{Code: http.StatusNotFound}, questionNotFound(id)
	}

	question, err := r.Store.GetQuestion(req.PlainRequest.Context(), n)
	if err != nil {
		if isNotFound(err) {
			return &Response{Code: http.StatusNotFound}, questionNotFound(id)
		}
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{
		Code: http.StatusOK,
		Res:  QuestionFromDomain(question),
	}, nil
}

// Create is not available over the API.
func (r QuestionResource) Create(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	return &Response{Code: http.StatusMethodNotAllowed}, readOnly()
}

// Update is not available over the API.
func (r QuestionResource) Update(obj interface{}, req api2go.Request) (api2go.Responder, error) {
	return &Response{Code: http.StatusMethodNotAllowed}, readOnly()
}

// Delete is not available over the API.
func (r QuestionResource) Delete(id string, req api2go.Request) (api2go.Responder, error) {
	return &Response{Code: http.StatusMethodNotAllowed}, readOnly()
}

// checkPageParams accepts page[size] only when it equals domain.PerPage and
// rejects offset based paging.
func checkPageParams(params map[string][]string) error {
	if v, ok := params["page[size]"]; ok && len(v) > 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(v[0])); err != nil || n != domain.PerPage {
			return api2go.NewHTTPError(
				fmt.Errorf("page[size] must be %d, got %q", domain.PerPage, v[0]),
				"Unsupported page size",
				http.StatusBadRequest,
			)
		}
	}
	for _, key := range []string{"page[offset]", "page[limit]"} {
		if _, ok := params[key]; ok {
			return api2go.NewHTTPError(
				fmt.Errorf("%s is not supported, use page[number]", key),
				"Unsupported pagination",
				http.StatusBadRequest,
			)
		}
	}
	return nil
}

func questionNotFound(id string) error {
	return api2go.NewHTTPError(
		fmt.Errorf("question %s not found", id),
		"Question not found",
		http.StatusNotFound,
	)
}

func readOnly() error {
	return api2go.NewHTTPError(
		fmt.Errorf("questions are read-only over the API"),
		"Method not allowed",
		http.StatusMethodNotAllowed,
	)
}
