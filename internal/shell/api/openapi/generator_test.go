package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleModel struct {
	ID       string     `json:"-"`
	Subject  string     `json:"subject"`
	Votes    int        `json:"voter_count"`
	Created  time.Time  `json:"create_date"`
	Modified *time.Time `json:"modify_date,omitempty"`
	Flag     bool       `json:"flag"`
	hidden   string
}

func newSampleGenerator() *Generator {
	g := NewGenerator(WithTitle("Test API"), WithVersion("9.9.9"), WithServer("/api/v1"))
	g.Register(Collection{
		Name:    "questions",
		Model:   sampleModel{},
		PerPage: 10,
		Filters: []string{"kw"},
		Sorts:   []string{"recent", "recommend", "popular"},
	})
	return g
}

func TestGenerate_Info(t *testing.T) {
	doc := newSampleGenerator().Generate()

	assert.Equal(t, "Test API", doc.Info.Title)
	assert.Equal(t, "9.9.9", doc.Info.Version)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "/api/v1", doc.Servers[0].URL)
}

func TestGenerate_NoDefaultServer(t *testing.T) {
	doc := NewGenerator().Generate()
	assert.Empty(t, doc.Servers)
}

func TestGenerate_Attributes(t *testing.T) {
	doc := newSampleGenerator().Generate()

	attrs := doc.Components.Schemas["QuestionAttributes"].Value
	require.NotNil(t, attrs)
	assert.NotContains(t, attrs.Properties, "ID")
	assert.NotContains(t, attrs.Properties, "hidden")
	assert.True(t, attrs.Properties["subject"].Value.Type.Is("string"))
	assert.True(t, attrs.Properties["voter_count"].Value.Type.Is("integer"))
	assert.Equal(t, "date-time", attrs.Properties["create_date"].Value.Format)
	assert.False(t, attrs.Properties["create_date"].Value.Nullable)
	assert.True(t, attrs.Properties["modify_date"].Value.Nullable)
	assert.Equal(t, "date-time", attrs.Properties["modify_date"].Value.Format)
	assert.Nil(t, attrs.Properties["flag"].Value.Type)

	meta := doc.Components.Schemas["PaginationMeta"].Value
	for _, key := range []string{"total", "page", "per_page", "pages"} {
		assert.Contains(t, meta.Properties, key)
	}
	assert.Contains(t, doc.Components.Schemas, "QuestionListResponse")
	assert.Contains(t, doc.Components.Schemas, "QuestionResponse")
}

func TestGenerate_PathsAreRelativeToServer(t *testing.T) {
	doc := newSampleGenerator().Generate()

	assert.ElementsMatch(t, []string{"/questions", "/questions/{id}"}, doc.Paths.InMatchingOrder())
	for path := range doc.Paths.Map() {
		assert.NotContains(t, path, "/api/v1", path)
	}
}

func TestGenerate_ListOperation(t *testing.T) {
	doc := newSampleGenerator().Generate()

	list := doc.Paths.Value("/questions")
	require.NotNil(t, list)
	require.NotNil(t, list.Get)
	assert.Nil(t, list.Post)
	assert.Equal(t, "listQuestions", list.Get.OperationID)

	params := map[string]interface{}{}
	for _, p := range list.Get.Parameters {
		params[p.Value.Name] = p.Value.Schema.Value.Enum
	}
	assert.Contains(t, params, "page[number]")
	assert.Contains(t, params, "filter[kw]")
	assert.Equal(t, []interface{}{10}, params["page[size]"])
	assert.Equal(t, []interface{}{"recent", "recommend", "popular"}, params["sort"])
	assert.NotNil(t, list.Get.Responses.Status(http.StatusOK))
	assert.NotNil(t, list.Get.Responses.Status(http.StatusBadRequest))
}

func TestGenerate_GetOperation(t *testing.T) {
	doc := newSampleGenerator().Generate()

	item := doc.Paths.Value("/questions/{id}")
	require.NotNil(t, item)
	assert.Equal(t, "getQuestion", item.Get.OperationID)
	assert.Nil(t, item.Delete)
	require.Len(t, item.Parameters, 1)
	assert.Equal(t, "path", item.Parameters[0].Value.In)
	assert.NotNil(t, item.Get.Responses.Status(http.StatusNotFound))
}

func TestGenerate_CachedUntilRegister(t *testing.T) {
	g := newSampleGenerator()
	first := g.Generate()
	assert.Same(t, first, g.Generate())

	g.Register(Collection{Name: "answers", Model: sampleModel{}})
	second := g.Generate()
	assert.NotSame(t, first, second)
	assert.NotNil(t, second.Paths.Value("/answers"))
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	newSampleGenerator().Handler()(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "Question", typeName("questions"))
	assert.Equal(t, "Category", typeName("categories"))
	assert.Equal(t, "Answer", typeName("answers"))
	assert.Equal(t, "", typeName(""))
}
