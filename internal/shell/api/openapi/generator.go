// Package openapi generates the OpenAPI 3.0 document of the board API by
// reflecting on the registered JSON:API models.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

const mediaType = "application/vnd.api+json"

// Collection describes a read-only JSON:API collection. Its paths are
// relative to the server URLs given with WithServer.
type Collection struct {
	Name    string      // Resource type name, also the path segment ("questions")
	Model   interface{} // Struct whose json-tagged fields are the attributes
	PerPage int         // Fixed page size
	Filters []string    // filter[name] query parameters
	Sorts   []string    // Values accepted by sort; the first is the default
}

// Generator builds and caches the OpenAPI document.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string

	mu          sync.Mutex
	collections []Collection
	doc         *openapi3.T
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) { g.title = title }
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) { g.version = version }
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(g *Generator) { g.description = description }
}

// WithServer adds a server URL that every path is resolved against.
func WithServer(url string) Option {
	return func(g *Generator) { g.servers = append(g.servers, url) }
}

// NewGenerator creates a generator with no collections.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:   "askboard API",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds a collection and drops the cached document.
func (g *Generator) Register(c Collection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.collections = append(g.collections, c)
	g.doc = nil
}

// Generate returns the document, building it on first use.
func (g *Generator) Generate() *openapi3.T {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.doc == nil {
		g.doc = g.build()
	}
	return g.doc
}

// Handler serves the document as JSON.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(g.Generate()); err != nil {
			http.Error(w, "Failed to encode OpenAPI document", http.StatusInternalServerError)
		}
	}
}

func (g *Generator) build() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Paths: &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Error":           errorSchema(),
				"PaginationMeta":  paginationMetaSchema(),
				"PaginationLinks": paginationLinksSchema(),
			},
		},
	}
	for _, url := range g.servers {
		doc.Servers = append(doc.Servers, &openapi3.Server{URL: url})
	}

	for _, c := range g.collections {
		addCollection(doc, c)
	}
	return doc
}

// =============================================================================
// Collections
// =============================================================================

func addCollection(doc *openapi3.T, c Collection) {
	name := typeName(c.Name)

	doc.Components.Schemas[name+"Attributes"] = attributesSchema(c.Model)
	doc.Components.Schemas[name] = object(openapi3.Schemas{
		"type":       schema(&openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: []interface{}{c.Name}}),
		"id":         typed("string", ""),
		"attributes": ref(name + "Attributes"),
	}, "type", "id")
	doc.Components.Schemas[name+"Response"] = object(openapi3.Schemas{
		"data": ref(name),
	})
	doc.Components.Schemas[name+"ListResponse"] = object(openapi3.Schemas{
		"data":  schema(&openapi3.Schema{Type: &openapi3.Types{"array"}, Items: ref(name)}),
		"links": ref("PaginationLinks"),
		"meta":  ref("PaginationMeta"),
	})

	doc.Paths.Set("/"+c.Name, &openapi3.PathItem{
		Get: listOperation(c, name),
	})
	doc.Paths.Set("/"+c.Name+"/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema())},
		},
		Get: getOperation(c, name),
	})
}

func listOperation(c Collection, name string) *openapi3.Operation {
	params := openapi3.Parameters{
		queryParam("page[number]", "Page to return; pages past the end are empty",
			&openapi3.Schema{Type: &openapi3.Types{"integer"}, Default: 1}),
	}
	if c.PerPage > 0 {
		params = append(params, queryParam("page[size]", "Only "+strconv.Itoa(c.PerPage)+" is accepted",
			&openapi3.Schema{Type: &openapi3.Types{"integer"}, Enum: []interface{}{c.PerPage}, Default: c.PerPage}))
	}
	for _, f := range c.Filters {
		params = append(params, queryParam("filter["+f+"]", "Case-insensitive substring match on "+f,
			openapi3.NewStringSchema()))
	}
	if len(c.Sorts) > 0 {
		enum := make([]interface{}, 0, len(c.Sorts))
		for _, s := range c.Sorts {
			enum = append(enum, s)
		}
		params = append(params, queryParam("sort", "Ordering; unknown values use the default",
			&openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: enum, Default: c.Sorts[0]}))
	}

	return &openapi3.Operation{
		OperationID: "list" + upperFirst(c.Name),
		Summary:     "List " + c.Name,
		Tags:        []string{upperFirst(c.Name)},
		Parameters:  params,
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, response("A page of "+c.Name, name+"ListResponse")),
			openapi3.WithStatus(http.StatusBadRequest, response("Unsupported pagination", "Error")),
		),
	}
}

func getOperation(c Collection, name string) *openapi3.Operation {
	return &openapi3.Operation{
		OperationID: "get" + name,
		Summary:     "Get one " + strings.ToLower(name),
		Tags:        []string{upperFirst(c.Name)},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, response("The "+strings.ToLower(name), name+"Response")),
			openapi3.WithStatus(http.StatusNotFound, response("No such "+strings.ToLower(name), "Error")),
		),
	}
}

// =============================================================================
// Schemas
// =============================================================================

var timeType = reflect.TypeOf(time.Time{})

// attributesSchema reflects the json-tagged exported fields of model.
// Fields tagged "-" (the JSON:API id) are skipped.
func attributesSchema(model interface{}) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	props := openapi3.Schemas{}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if !field.IsExported() || tag == "-" {
			continue
		}
		if tag == "" {
			tag = field.Name
		}
		props[tag] = fieldSchema(field.Type)
	}
	return object(props)
}

// fieldSchema maps the attribute types the API exposes. Anything else is
// published as an untyped schema.
func fieldSchema(t reflect.Type) *openapi3.SchemaRef {
	if t.Kind() == reflect.Ptr {
		s := fieldSchema(t.Elem())
		s.Value.Nullable = true
		return s
	}
	switch {
	case t == timeType:
		return typed("string", "date-time")
	case t.Kind() == reflect.String:
		return typed("string", "")
	case t.Kind() >= reflect.Int && t.Kind() <= reflect.Int64:
		return typed("integer", "")
	default:
		return schema(&openapi3.Schema{})
	}
}

func errorSchema() *openapi3.SchemaRef {
	item := object(openapi3.Schemas{
		"status": typed("string", ""),
		"title":  typed("string", ""),
		"detail": typed("string", ""),
	})
	return object(openapi3.Schemas{
		"errors": schema(&openapi3.Schema{Type: &openapi3.Types{"array"}, Items: item}),
	})
}

func paginationMetaSchema() *openapi3.SchemaRef {
	return object(openapi3.Schemas{
		"total":    typed("integer", ""),
		"page":     typed("integer", ""),
		"per_page": typed("integer", ""),
		"pages":    typed("integer", ""),
		"sort":     typed("string", ""),
	})
}

func paginationLinksSchema() *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	for _, rel := range []string{"first", "prev", "next", "last"} {
		props[rel] = typed("string", "uri-reference")
	}
	return object(props)
}

// =============================================================================
// Helpers
// =============================================================================

func schema(s *openapi3.Schema) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: s}
}

func typed(typ, format string) *openapi3.SchemaRef {
	return schema(&openapi3.Schema{Type: &openapi3.Types{typ}, Format: format})
}

func object(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return schema(&openapi3.Schema{Type: &openapi3.Types{"object"}, Properties: props, Required: required})
}

func ref(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: "#/components/schemas/" + name}
}

func queryParam(name, description string, s *openapi3.Schema) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewQueryParameter(name).WithDescription(description).WithSchema(s),
	}
}

func response(description, schemaName string) *openapi3.ResponseRef {
	content := openapi3.NewContentWithSchemaRef(ref(schemaName), []string{mediaType})
	return &openapi3.ResponseRef{
		Value: openapi3.NewResponse().WithDescription(description).WithContent(content),
	}
}

// typeName turns a plural collection name into a schema name:
// "questions" -> "Question", "categories" -> "Category".
func typeName(collection string) string {
	s := collection
	switch {
	case strings.HasSuffix(s, "ies"):
		s = s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "s"):
		s = s[:len(s)-1]
	}
	return upperFirst(s)
}

func upperFirst(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
