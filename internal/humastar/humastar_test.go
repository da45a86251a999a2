package humastar

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemInput struct {
	Category string `path:"category"`
}

type itemBody struct {
	Category string `json:"category"`
	Visible  bool   `json:"visible"`
}

func (b itemBody) Actions() []Action {
	title := "Hide " + b.Category
	if !b.Visible {
		title = "Show " + b.Category
	}
	return []Action{toggleItem.For(b.Category).withTitle(title)}
}

var toggleItem = ActionDef{Rel: "toggle", Pattern: "/api/v1/legend/%s/toggle", Method: http.MethodPost}

func (a Action) withTitle(t string) Action {
	a.Title = t
	return a
}

type itemOutput struct {
	Body itemBody
}

func newLinkedAPI(t *testing.T) (humatest.TestAPI, *Links) {
	t.Helper()
	links := NewLinks("viewer")
	cfg := huma.DefaultConfig("test", "1.0.0")
	cfg.Transformers = append(cfg.Transformers, links.Transformer())
	_, api := humatest.New(t, cfg)

	empty := func(ctx context.Context, _ *EmptyInput) (*struct{}, error) { return &struct{}{}, nil }
	huma.Get(api, "/health", empty, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/legend", empty, huma.OperationTags("legend"))
	huma.Get(api, "/api/v1/legend/{category}", func(ctx context.Context, in *itemInput) (*itemOutput, error) {
		return &itemOutput{Body: itemBody{Category: in.Category, Visible: in.Category != "production"}}, nil
	}, huma.OperationTags("legend"))
	huma.Get(api, "/api/v1/viewer/stream", empty, huma.OperationTags("viewer"))

	links.AutoLinks(api)
	return api, links
}

func TestAutoLinks(t *testing.T) {
	_, links := newLinkedAPI(t)

	root := links.Root()
	assert.Contains(t, root, `</api/v1/legend>; rel="legend"`)
	assert.Contains(t, root, `</openapi.json>; rel="service-desc"`)
	for _, l := range root {
		assert.NotContains(t, l, "/api/v1/viewer")
	}

	assert.Contains(t, links.For("/api/v1/legend"), `</health>; rel="up"`)
	assert.Contains(t, links.For("/api/v1/legend/{category}"), `</api/v1/legend>; rel="collection"`)
	assert.Empty(t, links.For("/api/v1/viewer/stream"))
}

func TestAutoLinks_DocumentsResponses(t *testing.T) {
	api, _ := newLinkedAPI(t)

	op := api.OpenAPI().Paths["/api/v1/legend/{category}"].Get
	require.NotNil(t, op)
	resp := op.Responses["200"]
	require.NotNil(t, resp)
	require.Contains(t, resp.Links, "collection")
	assert.Equal(t, "/api/v1/legend", resp.Links["collection"].OperationRef)
}

func TestTransformer(t *testing.T) {
	api, _ := newLinkedAPI(t)

	resp := api.Get("/api/v1/legend/production")
	require.Equal(t, http.StatusOK, resp.Code)

	links := strings.Join(resp.Header().Values("Link"), ",")
	assert.Contains(t, links, `</api/v1/legend/production>; rel="self"`)
	assert.Contains(t, links, `</api/v1/legend>; rel="up"`)
	assert.Contains(t, links, `</api/v1/legend/production/toggle>; rel="toggle"; method="POST"; title="Show production"`)

	resp = api.Get("/api/v1/viewer/stream")
	assert.Empty(t, resp.Header().Values("Link"))
}

func TestActionDefEscapesKey(t *testing.T) {
	a := ActionDef{Rel: "select", Pattern: "/api/v1/viewer/timeline/years/%s", Method: http.MethodPost}.For("PRÉ 2013")
	assert.Equal(t, "/api/v1/viewer/timeline/years/PR%C3%89%202013", a.Href)
	assert.Equal(t, `</api/v1/viewer/timeline/years/PR%C3%89%202013>; rel="select"; method="POST"`, a.LinkHeader())
}

func TestSignals(t *testing.T) {
	in := &SignalsInput{RawBody: []byte(`{"area":"santos","count":3}`)}
	signals, err := in.MustParse()
	require.NoError(t, err)
	assert.Equal(t, "santos", signals.String("area"))
	assert.Empty(t, signals.String("count"))
	assert.True(t, signals.Has("count"))
	assert.False(t, signals.Has("year"))

	_, err = (&SignalsInput{RawBody: []byte(`{`)}).MustParse()
	var se huma.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.GetStatus())
}
