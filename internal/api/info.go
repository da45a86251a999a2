package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/service"
)

type InfoHandler struct {
	source string
	area   string
	bus    *service.EventBus
}

func NewInfoHandler(source, area string, bus *service.EventBus) *InfoHandler {
	return &InfoHandler{source: source, area: area, bus: bus}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Source   string   `json:"source" doc:"Where map assets are fetched from"`
	Area     string   `json:"area" doc:"Initially selected area"`
	Features []string `json:"features" doc:"Available features"`
	Streams  int      `json:"streams" doc:"Open viewer event streams"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	body := InfoBody{
		Name:     "plat-map",
		Version:  Version,
		Source:   h.source,
		Area:     h.area,
		Features: []string{"timeline", "svg-maps", "legend", "geojson", "datastar"},
	}
	if h.bus != nil {
		body.Streams = h.bus.Subscribers()
	}
	return &struct{ Body InfoBody }{Body: body}, nil
}
