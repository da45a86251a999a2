package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/markers"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/templates"
	session "github.com/joeblew999/plat-map/internal/viewer"
)

// Handler serves the viewer page and its SSE endpoints.
type Handler struct {
	humastar.Handler
	session *session.Session
	logger  *slog.Logger
}

// NewHandler creates a viewer handler over a session.
func NewHandler(s *session.Session, renderer *templates.Renderer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		session: s,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/viewer/stream", h.Events, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/timeline/years/{year}", h.SelectYear, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/timeline/play", h.TogglePlay, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/timeline/speed", h.CycleSpeed, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/timeline/language", h.ToggleLanguage, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/legend/{category}", h.ToggleLegend, huma.OperationTags("viewer"))
	huma.Post(api, "/api/v1/viewer/area", h.SelectArea, huma.OperationTags("viewer"))
}

// ServePage renders the full viewer page.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	html, err := h.Renderer.Render("viewer", pageData(h.session))
	if err != nil {
		h.logger.Error("failed to render viewer page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// Events patches every fragment on connect, then again on each session
// event until the client disconnects.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		bus := h.session.Bus()
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		h.patchTimeline(sse)
		h.patchMap(sse)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				switch ev.Resource {
				case service.ResourceTimeline:
					h.patchTimeline(sse)
				case service.ResourceMap, service.ResourceLegend:
					h.patchMap(sse)
				case service.ResourceArea:
					sse.Signals(map[string]any{"area": ev.Value})
				}
				sse.DispatchCustomEvent("viewer-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"value":    ev.Value,
				})
			}
		}
	}), nil
}

type YearInput struct {
	Year string `path:"year" doc:"Year label"`
}

func (h *Handler) SelectYear(ctx context.Context, input *YearInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if !h.session.Timeline().SelectYear(input.Year) {
			sse.Error(fmt.Sprintf("Year %s is not available", input.Year))
			return
		}
		h.patchTimeline(sse)
		h.patchMap(sse)
	}), nil
}

func (h *Handler) TogglePlay(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.session.Timeline().TogglePlay()
		h.patchTimeline(sse)
	}), nil
}

func (h *Handler) CycleSpeed(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.session.Timeline().CycleSpeed()
		h.patchTimeline(sse)
	}), nil
}

func (h *Handler) ToggleLanguage(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.session.Timeline().ToggleLanguage()
		h.patchTimeline(sse)
	}), nil
}

type CategoryInput struct {
	Category string `path:"category" enum:"exploration,production,decommissioning" doc:"Marker category"`
}

func (h *Handler) ToggleLegend(ctx context.Context, input *CategoryInput) (*huma.StreamResponse, error) {
	c, err := markers.ParseCategory(input.Category)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		h.session.ToggleLegend(c)
		h.patchMap(sse)
	}), nil
}

func (h *Handler) SelectArea(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	area := signals.String("area")
	if area == "" {
		return nil, huma.Error400BadRequest("Area is required")
	}
	return h.Stream(func(sse humastar.SSE) {
		h.session.SelectArea(area)
		sse.Signals(map[string]any{"area": area})
	}), nil
}

func (h *Handler) patchTimeline(sse humastar.SSE) {
	sse.Patch(h.Fragment("timeline", h.session.Timeline().State()), TimelineSelector)
}

// patchMap refreshes the map and the legend, whose counts follow the map.
func (h *Handler) patchMap(sse humastar.SSE) {
	sse.Patch(h.Fragment("map-view", mapView(h.session)), MapSelector)
	sse.Patch(h.Fragment("legend", legendView(h.session)), LegendSelector)
}
