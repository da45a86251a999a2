// Package api defines the Huma REST routes and handlers of the map viewer.
package api

import (
	"context"
	"fmt"
	"slices"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/markers"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/timeline"
	"github.com/joeblew999/plat-map/internal/viewer"
)

// Version is the API version reported by /health and /api/v1/info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Session *viewer.Session
	Assets  *service.AssetService
}

// Types

type YearBody struct {
	Year string `json:"year" minLength:"1" doc:"Year label" example:"2013"`
}

type YearsBody struct {
	Years []string `json:"years" doc:"Year labels in display order" example:"[\"2013\",\"2025\"]"`
}

type CategoryInput struct {
	Category string `path:"category" enum:"exploration,production,decommissioning" doc:"Marker category"`
}

type MarkersInput struct {
	Category string `query:"category" enum:"exploration,production,decommissioning" doc:"Only markers of this category"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// TimelineBody is the timeline state. Its Link headers advertise the
// operations that make sense in the current state.
type TimelineBody struct {
	timeline.State
	Speeds []timeline.Speed `json:"speeds" doc:"Speeds in cycling order"`
}

type TimelineOutput struct {
	Body TimelineBody
}

// Actions implements humastar.Actor.
func (b TimelineBody) Actions() []humastar.Action {
	play := humastar.Action{Rel: "play", Href: "/api/v1/timeline/play", Method: "POST", Title: "Start playback"}
	if b.Playing {
		play.Rel, play.Title = "pause", "Pause playback"
	}
	return []humastar.Action{
		play,
		{Rel: "speed", Href: "/api/v1/timeline/speed", Method: "POST", Title: "Set speed to " + b.Speed.Next().String()},
		{Rel: "language", Href: "/api/v1/timeline/language", Method: "POST", Title: "Toggle language"},
		{Rel: "select", Href: "/api/v1/timeline/select", Method: "POST", Title: "Select a year"},
	}
}

type LegendItem struct {
	Category markers.Category `json:"category" doc:"Marker category"`
	Visible  bool             `json:"visible" doc:"Whether the category is shown"`
	Count    int              `json:"count" doc:"Markers of the category on the displayed map"`
	Bounds   geojson.BBox     `json:"bounds,omitempty" doc:"Extent of the positioned markers as [minX, minY, maxX, maxY]"`
}

// LegendBody lists every category with its visibility and marker count.
type LegendBody struct {
	Year  string       `json:"year" doc:"Year of the displayed map"`
	Items []LegendItem `json:"items"`
}

type LegendOutput struct {
	Body LegendBody
}

var toggleCategory = humastar.ActionDef{
	Rel: "toggle", Pattern: "/api/v1/legend/%s/toggle", Method: "POST",
}

// Actions implements humastar.Actor.
func (b LegendBody) Actions() []humastar.Action {
	actions := make([]humastar.Action, 0, len(b.Items))
	for _, it := range b.Items {
		a := toggleCategory.For(string(it.Category))
		a.Rel = "toggle-" + string(it.Category)
		if it.Visible {
			a.Title = "Hide " + string(it.Category)
		} else {
			a.Title = "Show " + string(it.Category)
		}
		actions = append(actions, a)
	}
	return actions
}

type MapsBody struct {
	Source  string             `json:"source" doc:"Where map assets are fetched from"`
	Assets  []service.MapAsset `json:"assets" doc:"SVG files in the asset directory"`
	Missing []string           `json:"missing" doc:"Mapped files absent from the asset directory"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterTimeline registers the timeline controller routes.
func (h *APIHandler) RegisterTimeline(api huma.API) {
	huma.Get(api, "/api/v1/timeline", h.GetTimeline, huma.OperationTags("timeline"))
	huma.Post(api, "/api/v1/timeline/select", h.SelectYear, huma.OperationTags("timeline"))
	huma.Post(api, "/api/v1/timeline/play", h.TogglePlay, huma.OperationTags("timeline"))
	huma.Post(api, "/api/v1/timeline/speed", h.CycleSpeed, huma.OperationTags("timeline"))
	huma.Post(api, "/api/v1/timeline/language", h.ToggleLanguage, huma.OperationTags("timeline"))
	huma.Put(api, "/api/v1/timeline/selected", h.PutSelected, huma.OperationTags("timeline"))
	huma.Put(api, "/api/v1/timeline/years", h.PutYears, huma.OperationTags("timeline"))
	huma.Put(api, "/api/v1/timeline/available", h.PutAvailable, huma.OperationTags("timeline"))
}

// RegisterLegend registers legend routes.
func (h *APIHandler) RegisterLegend(api huma.API) {
	huma.Get(api, "/api/v1/legend", h.GetLegend, huma.OperationTags("legend"))
	huma.Post(api, "/api/v1/legend/{category}/toggle", h.ToggleLegend, huma.OperationTags("legend"))
}

// RegisterMarkers registers the marker export route.
func (h *APIHandler) RegisterMarkers(api huma.API) {
	huma.Get(api, "/api/v1/markers", h.GetMarkers, huma.OperationTags("legend"))
}

// RegisterMaps registers map asset listing routes.
func (h *APIHandler) RegisterMaps(api huma.API) {
	huma.Get(api, "/api/v1/maps", h.GetMaps, huma.OperationTags("maps"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) GetTimeline(ctx context.Context, input *struct{}) (*TimelineOutput, error) {
	return h.timeline(), nil
}

func (h *APIHandler) SelectYear(ctx context.Context, input *struct{ Body YearBody }) (*TimelineOutput, error) {
	if !h.svc.Session.Timeline().SelectYear(input.Body.Year) {
		return nil, huma.Error409Conflict(fmt.Sprintf("year %q is not available", input.Body.Year))
	}
	return h.timeline(), nil
}

func (h *APIHandler) TogglePlay(ctx context.Context, input *struct{}) (*TimelineOutput, error) {
	h.svc.Session.Timeline().TogglePlay()
	return h.timeline(), nil
}

func (h *APIHandler) CycleSpeed(ctx context.Context, input *struct{}) (*TimelineOutput, error) {
	h.svc.Session.Timeline().CycleSpeed()
	return h.timeline(), nil
}

func (h *APIHandler) ToggleLanguage(ctx context.Context, input *struct{}) (*TimelineOutput, error) {
	h.svc.Session.Timeline().ToggleLanguage()
	return h.timeline(), nil
}

func (h *APIHandler) PutSelected(ctx context.Context, input *struct{ Body YearBody }) (*TimelineOutput, error) {
	h.svc.Session.SetYear(ctx, input.Body.Year)
	return h.timeline(), nil
}

func (h *APIHandler) PutYears(ctx context.Context, input *struct{ Body YearsBody }) (*TimelineOutput, error) {
	h.svc.Session.SetYears(input.Body.Years)
	return h.timeline(), nil
}

func (h *APIHandler) PutAvailable(ctx context.Context, input *struct{ Body YearsBody }) (*TimelineOutput, error) {
	st := h.svc.Session.Timeline().State()
	for _, y := range input.Body.Years {
		if !slices.Contains(st.Years, y) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("year %q is not on the timeline", y))
		}
	}
	h.svc.Session.SetAvailableYears(input.Body.Years)
	return h.timeline(), nil
}

func (h *APIHandler) GetLegend(ctx context.Context, input *struct{}) (*LegendOutput, error) {
	return h.legend(), nil
}

func (h *APIHandler) ToggleLegend(ctx context.Context, input *CategoryInput) (*LegendOutput, error) {
	c, err := markers.ParseCategory(input.Category)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	h.svc.Session.ToggleLegend(c)
	return h.legend(), nil
}

func (h *APIHandler) GetMarkers(ctx context.Context, input *MarkersInput) (*struct{ Body *geojson.FeatureCollection }, error) {
	fc := h.svc.Session.Features()
	if input.Category != "" {
		filtered := geojson.NewFeatureCollection()
		for _, f := range fc.Features {
			if f.Properties.MustString("category", "") == input.Category {
				filtered.Append(f)
			}
		}
		fc = filtered
	}
	return &struct{ Body *geojson.FeatureCollection }{Body: fc}, nil
}

func (h *APIHandler) GetMaps(ctx context.Context, input *struct{}) (*struct{ Body MapsBody }, error) {
	body := MapsBody{Assets: []service.MapAsset{}, Missing: []string{}}
	if maps := h.svc.Session.Maps(); maps != nil {
		body.Source = maps.Source().String()
	}
	if h.svc.Assets == nil {
		return &struct{ Body MapsBody }{Body: body}, nil
	}

	assets, err := h.svc.Assets.List()
	if err != nil {
		return nil, huma.Error500InternalServerError("listing map assets", err)
	}
	missing, err := h.svc.Assets.Missing()
	if err != nil {
		return nil, huma.Error500InternalServerError("listing map assets", err)
	}
	body.Assets = assets
	if missing != nil {
		body.Missing = missing
	}
	return &struct{ Body MapsBody }{Body: body}, nil
}

func (h *APIHandler) timeline() *TimelineOutput {
	return &TimelineOutput{Body: TimelineBody{
		State:  h.svc.Session.Timeline().State(),
		Speeds: timeline.Speeds(),
	}}
}

func (h *APIHandler) legend() *LegendOutput {
	s := h.svc.Session
	v := s.Legend()
	counts := map[markers.Category]int{}
	if s.Maps() != nil {
		counts = s.Maps().Counts()
	}

	body := LegendBody{Year: s.Year()}
	for _, c := range markers.Categories() {
		item := LegendItem{Category: c, Visible: v.Visible(c), Count: counts[c]}
		if s.Maps() != nil {
			if b, ok := s.Maps().Bounds(c); ok {
				item.Bounds = geojson.NewBBox(b)
			}
		}
		body.Items = append(body.Items, item)
	}
	return &LegendOutput{Body: body}
}
