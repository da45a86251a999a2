// Package viewer holds the page-level state of the map viewer: the selected
// area and year, the legend and the language. It owns the timeline
// controller and forwards its selection changes to the map renderer.
package viewer

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-map/internal/config"
	"github.com/joeblew999/plat-map/internal/mapview"
	"github.com/joeblew999/plat-map/internal/markers"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/timeline"
)

// loadTimeout bounds a single map load triggered by a selection.
const loadTimeout = 30 * time.Second

// Session is the state of one viewer. It is safe for concurrent use.
type Session struct {
	logger *slog.Logger
	bus    *service.EventBus
	maps   *mapview.Renderer
	tl     *timeline.Controller

	mu        sync.RWMutex
	area      string
	year      string
	legend    markers.Visibility
	languages []string
}

// Options configures a Session.
type Options struct {
	Config config.Config
	Maps   *mapview.Renderer
	Bus    *service.EventBus
	Clock  clock.Clock
	Logger *slog.Logger
}

// New creates a session from the configuration. Call Start to load the
// initial map.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Bus == nil {
		opts.Bus = service.NewEventBus()
	}
	cfg := opts.Config
	if cfg.Timeline == nil {
		cfg = config.Default()
	}

	s := &Session{
		logger:    opts.Logger,
		bus:       opts.Bus,
		maps:      opts.Maps,
		area:      cfg.Area,
		year:      cfg.Timeline.SelectedYear,
		legend:    cfg.Visibility(),
		languages: slices.Clone(cfg.Languages),
	}

	tlOpts := cfg.TimelineOptions()
	tlOpts.Clock = opts.Clock
	tlOpts.Logger = opts.Logger
	s.tl = timeline.New(tlOpts, timeline.Handlers{
		OnYearSelect:     s.onYearSelect,
		OnPlay:           s.onPlay,
		OnSpeedChange:    s.onSpeedChange,
		OnLanguageChange: s.onLanguageChange,
	})
	return s
}

// Start loads the map of the initial year.
func (s *Session) Start(ctx context.Context) {
	s.showMap(ctx, s.Year())
}

// Close stops playback.
func (s *Session) Close() {
	s.tl.Close()
}

// Timeline returns the controller driven by this session.
func (s *Session) Timeline() *timeline.Controller {
	return s.tl
}

// Bus returns the event bus the session publishes to.
func (s *Session) Bus() *service.EventBus {
	return s.bus
}

// Maps returns the map renderer.
func (s *Session) Maps() *mapview.Renderer {
	return s.maps
}

// Year returns the selected year as known to the page.
func (s *Session) Year() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.year
}

// Area returns the selected area.
func (s *Session) Area() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.area
}

// Legend returns a copy of the legend visibility.
func (s *Session) Legend() markers.Visibility {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := markers.Visibility{}
	for k, v := range s.legend {
		out[k] = v
	}
	return out
}

// ToggleLegend flips the visibility of one category.
func (s *Session) ToggleLegend(c markers.Category) bool {
	s.mu.Lock()
	s.legend = s.legend.Toggle(c)
	on := s.legend.Visible(c)
	s.mu.Unlock()

	s.logger.Info("legend toggled", "category", c, "visible", on)
	s.publish(service.ResourceLegend, string(c), boolValue(on))
	return on
}

// SelectArea changes the selected area.
func (s *Session) SelectArea(area string) {
	s.mu.Lock()
	s.area = area
	s.mu.Unlock()

	s.publish(service.ResourceArea, "selected", area)
}

// SetYear overrides the selected year from outside the timeline, the way
// the page owner pushes a new value down to the controller.
func (s *Session) SetYear(ctx context.Context, year string) {
	s.mu.Lock()
	s.year = year
	s.mu.Unlock()

	s.tl.SetSelectedYear(year)
	s.publish(service.ResourceTimeline, "year", year)
	s.showMap(ctx, year)
}

// SetYears replaces the display sequence of the timeline. An empty
// sequence restores the default years.
func (s *Session) SetYears(years []string) {
	s.tl.SetYears(years)
	s.publish(service.ResourceTimeline, "years", strings.Join(s.tl.State().Years, ","))
}

// SetAvailableYears restricts the selectable years. An empty subset lifts
// the restriction.
func (s *Session) SetAvailableYears(years []string) {
	s.tl.SetAvailableYears(years)
	s.publish(service.ResourceTimeline, "available", strings.Join(years, ","))
}

// MapHTML returns the displayed map with the legend applied.
func (s *Session) MapHTML() string {
	if s.maps == nil {
		return ""
	}
	return s.maps.Render(s.Legend())
}

// Features returns the pins of the displayed map as GeoJSON.
func (s *Session) Features() *geojson.FeatureCollection {
	if s.maps == nil {
		return geojson.NewFeatureCollection()
	}
	return s.maps.Features(s.Legend())
}

func (s *Session) onYearSelect(year string) {
	s.mu.Lock()
	s.year = year
	s.mu.Unlock()

	s.tl.SetSelectedYear(year)
	s.publish(service.ResourceTimeline, "year", year)

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	s.showMap(ctx, year)
}

func (s *Session) onPlay() {
	s.publish(service.ResourceTimeline, "play", boolValue(s.tl.Playing()))
}

func (s *Session) onSpeedChange(speed timeline.Speed) {
	s.publish(service.ResourceTimeline, "speed", speed.String())
}

// onLanguageChange advances to the language after current.
func (s *Session) onLanguageChange(current string) {
	s.mu.RLock()
	next := current
	if len(s.languages) > 0 {
		i := slices.Index(s.languages, current)
		next = s.languages[(i+1)%len(s.languages)]
	}
	s.mu.RUnlock()

	s.tl.SetLanguage(next)
	s.publish(service.ResourceTimeline, "language", next)
}

func (s *Session) showMap(ctx context.Context, year string) {
	if s.maps == nil {
		return
	}
	if s.maps.Show(ctx, year) {
		s.publish(service.ResourceMap, "loaded", year)
	}
}

func (s *Session) publish(resource, action, value string) {
	s.bus.Publish(service.Event{Resource: resource, Action: action, Value: value})
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
