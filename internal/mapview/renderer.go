package mapview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-map/internal/markers"
)

// DefaultFallback is the asset shown for years without a mapping.
const DefaultFallback = "2025.svg"

// DefaultFiles maps year labels to asset names.
var DefaultFiles = map[string]string{
	"Pre2013":  "Pre2013.svg",
	"PRÉ 2013": "Pre2013.svg",
	"2013":     "2013.svg",
	"2025":     "2025.svg",
}

// Files resolves a year label to an asset name.
type Files struct {
	Mapping  map[string]string
	Fallback string
}

// DefaultFileMap returns the built-in year mapping.
func DefaultFileMap() Files {
	return Files{Mapping: maps.Clone(DefaultFiles), Fallback: DefaultFallback}
}

// Resolve returns the asset for year, or the fallback when unmapped.
func (f Files) Resolve(year string) string {
	if name, ok := f.Mapping[year]; ok && name != "" {
		return name
	}
	if f.Fallback != "" {
		return f.Fallback
	}
	return DefaultFallback
}

// Renderer holds the currently displayed map.
type Renderer struct {
	source Source
	files  Files
	logger *slog.Logger

	mu    sync.Mutex
	seq   uint64 // last requested load
	shown uint64 // load currently displayed
	year  string
	asset string
	doc   *markers.Document
}

// NewRenderer creates a renderer with nothing displayed.
func NewRenderer(source Source, files Files, logger *slog.Logger) *Renderer {
	if files.Mapping == nil {
		files = DefaultFileMap()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{source: source, files: files, logger: logger}
}

// Files returns the year mapping in use.
func (r *Renderer) Files() Files {
	return r.files
}

// Source returns the asset source.
func (r *Renderer) Source() Source {
	return r.source
}

// Load fetches and parses the map for year without displaying it.
func (r *Renderer) Load(ctx context.Context, year string) (*markers.Document, error) {
	name := r.files.Resolve(year)
	data, err := r.source.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	doc, err := markers.Parse(bytes.NewReader(data))
	if errors.Is(err, markers.ErrNoSVG) {
		return nil, fmt.Errorf("%w: %s", ErrMissingContainer, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}

// Show loads the map for year and displays it. Failures are logged and the
// previous map stays displayed. When loads overlap, a load never replaces
// the result of a later request.
func (r *Renderer) Show(ctx context.Context, year string) bool {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	doc, err := r.Load(ctx, year)
	if err != nil {
		r.logger.Error("failed to load map", "year", year, "asset", r.files.Resolve(year), "error", err)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq < r.shown {
		r.logger.Debug("discarding superseded map", "year", year)
		return false
	}
	r.shown = seq
	r.year = year
	r.asset = r.files.Resolve(year)
	r.doc = doc
	r.logger.Info("map loaded", "year", year, "asset", r.asset, "pins", doc.Counts())
	return true
}

// Current returns the displayed year and asset name.
func (r *Renderer) Current() (year, asset string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.year, r.asset, r.doc != nil
}

// Render applies visibility to the displayed map and returns its markup.
// It returns an empty string when nothing is displayed.
func (r *Renderer) Render(v markers.Visibility) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return ""
	}
	r.doc.Apply(v)
	html, err := r.doc.Markup()
	if err != nil {
		r.logger.Error("failed to render map", "year", r.year, "asset", r.asset, "error", err)
		return ""
	}
	return html
}

// Counts returns the pin counts of the displayed map.
func (r *Renderer) Counts() map[markers.Category]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return map[markers.Category]int{}
	}
	return r.doc.Counts()
}

// Bounds returns the extent of the displayed pins of c.
func (r *Renderer) Bounds(c markers.Category) (orb.Bound, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return orb.Bound{}, false
	}
	return r.doc.Bounds(c)
}

// Features exports the displayed pins after applying visibility.
func (r *Renderer) Features(v markers.Visibility) *geojson.FeatureCollection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return geojson.NewFeatureCollection()
	}
	r.doc.Apply(v)
	return r.doc.FeatureCollection()
}
