// Package viewer contains the Datastar SSE handlers of the viewer page.
package viewer

import (
	"html/template"

	"github.com/joeblew999/plat-map/internal/markers"
	"github.com/joeblew999/plat-map/internal/timeline"
	session "github.com/joeblew999/plat-map/internal/viewer"
)

// Fragment targets on the viewer page.
const (
	TimelineSelector = "#timeline"
	MapSelector      = "#map"
	LegendSelector   = "#legend"
)

var categoryLabels = map[markers.Category]string{
	markers.Exploration:     "Exploration",
	markers.Production:      "Production",
	markers.Decommissioning: "Decommissioning",
}

// MapView is the data of the map-view fragment.
type MapView struct {
	Year  string
	Asset string
	SVG   template.HTML
}

// LegendEntry is one row of the legend fragment.
type LegendEntry struct {
	Category markers.Category
	Label    string
	Visible  bool
	Count    int
}

// LegendView is the data of the legend fragment.
type LegendView struct {
	Items []LegendEntry
}

// PageData is the data of the viewer page.
type PageData struct {
	Title    string
	Area     string
	Map      MapView
	Legend   LegendView
	Timeline timeline.State
}

func mapView(s *session.Session) MapView {
	v := MapView{SVG: template.HTML(s.MapHTML())}
	if maps := s.Maps(); maps != nil {
		v.Year, v.Asset, _ = maps.Current()
	}
	return v
}

func legendView(s *session.Session) LegendView {
	vis := s.Legend()
	counts := map[markers.Category]int{}
	if maps := s.Maps(); maps != nil {
		counts = maps.Counts()
	}

	var v LegendView
	for _, c := range markers.Categories() {
		v.Items = append(v.Items, LegendEntry{
			Category: c,
			Label:    categoryLabels[c],
			Visible:  vis.Visible(c),
			Count:    counts[c],
		})
	}
	return v
}

func pageData(s *session.Session) PageData {
	return PageData{
		Title:    "plat-map: " + s.Area(),
		Area:     s.Area(),
		Map:      mapView(s),
		Legend:   legendView(s),
		Timeline: s.Timeline().State(),
	}
}
