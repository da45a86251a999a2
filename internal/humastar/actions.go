package humastar

import (
	"fmt"
	"net/url"
)

// Action is a state-dependent hypermedia action link.
// Response bodies implement the Actor interface to emit conditional
// RFC 8288 Link headers with method and title extension parameters.
//
// Example Link header output:
//
//	</api/v1/timeline/play>; rel="pause"; method="POST"; title="Pause playback"
type Action struct {
	Rel    string // custom rel (e.g., "play", "select")
	Href   string // target URL
	Method string // HTTP method: POST, PUT, DELETE, etc.
	Title  string // optional human-readable label
}

// Actor is implemented by response bodies that provide state-dependent actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 Link header value
// with method and title extension parameters.
func (a Action) LinkHeader() string {
	h := fmt.Sprintf(`<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		h += fmt.Sprintf(`; method="%s"`, a.Method)
	}
	if a.Title != "" {
		h += fmt.Sprintf(`; title="%s"`, a.Title)
	}
	return h
}

// ActionDef is a reusable action template.
// Pattern uses a single %s verb for the path-escaped resource key.
type ActionDef struct {
	Rel     string
	Pattern string // e.g. "/api/v1/viewer/timeline/years/%s"
	Method  string
	Title   string
}

// For returns the concrete action for key.
func (d ActionDef) For(key string) Action {
	return Action{
		Rel:    d.Rel,
		Href:   fmt.Sprintf(d.Pattern, url.PathEscape(key)),
		Method: d.Method,
		Title:  d.Title,
	}
}
