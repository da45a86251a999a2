package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// entryPoint is the path every collection links back to.
const entryPoint = "/health"

// Links holds the RFC 8288 link headers generated from an OpenAPI spec,
// keyed by operation path.
type Links struct {
	byPath map[string][]string
	skip   string
}

// NewLinks creates an empty link set. Operations tagged skipTag (Datastar
// SSE endpoints) get no links.
func NewLinks(skipTag string) *Links {
	return &Links{byPath: map[string][]string{}, skip: skipTag}
}

// AutoLinks walks the OpenAPI spec and generates hypermedia links between
// operations. Call after all routes are registered.
func (l *Links) AutoLinks(api huma.API) {
	skipTag := l.skip
	oapi := api.OpenAPI()

	// Collection paths have no {param}; item paths do.
	var collections, items []string
	for p, pi := range oapi.Paths {
		if slices.Contains(primaryTags(pi), skipTag) {
			continue
		}
		if strings.Contains(p, "{") {
			items = append(items, p)
		} else {
			collections = append(collections, p)
		}
	}
	slices.Sort(collections)
	slices.Sort(items)

	// Item → nearest registered ancestor.
	for _, item := range items {
		for parent := path.Dir(item); parent != "/" && parent != "."; parent = path.Dir(parent) {
			if _, ok := oapi.Paths[parent]; ok && !strings.Contains(parent, "{") {
				l.add(item, parent, "collection")
				l.add(item, parent, "up")
				break
			}
		}
	}

	// Collection → sub-resources one level down, and up to the entry point.
	for _, coll := range collections {
		for _, other := range collections {
			if other != coll && path.Dir(other) == coll {
				l.add(coll, other, lastSegment(other))
			}
		}
		if coll != entryPoint {
			l.add(coll, entryPoint, "up")
		}
	}

	// Entry point: every top-level collection plus the IANA discovery rels.
	for _, coll := range collections {
		if coll == entryPoint || path.Dir(coll) != "/api/v1" {
			continue
		}
		l.add(entryPoint, coll, lastSegment(coll))
	}
	l.add(entryPoint, "/openapi.json", "describedby")
	l.add(entryPoint, "/openapi.json", "service-desc")
	l.add(entryPoint, "/docs", "service-doc")

	// Document the relationships in the OpenAPI document.
	for p, pi := range oapi.Paths {
		headers, ok := l.byPath[p]
		if !ok {
			continue
		}
		for _, op := range operationsOf(pi) {
			if op != nil {
				injectResponseLinks(op, headers)
			}
		}
	}
}

// For returns the generated links of an operation path.
func (l *Links) For(p string) []string {
	return l.byPath[p]
}

// Root returns the links of the entry point, for use by non-Huma handlers.
func (l *Links) Root() []string {
	return l.byPath[entryPoint]
}

// Transformer returns a Huma Transformer that adds the generated links,
// a self link for item endpoints and the state-dependent actions of
// response bodies implementing [Actor].
func (l *Links) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil || slices.Contains(op.Tags, l.skip) {
			return v, nil
		}

		for _, link := range l.byPath[op.Path] {
			ctx.AppendHeader("Link", link)
		}
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}
		return v, nil
	}
}

func (l *Links) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(l.byPath[from], val) {
		l.byPath[from] = append(l.byPath[from], val)
	}
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete}
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimRight(p, "/"), "/")
	return parts[len(parts)-1]
}

// injectResponseLinks adds OpenAPI Link objects to the operation's success
// response.
func injectResponseLinks(op *huma.Operation, headers []string) {
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  fmt.Sprintf("Related: %s", rel),
		}
	}
}

func parseLinkHeader(h string) (rel, href string) {
	// Parse `<url>; rel="name"` format.
	target, params, ok := strings.Cut(h, ";")
	if !ok {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(target), "<>")
	params = strings.TrimSpace(params)
	if strings.HasPrefix(params, `rel="`) {
		rel = strings.Trim(params[4:], `"`)
	}
	return rel, href
}
