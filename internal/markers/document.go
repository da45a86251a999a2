package markers

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoSVG is returned when markup holds no <svg> element to host pins.
var ErrNoSVG = errors.New("document has no <svg> element")

// Marker is a registered pin element.
type Marker struct {
	Category    Category
	Class       string
	Position    orb.Point
	HasPosition bool

	node *html.Node
}

// Display returns the inline display value last applied to the pin.
func (m Marker) Display() string {
	for _, decl := range strings.Split(attr(m.node, "style"), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == "display" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Document is a parsed map with its pin registry. The registry is built
// once at parse time; Apply only touches registered elements.
//
// A Document is not safe for concurrent use.
type Document struct {
	nodes    []*html.Node
	registry map[Category][]*Marker
}

// Parse reads SVG markup and registers every element whose class matches a
// category. It fails with ErrNoSVG when the markup has no <svg> element.
func Parse(r io.Reader) (*Document, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parsing svg: %w", err)
	}

	d := &Document{
		nodes:    nodes,
		registry: make(map[Category][]*Marker, len(categories)),
	}
	found := false
	for _, n := range nodes {
		if d.register(n) {
			found = true
		}
	}
	if !found {
		return nil, ErrNoSVG
	}
	return d, nil
}

// register walks n and reports whether an <svg> element was seen.
func (d *Document) register(n *html.Node) bool {
	found := false
	if n.Type == html.ElementNode {
		if n.Data == "svg" {
			found = true
		}
		if class := attr(n, "class"); class != "" {
			for _, c := range categories {
				if !c.Matches(class) {
					continue
				}
				m := &Marker{Category: c, Class: class, node: n}
				m.Position, m.HasPosition = locate(n)
				d.registry[c] = append(d.registry[c], m)
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if d.register(child) {
			found = true
		}
	}
	return found
}

// Apply shows or hides the registered pins of every category. Categories
// are applied in legend order, so a pin carrying classes of two categories
// ends up with the later one's setting.
func (d *Document) Apply(v Visibility) {
	for _, c := range categories {
		display := "none"
		if v.Visible(c) {
			display = "block"
		}
		for _, m := range d.registry[c] {
			setDisplay(m.node, display)
		}
	}
}

// Markers returns copies of the registered pins of c.
func (d *Document) Markers(c Category) []Marker {
	out := make([]Marker, 0, len(d.registry[c]))
	for _, m := range d.registry[c] {
		out = append(out, *m)
	}
	return out
}

// Count returns the number of registered pins of c.
func (d *Document) Count(c Category) int {
	return len(d.registry[c])
}

// Counts returns the number of registered pins per category.
func (d *Document) Counts() map[Category]int {
	out := make(map[Category]int, len(categories))
	for _, c := range categories {
		out[c] = len(d.registry[c])
	}
	return out
}

// Bounds returns the extent of the positioned pins of c.
func (d *Document) Bounds(c Category) (orb.Bound, bool) {
	var mp orb.MultiPoint
	for _, m := range d.Markers(c) {
		if m.HasPosition {
			mp = append(mp, m.Position)
		}
	}
	if len(mp) == 0 {
		return orb.Bound{}, false
	}
	return mp.Bound(), true
}

// FeatureCollection exports the positioned pins as points in map
// coordinates.
func (d *Document) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range categories {
		for _, m := range d.Markers(c) {
			if !m.HasPosition {
				continue
			}
			f := geojson.NewFeature(m.Position)
			f.Properties["category"] = string(c)
			f.Properties["class"] = m.Class
			f.Properties["display"] = m.Display()
			fc.Append(f)
		}
	}
	return fc
}

// Render writes the document markup.
func (d *Document) Render(w io.Writer) error {
	for _, n := range d.nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

// Markup returns the document markup.
func (d *Document) Markup() (string, error) {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// setDisplay replaces the display declaration of the inline style.
func setDisplay(n *html.Node, display string) {
	var decls []string
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		if k, _, ok := strings.Cut(decl, ":"); ok && strings.TrimSpace(k) == "display" {
			continue
		}
		decls = append(decls, decl)
	}
	decls = append(decls, "display:"+display)
	setAttr(n, "style", strings.Join(decls, ";"))
}

// locate finds a pin position on n or, failing that, its first positioned
// descendant.
func locate(n *html.Node) (orb.Point, bool) {
	if p, ok := ownPosition(n); ok {
		return p, true
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		if p, ok := locate(child); ok {
			return p, true
		}
	}
	return orb.Point{}, false
}

func ownPosition(n *html.Node) (orb.Point, bool) {
	for _, keys := range [][2]string{{"cx", "cy"}, {"x", "y"}} {
		x, okX := parseLength(attr(n, keys[0]))
		y, okY := parseLength(attr(n, keys[1]))
		if okX && okY {
			return orb.Point{x, y}, true
		}
	}
	return parseTranslate(attr(n, "transform"))
}

func parseLength(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// parseTranslate reads translate(x[, y]) out of a transform attribute.
func parseTranslate(transform string) (orb.Point, bool) {
	_, rest, ok := strings.Cut(transform, "translate(")
	if !ok {
		return orb.Point{}, false
	}
	args, _, ok := strings.Cut(rest, ")")
	if !ok {
		return orb.Point{}, false
	}
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return orb.Point{}, false
	}
	x, okX := parseLength(fields[0])
	if !okX {
		return orb.Point{}, false
	}
	y := 0.0
	if len(fields) > 1 {
		var okY bool
		if y, okY = parseLength(fields[1]); !okY {
			return orb.Point{}, false
		}
	}
	return orb.Point{x, y}, true
}
