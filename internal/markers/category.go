// Package markers keeps a registry of the categorized pins of a map
// document and toggles their visibility per category.
package markers

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Category is a legend entry grouping pins of the same kind.
type Category string

const (
	Exploration     Category = "exploration"
	Production      Category = "production"
	Decommissioning Category = "decommissioning"
)

// ErrUnknownCategory is returned by ParseCategory.
var ErrUnknownCategory = errors.New("unknown marker category")

var categories = []Category{Exploration, Production, Decommissioning}

// classPatterns are the class substrings identifying each category.
var classPatterns = map[Category][]string{
	Exploration:     {"RedPin"},
	Production:      {"GreenPin"},
	Decommissioning: {"GrayPin", "DecommissionPin"},
}

// Categories returns all categories in legend order.
func Categories() []Category {
	return slices.Clone(categories)
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := classPatterns[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Patterns returns the class substrings of c.
func (c Category) Patterns() []string {
	return slices.Clone(classPatterns[c])
}

// Matches reports whether a class attribute value belongs to c.
func (c Category) Matches(class string) bool {
	for _, p := range classPatterns[c] {
		if strings.Contains(class, p) {
			return true
		}
	}
	return false
}

// Visibility maps each category to whether its pins are shown. A category
// missing from the map is hidden.
type Visibility map[Category]bool

// DefaultVisibility shows every category.
func DefaultVisibility() Visibility {
	v := make(Visibility, len(categories))
	for _, c := range categories {
		v[c] = true
	}
	return v
}

// Visible reports whether pins of c are shown.
func (v Visibility) Visible(c Category) bool {
	return v[c]
}

// Toggle returns a copy of v with c flipped.
func (v Visibility) Toggle(c Category) Visibility {
	out := maps.Clone(v)
	if out == nil {
		out = Visibility{}
	}
	out[c] = !v[c]
	return out
}
