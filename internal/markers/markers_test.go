package markers

import (
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
  <g class="Map"><path d="M0 0L100 100"/></g>
  <g class="RedPin_1" transform="translate(10, 20)"><path d="M0 0"/></g>
  <circle class="RedPin_2" cx="30" cy="40" r="2"/>
  <g class="GreenPin" style="opacity:0.5"><rect x="50" y="60" width="4" height="4"/></g>
  <g class="GrayPin_a"><path d="M1 1"/></g>
  <g class="DecommissionPin"><circle cx="70" cy="80" r="1"/></g>
</svg>`

func parseSample(t *testing.T) *Document {
	t.Helper()
	d, err := Parse(strings.NewReader(sampleSVG))
	require.NoError(t, err)
	return d
}

func TestParse_BuildsRegistry(t *testing.T) {
	d := parseSample(t)

	assert.Equal(t, map[Category]int{
		Exploration:     2,
		Production:      1,
		Decommissioning: 2,
	}, d.Counts())
}

func TestParse_WithoutSVGElement(t *testing.T) {
	_, err := Parse(strings.NewReader(`<div class="RedPin">no map</div>`))

	assert.True(t, errors.Is(err, ErrNoSVG))
}

func TestParse_Positions(t *testing.T) {
	d := parseSample(t)

	red := d.Markers(Exploration)
	require.Len(t, red, 2)
	assert.Equal(t, orb.Point{10, 20}, red[0].Position, "translate on the group")
	assert.Equal(t, orb.Point{30, 40}, red[1].Position, "circle centre")

	green := d.Markers(Production)
	require.Len(t, green, 1)
	assert.True(t, green[0].HasPosition)
	assert.Equal(t, orb.Point{50, 60}, green[0].Position, "first positioned child")

	gray := d.Markers(Decommissioning)
	require.Len(t, gray, 2)
	assert.False(t, gray[0].HasPosition)
	assert.Equal(t, orb.Point{70, 80}, gray[1].Position)
}

func TestApply_TogglesOnlyRegisteredPins(t *testing.T) {
	d := parseSample(t)

	d.Apply(Visibility{Exploration: false, Production: true, Decommissioning: false})

	for _, m := range d.Markers(Exploration) {
		assert.Equal(t, "none", m.Display())
	}
	for _, m := range d.Markers(Production) {
		assert.Equal(t, "block", m.Display())
	}
	for _, m := range d.Markers(Decommissioning) {
		assert.Equal(t, "none", m.Display())
	}

	out, err := d.Markup()
	require.NoError(t, err)
	assert.Contains(t, out, `style="opacity:0.5;display:block"`)
	assert.NotContains(t, out, `class="Map" style`)
}

func TestApply_ReplacesPreviousDisplay(t *testing.T) {
	d := parseSample(t)

	d.Apply(Visibility{})
	d.Apply(DefaultVisibility())

	out, err := d.Markup()
	require.NoError(t, err)
	assert.NotContains(t, out, "display:none")
	assert.Equal(t, 5, strings.Count(out, "display:block"))
}

func TestBounds(t *testing.T) {
	d := parseSample(t)

	b, ok := d.Bounds(Exploration)
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{10, 20}, Max: orb.Point{30, 40}}, b)

	empty, err := Parse(strings.NewReader(`<svg></svg>`))
	require.NoError(t, err)
	_, ok = empty.Bounds(Production)
	assert.False(t, ok)
}

func TestFeatureCollection(t *testing.T) {
	d := parseSample(t)

	fc := d.FeatureCollection()

	require.Len(t, fc.Features, 4, "the gray group without coordinates is skipped")
	assert.Equal(t, "exploration", fc.Features[0].Properties["category"])
	assert.Equal(t, "DecommissionPin", fc.Features[3].Properties["class"])
}

func TestCategory_Matches(t *testing.T) {
	assert.True(t, Exploration.Matches("Pin RedPin_12"))
	assert.False(t, Exploration.Matches("redpin"))
	assert.True(t, Decommissioning.Matches("DecommissionPin_3"))
	assert.False(t, Production.Matches("RedPin"))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("production")
	require.NoError(t, err)
	assert.Equal(t, Production, c)

	_, err = ParseCategory("pipelines")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestVisibility_Toggle(t *testing.T) {
	v := DefaultVisibility()

	toggled := v.Toggle(Production)

	assert.True(t, v.Visible(Production), "original left untouched")
	assert.False(t, toggled.Visible(Production))
	assert.True(t, toggled.Toggle(Production).Visible(Production))
	assert.True(t, Visibility(nil).Toggle(Exploration).Visible(Exploration))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRender_ReturnsWriteError(t *testing.T) {
	d := parseSample(t)

	err := d.Render(failingWriter{})
	assert.ErrorContains(t, err, "disk full")
}
