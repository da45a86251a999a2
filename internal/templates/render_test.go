package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-map/internal/timeline"
)

func TestRenderTimeline(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	html, err := r.Render("timeline", timeline.State{
		Selected: "2013",
		Playing:  true,
		Speed:    timeline.SpeedNormal,
		Language: "ENG",
		Buttons: []timeline.Button{
			{Year: "PRÉ 2013", Status: timeline.StatusInactive},
			{Year: "2013", Status: timeline.StatusSelected},
			{Year: "2014", Status: timeline.StatusDisabled},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, html, `class="year-button selected"`)
	assert.Contains(t, html, `class="year-button disabled" disabled`)
	assert.Contains(t, html, "PR%C3%89%202013")
	assert.Contains(t, html, `title="Pause"`)
	assert.Contains(t, html, "1.0x")
	assert.Contains(t, html, "ENG")
}

func TestRenderMapViewEmpty(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	html, err := r.Render("map-view", map[string]any{"Year": "2018"})
	require.NoError(t, err)
	assert.Contains(t, html, "No map loaded")
}

func TestRenderUnknown(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	_, err = r.Render("nope", nil)
	assert.Error(t, err)
	assert.Panics(t, func() { r.MustRender("nope", nil) })
}

func TestReloadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fragments"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fragments", "legend.html"),
		[]byte(`{{define "legend"}}custom {{len .}}{{end}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "viewer.html"),
		[]byte(`{{define "viewer"}}page{{end}}`), 0o644))

	r, err := New()
	require.NoError(t, err)
	require.NoError(t, r.Reload(dir))
	assert.Equal(t, "custom 2", r.MustRender("legend", []int{1, 2}))

	fromDir, err := NewFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "page", fromDir.MustRender("viewer", nil))

	_, err = NewFromDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
