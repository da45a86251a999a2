package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-map/internal/config"
	"github.com/joeblew999/plat-map/internal/mapview"
	"github.com/joeblew999/plat-map/internal/markers"
	"github.com/joeblew999/plat-map/internal/timeline"
	"github.com/joeblew999/plat-map/internal/viewer"
)

func newTestSession(t *testing.T, available ...string) (*viewer.Session, *clock.Mock) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svg := []byte(`<svg><g class="RedPin"/><g class="GreenPin"/></svg>`)
	fsys := fstest.MapFS{"2013.svg": {Data: svg}, "2025.svg": {Data: svg}, "Pre2013.svg": {Data: svg}}

	cfg := config.Default()
	cfg.Timeline.AvailableYears = available
	mock := clock.NewMock()
	s := viewer.New(viewer.Options{
		Config: cfg,
		Maps:   mapview.NewRenderer(mapview.NewFSSource(fsys, "test"), mapview.DefaultFileMap(), logger),
		Clock:  mock,
		Logger: logger,
	})
	s.Start(context.Background())
	t.Cleanup(s.Close)
	return s, mock
}

func press(m tea.Model, key tea.KeyMsg) tea.Model {
	m, _ = m.Update(key)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeys(t *testing.T) {
	s, _ := newTestSession(t)
	m := New(s)

	m = press(m, runes("p"))
	assert.True(t, s.Timeline().Playing())
	assert.Contains(t, m.View(), "playing")

	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	assert.False(t, s.Timeline().Playing())

	m = press(m, runes("s"))
	assert.Equal(t, timeline.SpeedNormal, s.Timeline().Speed())
	assert.Contains(t, m.View(), "1.0x")

	m = press(m, runes("l"))
	assert.Contains(t, m.View(), "ENG")

	press(m, runes("2"))
	assert.False(t, s.Legend().Visible(markers.Production))
}

func TestArrowKeysSkipUnavailableYears(t *testing.T) {
	s, _ := newTestSession(t, "PRÉ 2013", "2013", "2025")
	m := New(s)

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "2013", s.Timeline().Selected())

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "PRÉ 2013", s.Timeline().Selected())

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, "PRÉ 2013", s.Timeline().Selected(), "no year before the first")

	press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, "2013", s.Timeline().Selected())
}

func TestStep(t *testing.T) {
	st := timeline.State{
		Selected: "1999",
		Buttons: []timeline.Button{
			{Year: "a", Status: timeline.StatusDisabled},
			{Year: "b", Status: timeline.StatusInactive},
			{Year: "c", Status: timeline.StatusInactive},
		},
	}

	year, ok := step(st, 1)
	require.True(t, ok)
	assert.Equal(t, "b", year)

	year, ok = step(st, -1)
	require.True(t, ok)
	assert.Equal(t, "c", year)
}

func TestEventsRefreshTheView(t *testing.T) {
	s, mock := newTestSession(t)
	m := New(s)

	cmd := m.Init()
	require.NotNil(t, cmd)

	s.Timeline().TogglePlay()
	msg := cmd()
	m, next := m.Update(msg)
	assert.NotNil(t, next)
	assert.Contains(t, m.View(), "timeline/play true")

	mock.Add(4 * time.Second)
	assert.Equal(t, "PRÉ 2013", s.Timeline().Selected())
	for range 2 {
		m, next = m.Update(next())
	}
	assert.Contains(t, m.View(), "map: Pre2013.svg")
}

func TestQuitUnsubscribes(t *testing.T) {
	s, _ := newTestSession(t)
	m := New(s)
	require.Equal(t, 1, s.Bus().Subscribers())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Zero(t, s.Bus().Subscribers())
}
