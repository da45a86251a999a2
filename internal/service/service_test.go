package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_FanOut(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(Event{Resource: ResourceTimeline, Action: "year", Value: "2013"})

	assert.Equal(t, "2013", (<-a).Value)
	assert.Equal(t, "2013", (<-b).Value)
	assert.Equal(t, 2, bus.Subscribers())
}

func TestEventBus_SlowSubscriberIsSkipped(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()

	for range 20 {
		bus.Publish(Event{Resource: ResourceMap, Action: "loaded"})
	}

	assert.Len(t, ch, cap(ch))
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()

	bus.Unsubscribe(ch)
	bus.Unsubscribe(ch)
	bus.Publish(Event{Resource: ResourceLegend})

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, bus.Subscribers())
}

func TestAssetService_List(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2013.svg"), []byte("<svg/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025.SVG"), []byte(strings.Repeat("x", 2048)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.svg"), 0o755))

	svc := NewAssetService(dir, map[string]string{"2013": "2013.svg", "Pre2013": "Pre2013.svg"}, "2025.svg")

	assets, err := svc.List()
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, MapAsset{Name: "2013.svg", Size: "6 B", Years: []string{"2013"}}, assets[0])
	assert.Equal(t, "2.0 KB", assets[1].Size)
	assert.Empty(t, assets[1].Years)

	missing, err := svc.Missing()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025.svg", "Pre2013.svg"}, missing, "matching is case-sensitive")
}

func TestAssetService_MissingDirectory(t *testing.T) {
	svc := NewAssetService(filepath.Join(t.TempDir(), "nope"), nil, "2025.svg")

	assets, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "3.0 MB", formatSize(3<<20))
}
