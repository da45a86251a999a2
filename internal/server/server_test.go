package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapSVG = `<svg viewBox="0 0 10 10"><g class="RedPin"><circle cx="1" cy="1"/></g><g class="GreenPin"><circle cx="5" cy="5"/></g></svg>`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"Pre2013.svg", "2013.svg", "2025.svg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(mapSVG), 0o644))
	}

	srv, err := New(Config{
		Host:    "localhost",
		Port:    "8087",
		DataDir: dir,
		Clock:   clock.NewMock(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	srv.Start(context.Background())
	t.Cleanup(func() { srv.Close() })
	return srv
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthLinks(t *testing.T) {
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	links := strings.Join(rec.Header().Values("Link"), ",")
	assert.Contains(t, links, `</api/v1/timeline>; rel="timeline"`)
	assert.Contains(t, links, `</api/v1/legend>; rel="legend"`)
	assert.Contains(t, links, `</openapi.json>; rel="service-desc"`)
	assert.NotContains(t, links, "/api/v1/viewer")
}

func TestTimelineActions(t *testing.T) {
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/api/v1/timeline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	links := strings.Join(rec.Header().Values("Link"), ",")
	assert.Contains(t, links, `</api/v1/timeline/play>; rel="play"; method="POST"`)
	assert.Contains(t, links, `</api/v1/timeline/select>; rel="select"`)

	rec = do(srv, http.MethodPost, "/api/v1/timeline/play", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, strings.Join(rec.Header().Values("Link"), ","), `rel="pause"`)
}

func TestViewerPage(t *testing.T) {
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/viewer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	assert.Contains(t, body, `id="timeline"`)
	assert.Contains(t, body, "RedPin")
	assert.Contains(t, body, "/api/v1/viewer/stream")
	assert.Contains(t, body, "PRÉ 2013")
}

func TestViewerSelectYear(t *testing.T) {
	srv := newTestServer(t)

	rec := do(srv, http.MethodPost, "/api/v1/viewer/timeline/years/2013", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, rec.Body.String(), "datastar-patch-elements")
	assert.Contains(t, rec.Body.String(), "#timeline")
	assert.Equal(t, "2013", srv.Session().Year())

	rec = do(srv, http.MethodPost, "/api/v1/viewer/timeline/years/PR%C3%89%202013", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PRÉ 2013", srv.Session().Year())
}

func TestViewerLegendAndArea(t *testing.T) {
	srv := newTestServer(t)

	rec := do(srv, http.MethodPost, "/api/v1/viewer/legend/production", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#legend")
	assert.Contains(t, srv.Session().MapHTML(), "display:none")

	rec = do(srv, http.MethodPost, "/api/v1/viewer/legend/pipelines", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(srv, http.MethodPost, "/api/v1/viewer/area", `{"area":"santos"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "santos", srv.Session().Area())

	rec = do(srv, http.MethodPost, "/api/v1/viewer/area", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticMapsAndRoot(t *testing.T) {
	srv := newTestServer(t)

	rec := do(srv, http.MethodGet, "/maps/2013.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "RedPin")

	rec = do(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var banner map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &banner))
	assert.Equal(t, "plat-map", banner["service"])
	assert.NotEmpty(t, rec.Header().Values("Link"))

	rec = do(srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_InvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeline:\n  speed: 9x\n"), 0o644))

	_, err := New(Config{ConfigFile: path, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	assert.ErrorContains(t, err, "timeline.speed")
}

func TestOpenAPI(t *testing.T) {
	srv := newTestServer(t)

	oapi := srv.OpenAPI()
	assert.Contains(t, oapi.Paths, "/api/v1/timeline/select")
	assert.Contains(t, oapi.Paths, "/api/v1/viewer/stream")
}
