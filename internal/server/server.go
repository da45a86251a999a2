package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/facebookgo/clock"

	"github.com/joeblew999/plat-map/internal/api"
	"github.com/joeblew999/plat-map/internal/api/viewer"
	"github.com/joeblew999/plat-map/internal/config"
	"github.com/joeblew999/plat-map/internal/humastar"
	"github.com/joeblew999/plat-map/internal/mapview"
	"github.com/joeblew999/plat-map/internal/service"
	"github.com/joeblew999/plat-map/internal/templates"
	session "github.com/joeblew999/plat-map/internal/viewer"
)

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	DataDir    string // directory of the SVG map assets
	AssetsURL  string // fetch assets over HTTP instead of DataDir
	WebDir     string // optional override of the embedded templates
	ConfigFile string // optional YAML or HCL viewer configuration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Server is the map viewer HTTP server.
type Server struct {
	config   Config
	logger   *slog.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	links    *humastar.Links
	session  *session.Session
	assets   *service.AssetService
	renderer *templates.Renderer
	viewer   *viewer.Handler
}

// New creates a new map viewer server.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	vc := config.Default()
	if cfg.ConfigFile != "" {
		loaded, err := config.Load(cfg.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", cfg.ConfigFile, err)
		}
		vc = loaded
	}

	source, assetDir, err := assetSource(cfg, vc)
	if err != nil {
		return nil, err
	}

	renderer, err := newRenderer(cfg)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	links := humastar.NewLinks("viewer")
	humaConfig := huma.DefaultConfig("plat-map API", api.Version)
	humaConfig.Info.Description = "Year-driven SVG map viewer: timeline playback, legend filters and map assets."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, links.Transformer())

	humaAPI := humago.New(mux, humaConfig)

	bus := service.NewEventBus()
	maps := mapview.NewRenderer(source, vc.Files(), cfg.Logger)
	sess := session.New(session.Options{
		Config: vc,
		Maps:   maps,
		Bus:    bus,
		Clock:  cfg.Clock,
		Logger: cfg.Logger,
	})

	s := &Server{
		config:   cfg,
		logger:   cfg.Logger,
		mux:      mux,
		humaAPI:  humaAPI,
		links:    links,
		session:  sess,
		renderer: renderer,
		viewer:   viewer.NewHandler(sess, renderer, cfg.Logger),
	}
	if assetDir != "" {
		s.assets = service.NewAssetService(assetDir, vc.Assets.Files, vc.Assets.Fallback)
	}

	s.routes()
	return s, nil
}

func assetSource(cfg Config, vc config.Config) (mapview.Source, string, error) {
	switch {
	case cfg.AssetsURL != "":
		src, err := mapview.NewHTTPSource(cfg.AssetsURL, nil)
		return src, "", err
	case vc.Assets.BaseURL != "":
		src, err := mapview.NewHTTPSource(vc.Assets.BaseURL, nil)
		return src, "", err
	}

	dir := vc.Assets.Dir
	if dir == "" {
		dir = cfg.DataDir
	} else if !filepath.IsAbs(dir) && cfg.ConfigFile != "" {
		dir = filepath.Join(filepath.Dir(cfg.ConfigFile), dir)
	}
	return mapview.NewDirSource(dir), dir, nil
}

func newRenderer(cfg Config) (*templates.Renderer, error) {
	if cfg.WebDir == "" {
		return templates.New()
	}
	r, err := templates.NewFromDir(cfg.WebDir)
	if err != nil {
		return nil, fmt.Errorf("loading templates from %s: %w", cfg.WebDir, err)
	}
	cfg.Logger.Info("loaded templates", "dir", cfg.WebDir)
	return r, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start loads the initial map.
func (s *Server) Start(ctx context.Context) {
	s.session.Start(ctx)
}

// Close stops playback.
func (s *Server) Close() error {
	s.session.Close()
	return nil
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Session returns the viewer session served by s.
func (s *Server) Session() *session.Session {
	return s.session
}

func (s *Server) routes() {
	// REST API routes (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(&api.Services{
		Session: s.session,
		Assets:  s.assets,
	}))
	huma.AutoRegister(s.humaAPI, api.NewInfoHandler(s.session.Maps().Source().String(), s.session.Area(), s.session.Bus()))

	// Viewer SSE routes using Huma + Datastar SDK
	s.viewer.RegisterRoutes(s.humaAPI)

	s.links.AutoLinks(s.humaAPI)

	// Static map assets
	if s.assets != nil {
		s.mux.Handle("/maps/", http.StripPrefix("/maps/", http.FileServer(http.Dir(s.assets.Dir()))))
	}

	// Page routes
	s.mux.HandleFunc("/viewer", s.viewer.ServePage)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range s.links.Root() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-map",
		"status":  "running",
		"viewer":  "/viewer",
	})
}
