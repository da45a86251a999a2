package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-map/internal/server"
	"github.com/joeblew999/plat-map/internal/tui"
)

// Options defines all CLI flags and env vars for the map viewer.
// Flags: --host, --port, --data-dir, --assets-url, --web-dir, --config, --debug
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_ASSETS_URL, SERVICE_WEB_DIR, SERVICE_CONFIG, SERVICE_DEBUG
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir   string `doc:"Directory of the SVG map files" default:"public"`
	AssetsURL string `doc:"Fetch SVG maps from this base URL instead of the data directory"`
	WebDir    string `doc:"Override the embedded templates with this directory"`
	Config    string `doc:"Viewer configuration file (.yaml, .yml or .hcl)" short:"c"`
	Debug     bool   `doc:"Enable debug logging"`
}

func newLogger(opts *Options, w *os.File) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newServer(opts *Options, logger *slog.Logger) (*server.Server, error) {
	return server.New(server.Config{
		Host:       opts.Host,
		Port:       fmt.Sprintf("%d", opts.Port),
		DataDir:    opts.DataDir,
		AssetsURL:  opts.AssetsURL,
		WebDir:     opts.WebDir,
		ConfigFile: opts.Config,
		Logger:     logger,
	})
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		logger := newLogger(opts, os.Stderr)
		slog.SetDefault(logger)

		var srv *server.Server
		var httpServer *http.Server

		hooks.OnStart(func() {
			var err error
			srv, err = newServer(opts, logger)
			if err != nil {
				fatal("Configuration error", err)
			}
			srv.Start(context.Background())

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-map viewer starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			if opts.AssetsURL != "" {
				fmt.Printf("  Maps:    %s\n", opts.AssetsURL)
			} else {
				fmt.Printf("  Maps:    %s\n", opts.DataDir)
			}
			fmt.Println()
			fmt.Printf("  Pages:   %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fatal("Server error", err)
			}
		})

		hooks.OnStop(func() {
			if httpServer != nil {
				httpServer.Shutdown(context.Background())
			}
			if srv != nil {
				srv.Close()
			}
		})
	})

	cli.Root().Use = "platmap"
	cli.Root().Short = "Year-driven SVG map viewer"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts, newLogger(opts, os.Stderr))
			if err != nil {
				fatal("Configuration error", err)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fatal("Error marshaling spec", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// play subcommand: drive the timeline from the terminal
	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Play the timeline in the terminal",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logFile, err := os.CreateTemp("", "platmap-*.log")
			if err != nil {
				fatal("Error creating log file", err)
			}
			defer logFile.Close()

			srv, err := newServer(opts, newLogger(opts, logFile))
			if err != nil {
				fatal("Configuration error", err)
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			srv.Start(ctx)
			if err := tui.Run(ctx, srv.Session()); err != nil {
				fatal("Player error", err)
			}
		}),
	}
	cli.Root().AddCommand(playCmd)

	cli.Run()
}
