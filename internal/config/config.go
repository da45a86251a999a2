// Package config loads the viewer configuration from YAML or HCL files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-map/internal/mapview"
	"github.com/joeblew999/plat-map/internal/markers"
	"github.com/joeblew999/plat-map/internal/timeline"
)

// Config is the viewer configuration.
type Config struct {
	Area      string          `yaml:"area" hcl:"area,optional"`
	Languages []string        `yaml:"languages" hcl:"languages,optional"`
	Timeline  *TimelineConfig `yaml:"timeline" hcl:"timeline,block"`
	Assets    *AssetsConfig   `yaml:"assets" hcl:"assets,block"`
	Legend    map[string]bool `yaml:"legend" hcl:"legend,optional"`
}

// TimelineConfig holds the timeline controller options.
type TimelineConfig struct {
	Years          []string `yaml:"years" hcl:"years,optional"`
	SelectedYear   string   `yaml:"selected_year" hcl:"selected_year,optional"`
	AvailableYears []string `yaml:"available_years" hcl:"available_years,optional"`
	Speed          string   `yaml:"speed" hcl:"speed,optional"`
	Language       string   `yaml:"language" hcl:"language,optional"`
}

// AssetsConfig says where map assets come from and which file each year
// shows.
type AssetsConfig struct {
	Dir      string            `yaml:"dir" hcl:"dir,optional"`
	BaseURL  string            `yaml:"base_url" hcl:"base_url,optional"`
	Files    map[string]string `yaml:"files" hcl:"files,optional"`
	Fallback string            `yaml:"fallback" hcl:"fallback,optional"`
}

// Default returns the built-in configuration.
func Default() Config {
	c := Config{}
	c.applyDefaults()
	return c
}

// Load reads a YAML (.yaml, .yml) or HCL (.hcl) file, fills in defaults and
// validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var c Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".hcl":
		if err := decodeHCL(data, path, &c); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func decodeHCL(data []byte, filename string, c *Config) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	if diags := gohcl.DecodeBody(file.Body, nil, c); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Area == "" {
		c.Area = "rio"
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"POR", "ENG"}
	}
	if c.Timeline == nil {
		c.Timeline = &TimelineConfig{}
	}
	if len(c.Timeline.Years) == 0 {
		c.Timeline.Years = slices.Clone(timeline.DefaultYears)
	}
	if c.Timeline.SelectedYear == "" {
		c.Timeline.SelectedYear = timeline.DefaultSelectedYear
	}
	if c.Timeline.Speed == "" {
		c.Timeline.Speed = string(timeline.DefaultSpeed)
	}
	if c.Timeline.Language == "" {
		c.Timeline.Language = c.Languages[0]
	}
	if c.Assets == nil {
		c.Assets = &AssetsConfig{}
	}
	if len(c.Assets.Files) == 0 {
		c.Assets.Files = mapview.DefaultFileMap().Mapping
	}
	if c.Assets.Fallback == "" {
		c.Assets.Fallback = mapview.DefaultFallback
	}
	if c.Legend == nil {
		c.Legend = map[string]bool{}
	}
	for _, cat := range markers.Categories() {
		if _, ok := c.Legend[string(cat)]; !ok {
			c.Legend[string(cat)] = true
		}
	}
}

// Validate reports every problem of the configuration at once.
func (c Config) Validate() error {
	var result *multierror.Error

	tl := c.Timeline
	if tl == nil {
		return multierror.Append(result, fmt.Errorf("timeline: missing"))
	}
	if _, err := timeline.ParseSpeed(tl.Speed); err != nil {
		result = multierror.Append(result, fmt.Errorf("timeline.speed: %w", err))
	}
	if !slices.Contains(tl.Years, tl.SelectedYear) {
		result = multierror.Append(result, fmt.Errorf("timeline.selected_year: %q is not one of the years", tl.SelectedYear))
	}
	for _, y := range tl.AvailableYears {
		if !slices.Contains(tl.Years, y) {
			result = multierror.Append(result, fmt.Errorf("timeline.available_years: %q is not one of the years", y))
		}
	}
	if len(tl.AvailableYears) > 0 && !slices.Contains(tl.AvailableYears, tl.SelectedYear) {
		result = multierror.Append(result, fmt.Errorf("timeline.selected_year: %q is not available", tl.SelectedYear))
	}
	if seen := duplicates(tl.Years); len(seen) > 0 {
		result = multierror.Append(result, fmt.Errorf("timeline.years: duplicate labels %v", seen))
	}
	if !slices.Contains(c.Languages, tl.Language) {
		result = multierror.Append(result, fmt.Errorf("timeline.language: %q is not one of the languages", tl.Language))
	}
	for name := range c.Legend {
		if _, err := markers.ParseCategory(name); err != nil {
			result = multierror.Append(result, fmt.Errorf("legend: %w", err))
		}
	}
	if c.Assets != nil && c.Assets.Dir != "" && c.Assets.BaseURL != "" {
		result = multierror.Append(result, fmt.Errorf("assets: dir and base_url are mutually exclusive"))
	}

	return result.ErrorOrNil()
}

// TimelineOptions converts the timeline section to controller options.
func (c Config) TimelineOptions() timeline.Options {
	return timeline.Options{
		Years:          slices.Clone(c.Timeline.Years),
		SelectedYear:   c.Timeline.SelectedYear,
		AvailableYears: slices.Clone(c.Timeline.AvailableYears),
		Speed:          timeline.Speed(c.Timeline.Speed),
		Language:       c.Timeline.Language,
	}
}

// Visibility converts the legend section to marker visibility.
func (c Config) Visibility() markers.Visibility {
	v := markers.Visibility{}
	for name, on := range c.Legend {
		v[markers.Category(name)] = on
	}
	return v
}

// Files converts the assets section to the renderer's year mapping.
func (c Config) Files() mapview.Files {
	return mapview.Files{Mapping: c.Assets.Files, Fallback: c.Assets.Fallback}
}

func duplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	var dup []string
	for _, it := range items {
		if seen[it] && !slices.Contains(dup, it) {
			dup = append(dup, it)
		}
		seen[it] = true
	}
	return dup
}
