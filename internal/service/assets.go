// Package service contains the supporting services of the map viewer.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// MapAsset represents an SVG map file on disk.
type MapAsset struct {
	Name  string   `json:"name" doc:"File name" example:"2013.svg"`
	Size  string   `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	Years []string `json:"years" doc:"Year labels mapped to this file"`
}

// AssetService lists the map assets of a directory.
type AssetService struct {
	dir      string
	mapping  map[string]string
	fallback string
}

// NewAssetService creates an asset service over dir. mapping is the
// year→file table and fallback the file shown for unmapped years.
func NewAssetService(dir string, mapping map[string]string, fallback string) *AssetService {
	return &AssetService{dir: dir, mapping: mapping, fallback: fallback}
}

// Dir returns the asset directory.
func (s *AssetService) Dir() string {
	return s.dir
}

// List returns the SVG files of the asset directory.
func (s *AssetService) List() ([]MapAsset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []MapAsset{}, nil
		}
		return nil, err
	}

	files := []MapAsset{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".svg" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, MapAsset{
			Name:  entry.Name(),
			Size:  formatSize(info.Size()),
			Years: s.yearsFor(entry.Name()),
		})
	}

	return files, nil
}

// Missing returns the mapped files (and the fallback) absent from disk.
func (s *AssetService) Missing() ([]string, error) {
	assets, err := s.List()
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(assets))
	for _, a := range assets {
		present[a.Name] = true
	}

	var missing []string
	want := []string{s.fallback}
	for _, name := range s.mapping {
		want = append(want, name)
	}
	for _, name := range want {
		if name != "" && !present[name] && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return missing, nil
}

func (s *AssetService) yearsFor(name string) []string {
	years := []string{}
	for year, file := range s.mapping {
		if file == name {
			years = append(years, year)
		}
	}
	slices.Sort(years)
	return years
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
