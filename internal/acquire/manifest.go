// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bibliograph/pkg/types"
)

const manifestFile = "manifest.yaml"

// ManifestPath returns the manifest location under the output root.
func ManifestPath(outputRoot string) string {
	return filepath.Join(outputRoot, manifestFile)
}

// WriteManifest persists the run's manifest as YAML under the output root.
func WriteManifest(outputRoot string, m types.Manifest) error {
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return fmt.Errorf("creating output root: %w", err)
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(ManifestPath(outputRoot), data, 0o644)
}

// ReadManifest loads a previously written manifest.
func ReadManifest(outputRoot string) (types.Manifest, error) {
	data, err := os.ReadFile(ManifestPath(outputRoot))
	if err != nil {
		return types.Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m types.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return types.Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// PaperMetadata is the per-acquired-entry sidecar consumed by the
// extraction and indexing stages alongside the PDF itself.
type PaperMetadata struct {
	Key       string       `yaml:"key"`
	Title     string       `yaml:"title,omitempty"`
	Authors   []string     `yaml:"authors,omitempty"`
	Year      int          `yaml:"year,omitempty"`
	DOI       string       `yaml:"doi,omitempty"`
	ArxivID   string       `yaml:"arxiv_id,omitempty"`
	Source    types.Source `yaml:"source"`
	SourceURL string       `yaml:"source_url,omitempty"`
	PDFPath   string       `yaml:"pdf_path"`
}

// writeMetadata writes the sidecar for an acquired entry. A sidecar
// failure does not fail the acquisition; the PDF on disk is the product.
func (o *Orchestrator) writeMetadata(e types.BibEntry, result types.AcquisitionResult, source types.Source, sourceURL string) {
	meta := PaperMetadata{
		Key:       e.CitationKey,
		Title:     e.Title,
		Authors:   e.Authors,
		Year:      e.Year,
		DOI:       e.DOI,
		ArxivID:   e.ArxivID,
		Source:    source,
		SourceURL: sourceURL,
		PDFPath:   result.LocalPath,
	}

	dir := filepath.Join(o.Cfg.OutputRoot, metadataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return
	}
	os.WriteFile(filepath.Join(dir, e.CitationKey+".yaml"), data, 0o644)
}

// ReadMetadata loads the sidecar for a citation key, or nil when absent.
func ReadMetadata(outputRoot, key string) *PaperMetadata {
	data, err := os.ReadFile(filepath.Join(outputRoot, metadataDir, key+".yaml"))
	if err != nil {
		return nil
	}
	var meta PaperMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil
	}
	return &meta
}
