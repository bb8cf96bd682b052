// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// CatalogEntry describes one indexed paper in a catalog export.
type CatalogEntry struct {
	Key      string   `json:"key" yaml:"key"`
	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year     int      `json:"year,omitempty" yaml:"year,omitempty"`
	DOI      string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	ArxivID  string   `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	Source   string   `json:"source,omitempty" yaml:"source,omitempty"`
	Sections int      `json:"sections" yaml:"sections"`
}

// ExportYAML writes the indexed paper catalog to outputRoot/index/catalog.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	entries, err := s.catalog(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(filepath.Join(s.outputRoot, indexDir, "catalog.yaml"), data, 0o644)
}

// ExportJSON writes the indexed paper catalog to outputRoot/index/catalog.json.
func (s *Store) ExportJSON(ctx context.Context) error {
	entries, err := s.catalog(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(filepath.Join(s.outputRoot, indexDir, "catalog.json"), data, 0o644)
}

func (s *Store) catalog(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.key, p.title, p.authors, p.year, p.doi, p.arxiv_id, p.source,
			(SELECT count(*) FROM sections sec WHERE sec.paper_key = p.key)
		FROM papers p
		ORDER BY p.key`)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var entries []CatalogEntry
	for rows.Next() {
		var (
			e           CatalogEntry
			title       sql.NullString
			authorsJSON sql.NullString
			year        sql.NullInt64
			doi         sql.NullString
			arxivID     sql.NullString
			source      sql.NullString
		)
		if err := rows.Scan(&e.Key, &title, &authorsJSON, &year, &doi, &arxivID, &source, &e.Sections); err != nil {
			return nil, fmt.Errorf("scanning catalog row: %w", err)
		}
		e.Title = title.String
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &e.Authors)
		}
		e.Year = int(year.Int64)
		e.DOI = doi.String
		e.ArxivID = arxivID.String
		e.Source = source.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
