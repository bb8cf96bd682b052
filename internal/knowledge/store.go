// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge indexes extracted paper text into SQLite with FTS5
// and answers full-text queries over it.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bibliograph/internal/acquire"
	"github.com/pdiddy/bibliograph/pkg/types"
)

const (
	textDir  = "text"
	indexDir = "index"
	dbFile   = "bibliograph.db"
)

// Store manages the paper index SQLite database.
type Store struct {
	db         *sql.DB
	outputRoot string
	maxResults int
}

// NewStore opens or creates the index database at outputRoot/index,
// creating the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.OutputRoot, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		outputRoot: cfg.OutputRoot,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			key TEXT PRIMARY KEY,
			title TEXT,
			authors TEXT,
			year INTEGER,
			doi TEXT,
			arxiv_id TEXT,
			source TEXT,
			source_url TEXT,
			pdf_path TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_key TEXT NOT NULL REFERENCES papers(key),
			heading TEXT,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_paper_key ON sections(paper_key)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			paper_key TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sections_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sections_fts USING fts5(content, content=sections, content_rowid=rowid)`,
			`CREATE TRIGGER sections_ai AFTER INSERT ON sections BEGIN
				INSERT INTO sections_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER sections_ad AFTER DELETE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER sections_au AFTER UPDATE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO sections_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of papers processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads extracted text files from outputRoot/text/ and populates
// the database, one row per section. File modification times are tracked
// so unchanged papers are skipped on re-runs.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	txtDir := filepath.Join(s.outputRoot, textDir)

	entries, err := os.ReadDir(txtDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading text directory %s: %w", txtDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		key := strings.TrimSuffix(entry.Name(), ".txt")
		filePath := filepath.Join(txtDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE paper_key = ?`, key,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", key)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}

		sections := splitSections(string(data))
		meta := acquire.ReadMetadata(s.outputRoot, key)

		if err := s.ingestPaper(ctx, key, sections, meta, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", key, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d sections)\n", key, len(sections))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d sections)\n", key, len(sections))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestPaper(ctx context.Context, key string, sections []Section, meta *acquire.PaperMetadata, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE paper_key = ?`, key); err != nil {
			return fmt.Errorf("deleting old sections: %w", err)
		}
	}

	if meta != nil {
		authorsJSON, _ := json.Marshal(meta.Authors)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO papers (key, title, authors, year, doi, arxiv_id, source, source_url, pdf_path)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET
				title=excluded.title, authors=excluded.authors, year=excluded.year,
				doi=excluded.doi, arxiv_id=excluded.arxiv_id, source=excluded.source,
				source_url=excluded.source_url, pdf_path=excluded.pdf_path`,
			meta.Key, meta.Title, string(authorsJSON), meta.Year,
			meta.DOI, meta.ArxivID, string(meta.Source), meta.SourceURL, meta.PDFPath,
		)
		if err != nil {
			return fmt.Errorf("upserting paper: %w", err)
		}
	} else {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO papers (key) VALUES (?)`, key,
		)
		if err != nil {
			return fmt.Errorf("inserting paper stub: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (paper_key, heading, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, sec := range sections {
		if _, err := stmt.ExecContext(ctx, key, sec.Heading, sec.Content); err != nil {
			return fmt.Errorf("inserting section %q: %w", sec.Heading, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (paper_key, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(paper_key) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		key, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

// Section is a heading-delimited span of extracted text.
type Section struct {
	Heading string
	Content string
}

// splitSections divides flattened text on its markdown-style headings.
// Text before the first heading lands in a section with an empty heading.
func splitSections(text string) []Section {
	var sections []Section
	var current Section
	var body []string

	flush := func() {
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Content != "" || current.Heading != "" {
			sections = append(sections, current)
		}
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			current = Section{Heading: strings.TrimSpace(strings.TrimLeft(trimmed, "#"))}
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}
