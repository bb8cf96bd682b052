// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string.
	Query string

	// Author filters to papers with a matching author substring.
	Author string

	// Year filters to papers published in the given year.
	Year int

	// PaperKey filters to a single paper.
	PaperKey string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Author == "" && q.Year == 0 && q.PaperKey == ""
}

// QueryResult is a matching section with its paper metadata. Snippet
// holds the highlighted FTS excerpt for full-text queries and the leading
// section text otherwise.
type QueryResult struct {
	PaperKey     string   `json:"paper_key" yaml:"paper_key"`
	PaperTitle   string   `json:"paper_title" yaml:"paper_title"`
	PaperAuthors []string `json:"paper_authors" yaml:"paper_authors"`
	Year         int      `json:"year,omitempty" yaml:"year,omitempty"`
	Heading      string   `json:"heading" yaml:"heading"`
	Snippet      string   `json:"snippet" yaml:"snippet"`
}

// Retrieve queries the index with optional full-text search and
// structured filters. Full-text results are ranked by relevance;
// structured-only results are sorted by paper key and heading.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT sec.paper_key, p.title, p.authors, p.year, sec.heading,
				snippet(sections_fts, 0, '[', ']', ' ... ', 16)
			FROM sections_fts
			JOIN sections sec ON sec.rowid = sections_fts.rowid
			LEFT JOIN papers p ON sec.paper_key = p.key
			WHERE sections_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT sec.paper_key, p.title, p.authors, p.year, sec.heading,
				substr(sec.content, 1, 200)
			FROM sections sec
			LEFT JOIN papers p ON sec.paper_key = p.key
			WHERE 1=1`)
	}

	if opts.PaperKey != "" {
		qb.WriteString(` AND sec.paper_key = ?`)
		args = append(args, opts.PaperKey)
	}

	if opts.Author != "" {
		qb.WriteString(` AND p.authors LIKE ?`)
		args = append(args, "%"+opts.Author+"%")
	}

	if opts.Year != 0 {
		qb.WriteString(` AND p.year = ?`)
		args = append(args, opts.Year)
	}

	if useFTS {
		qb.WriteString(` ORDER BY sections_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY sec.paper_key, sec.heading`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			paperTitle  sql.NullString
			authorsJSON sql.NullString
			year        sql.NullInt64
			heading     sql.NullString
		)

		if err := rows.Scan(&qr.PaperKey, &paperTitle, &authorsJSON, &year, &heading, &qr.Snippet); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if paperTitle.Valid {
			qr.PaperTitle = paperTitle.String
		}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &qr.PaperAuthors)
		}
		if year.Valid {
			qr.Year = int(year.Int64)
		}
		if heading.Valid {
			qr.Heading = heading.String
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}
