// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns acquired PDFs into structured plain text. The
// primary backend is a GROBID service; a local extractor serves as a
// degraded fallback when no service is reachable.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// pdfDir is the subdirectory under the output root holding acquired PDFs.
	pdfDir = "pdfs"
	// textDir is the subdirectory for flattened plain-text output.
	textDir = "text"
	// teiDir is the subdirectory for raw TEI XML from GROBID.
	teiDir = "tei"
)

// Extractor produces structured plain text from a PDF file. Backends
// (GROBID, local) implement this interface.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string) (string, error)
}

// Status reports the outcome of extracting a single paper.
type Status int

const (
	StatusDone Status = iota
	StatusSkipped
	StatusFailed
)

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the total number of papers processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// TextPath returns the plain-text output path for a citation key.
func TextPath(outputRoot, key string) string {
	return filepath.Join(outputRoot, textDir, key+".txt")
}

// ExtractPaper extracts a single PDF to plain text under the output root.
// Papers whose text output already exists are skipped, so re-runs only do
// new work.
func ExtractPaper(ctx context.Context, e Extractor, pdfPath, outputRoot string, w io.Writer) Status {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	txtPath := TextPath(outputRoot, base)

	if _, err := os.Stat(txtPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already extracted)\n", base)
		return StatusSkipped
	}

	if err := os.MkdirAll(filepath.Dir(txtPath), 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	text, err := e.Extract(ctx, pdfPath)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return StatusFailed
	}

	fmt.Fprintf(w, "extracted: %s\n", base)
	return StatusDone
}

// ExtractAll runs the extractor over every PDF under outputRoot/pdfs in
// lexical order, pausing delay between service calls. It stops early if
// the context is cancelled.
func ExtractAll(ctx context.Context, e Extractor, outputRoot string, delay time.Duration, w io.Writer) (BatchResult, error) {
	var result BatchResult

	pdfs, err := filepath.Glob(filepath.Join(outputRoot, pdfDir, "*.pdf"))
	if err != nil {
		return result, fmt.Errorf("listing PDFs: %w", err)
	}
	sort.Strings(pdfs)

	for _, p := range pdfs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		status := ExtractPaper(ctx, e, p, outputRoot, w)
		switch status {
		case StatusDone:
			result.Extracted++
			if delay > 0 {
				time.Sleep(delay)
			}
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		}
	}

	fmt.Fprintf(w, "\nExtraction summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		result.Extracted, result.Skipped, result.Failed, result.Total())
	return result, nil
}
