// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LocalExtractor pulls plain text straight out of the PDF content streams.
// It loses section structure and reference parsing, so it is only used
// when no GROBID service is configured.
type LocalExtractor struct{}

// Extract returns the concatenated text content of the PDF.
func (LocalExtractor) Extract(_ context.Context, pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text from %s: %w", pdfPath, err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, reader); err != nil {
		return "", fmt.Errorf("reading text from %s: %w", pdfPath, err)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("no extractable text in %s", pdfPath)
	}
	return text + "\n", nil
}
