// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// pdfMagic is the byte prefix every genuine PDF starts with.
var pdfMagic = []byte("%PDF-")

// minPDFSize rejects near-empty bodies that carry the magic bytes but no
// document (truncated downloads, stub error pages).
const minPDFSize = 1024

// maxRedirects caps redirect chains when fetching candidate URLs.
const maxRedirects = 10

// ErrNotPDF means a candidate URL was fetched but its body failed PDF
// validation, commonly an HTML paywall or interstitial page.
var ErrNotPDF = errors.New("content is not a valid PDF")

// NewDownloadClient returns an HTTP client with the configured timeout and
// a bounded redirect chain, suitable for both metadata calls and PDF
// fetches.
func NewDownloadClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// Download fetches a candidate URL and writes it to destPath only if the
// body passes PDF validation: 2xx status, %PDF- magic prefix, and a minimum
// size. The body streams into a temporary file in the destination directory
// and is renamed into place atomically, so no partially written file is
// ever visible at destPath.
func Download(client *http.Client, url, destPath, userAgent string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, URL: url}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, vErr := copyValidated(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if vErr != nil {
		os.Remove(tmpPath)
		return vErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if n < minPDFSize {
		os.Remove(tmpPath)
		return fmt.Errorf("body is %d bytes, below sanity threshold: %w", n, ErrNotPDF)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// copyValidated streams body into w after checking the magic-byte prefix.
func copyValidated(w io.Writer, body io.Reader) (int64, error) {
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(body, head); err != nil {
		return 0, fmt.Errorf("body too short for PDF header: %w", ErrNotPDF)
	}
	if !bytes.Equal(head, pdfMagic) {
		return 0, fmt.Errorf("body starts with %q, not %q: %w", head, pdfMagic, ErrNotPDF)
	}

	if _, err := w.Write(head); err != nil {
		return 0, fmt.Errorf("writing download: %w", err)
	}
	n, err := io.Copy(w, body)
	if err != nil {
		return 0, fmt.Errorf("writing download: %w", err)
	}
	return n + int64(len(head)), nil
}

// HasPDFMagic reports whether the file at path starts with the PDF magic
// bytes. Used to vet local archive hits before trusting them.
func HasPDFMagic(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, pdfMagic)
}
