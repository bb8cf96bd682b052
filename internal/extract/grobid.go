// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// GrobidExtractor extracts structured text by sending PDFs to a GROBID
// service. When TEIDir is set, the raw TEI XML responses are persisted
// there and reused on later runs instead of calling the service again.
type GrobidExtractor struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string
	TEIDir    string
}

// Alive checks that the GROBID service responds on its health endpoint.
func (g *GrobidExtractor) Alive(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(g.BaseURL, "/")+"/api/isalive", nil)
	if err != nil {
		return err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("reaching GROBID at %s: %w", g.BaseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GROBID at %s is not healthy: status %d", g.BaseURL, resp.StatusCode)
	}
	return nil
}

// Extract converts a PDF to flattened structured text. The TEI XML is
// fetched from GROBID unless a persisted copy already exists.
func (g *GrobidExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	tei, err := g.teiFor(ctx, pdfPath)
	if err != nil {
		return "", err
	}
	return FlattenTEI(tei)
}

func (g *GrobidExtractor) teiFor(ctx context.Context, pdfPath string) ([]byte, error) {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))

	var teiPath string
	if g.TEIDir != "" {
		teiPath = filepath.Join(g.TEIDir, base+".tei.xml")
		if data, err := os.ReadFile(teiPath); err == nil {
			return data, nil
		}
	}

	tei, err := g.ProcessPDF(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	if teiPath != "" {
		if err := os.MkdirAll(g.TEIDir, 0o755); err == nil {
			os.WriteFile(teiPath, tei, 0o644)
		}
	}
	return tei, nil
}

// ProcessPDF submits the PDF to GROBID's full-text endpoint and returns
// the TEI XML response.
func (g *GrobidExtractor) ProcessPDF(ctx context.Context, pdfPath string) ([]byte, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := pdfFormFile(mw, filepath.Base(pdfPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(g.BaseURL, "/") + "/api/processFulltextDocument"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling GROBID: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GROBID returned status %d for %s", resp.StatusCode, filepath.Base(pdfPath))
	}
	return io.ReadAll(resp.Body)
}

// pdfFormFile creates the multipart part for the PDF with an explicit
// application/pdf content type, which GROBID requires.
func pdfFormFile(mw *multipart.Writer, filename string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="input"; filename=%q`, filename))
	h.Set("Content-Type", "application/pdf")
	return mw.CreatePart(h)
}
