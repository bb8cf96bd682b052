// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeExtractor implements Extractor with canned text or a per-path error.
type fakeExtractor struct {
	output string
	errors map[string]error
	calls  []string
}

func (f *fakeExtractor) Extract(_ context.Context, pdfPath string) (string, error) {
	f.calls = append(f.calls, pdfPath)
	if err, ok := f.errors[filepath.Base(pdfPath)]; ok {
		return "", err
	}
	return f.output, nil
}

func setupPDFs(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, pdfDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4 fake"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestExtractPaper(t *testing.T) {
	tests := []struct {
		name       string
		extractor  *fakeExtractor
		preCreate  bool
		wantStatus Status
		wantLog    string
	}{
		{
			name:       "successful extraction",
			extractor:  &fakeExtractor{output: "# Title\n\nBody."},
			wantStatus: StatusDone,
			wantLog:    "extracted:",
		},
		{
			name:       "skip existing text",
			extractor:  &fakeExtractor{output: "should not be called"},
			preCreate:  true,
			wantStatus: StatusSkipped,
			wantLog:    "skipped:",
		},
		{
			name:       "extraction failure",
			extractor:  &fakeExtractor{errors: map[string]error{"paper1.pdf": errors.New("service down")}},
			wantStatus: StatusFailed,
			wantLog:    "failed:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := setupPDFs(t, "paper1.pdf")
			if tt.preCreate {
				if err := os.MkdirAll(filepath.Join(root, textDir), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(TextPath(root, "paper1"), []byte("existing"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			var log bytes.Buffer
			status := ExtractPaper(context.Background(), tt.extractor, filepath.Join(root, pdfDir, "paper1.pdf"), root, &log)

			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if !strings.Contains(log.String(), tt.wantLog) {
				t.Errorf("log output %q does not contain %q", log.String(), tt.wantLog)
			}
			if tt.preCreate && len(tt.extractor.calls) != 0 {
				t.Error("extractor called despite existing output")
			}
		})
	}
}

func TestExtractAll(t *testing.T) {
	root := setupPDFs(t, "a.pdf", "b.pdf", "c.pdf")

	// Pre-create output for "b" to trigger skip.
	if err := os.MkdirAll(filepath.Join(root, textDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(TextPath(root, "b"), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	ext := &fakeExtractor{
		output: "# Text",
		errors: map[string]error{"c.pdf": errors.New("bad pdf")},
	}

	var log bytes.Buffer
	result, err := ExtractAll(context.Background(), ext, root, 0, &log)
	if err != nil {
		t.Fatalf("ExtractAll returned error: %v", err)
	}

	if result.Extracted != 1 || result.Skipped != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want 1/1/1", result)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if result.Total() != 3 {
		t.Errorf("total = %d, want 3", result.Total())
	}
	if !strings.Contains(log.String(), "Extraction summary:") {
		t.Error("output should contain the summary line")
	}
	if _, err := os.Stat(TextPath(root, "a")); err != nil {
		t.Errorf("expected text output for a: %v", err)
	}
}

func TestExtractAllCancelled(t *testing.T) {
	root := setupPDFs(t, "a.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ext := &fakeExtractor{output: "text"}
	if _, err := ExtractAll(ctx, ext, root, 0, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(ext.calls) != 0 {
		t.Error("extractor called after cancellation")
	}
}
