// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/bibliograph/pkg/types"
)

// probeBytes is how much of a candidate body the probe reads to check for
// PDF magic bytes when the content type is inconclusive.
const probeBytes = 1024

// DirectURLResolver probes the entry's own URLs in order and returns the
// first one that serves PDF content. The probe uses a ranged GET so a
// landing page is rejected without downloading the whole body.
type DirectURLResolver struct {
	Client    *http.Client
	UserAgent string
}

func (r *DirectURLResolver) Source() types.Source { return types.SourceDirectURL }

func (r *DirectURLResolver) Applicable(e types.BibEntry) bool { return len(e.URLs) > 0 }

// Resolve returns the first URL in the entry whose probe looks like a PDF.
// When every URL probes as non-PDF the source is terminal (ErrNoResult);
// when nothing passed and at least one probe failed at the transport level,
// the transport error is returned so the orchestrator can retry.
func (r *DirectURLResolver) Resolve(ctx context.Context, e types.BibEntry) (string, error) {
	var lastNetErr error
	for _, u := range e.URLs {
		ok, err := r.probePDF(ctx, u)
		if err != nil {
			lastNetErr = err
			continue
		}
		if ok {
			return u, nil
		}
	}
	if lastNetErr != nil {
		return "", fmt.Errorf("probing entry URLs: %w", lastNetErr)
	}
	return "", fmt.Errorf("no entry URL serves PDF content: %w", ErrNoResult)
}

// probePDF fetches the first KiB of a URL and reports whether the response
// resembles a PDF by content type or magic bytes.
func (r *DirectURLResolver) probePDF(ctx context.Context, u string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("creating probe request: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Accept", "application/pdf")
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", probeBytes-1))

	resp, err := r.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// A dead or paywalled link is terminal for this URL, not transient.
		return false, nil
	}

	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/pdf") {
		return true, nil
	}

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(resp.Body, head); err != nil {
		return false, nil
	}
	return bytes.Equal(head, pdfMagic), nil
}
