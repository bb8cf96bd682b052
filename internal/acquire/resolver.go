// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire resolves bibliography entries to validated PDF files.
// It probes a local archive first, then tries external sources in a fixed
// priority order (Unpaywall by DOI, direct URLs, arXiv, title search),
// validating every download and recording an audit trail per entry.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/bibliograph/pkg/types"
)

// ErrNoResult means the source had no matching content. It is terminal for
// that source and distinct from a transport failure, which is retried.
var ErrNoResult = errors.New("no result from source")

// StatusError reports a non-2xx HTTP response from a source or candidate URL.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Code, e.URL)
}

// transient reports whether err warrants a retry and a network_error
// outcome rather than a terminal one. Transport errors and 5xx/429
// responses are transient; everything else is terminal.
func transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, ErrNoResult) && !errors.Is(err, ErrNotPDF)
}

// Resolver produces a candidate download URL for one external source.
// Implementations are pure with respect to entry state and perform at most
// one rate-limited metadata call; the PDF fetch itself is a separate step.
type Resolver interface {
	// Source names the strategy for rate limiting and the audit trail.
	Source() types.Source

	// Applicable reports whether the entry carries the identifier this
	// source needs. When false, the orchestrator skips the resolver
	// without a network call or an attempt record.
	Applicable(e types.BibEntry) bool

	// Resolve returns a candidate PDF URL for the entry. It returns
	// ErrNoResult when the source knows no copy.
	Resolve(ctx context.Context, e types.BibEntry) (string, error)
}

// DefaultResolvers returns the source strategies in mandated priority
// order: cheapest and most specific first.
func DefaultResolvers(client *http.Client, cfg types.AcquisitionConfig) []Resolver {
	return []Resolver{
		&UnpaywallResolver{Client: client, Email: cfg.ContactEmail, UserAgent: cfg.UserAgent},
		&DirectURLResolver{Client: client, UserAgent: cfg.UserAgent},
		&ArxivResolver{},
		&TitleSearchResolver{
			Client:    client,
			APIKey:    cfg.SemanticScholarAPIKey,
			UserAgent: cfg.UserAgent,
			Threshold: cfg.TitleSimilarityThreshold,
		},
	}
}
