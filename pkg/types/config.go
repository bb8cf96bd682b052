// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bibliograph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AcquisitionConfig holds settings for the acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// ContactEmail identifies the caller to metadata APIs that grant
	// polite-pool rate limits (Unpaywall requires it).
	ContactEmail string `json:"contact_email" yaml:"contact_email"`

	// LocalArchivePath is an optional reference-manager storage folder
	// probed for existing PDFs before any network call.
	LocalArchivePath string `json:"local_archive_path,omitempty" yaml:"local_archive_path,omitempty"`

	// OutputRoot is the base directory for pipeline output
	// (contains pdfs/, metadata/, tei/, text/, index/).
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// PerSourceRateLimit maps a source name to the number of metadata
	// calls allowed per RateLimitWindow. Sources without an entry are
	// unthrottled.
	PerSourceRateLimit map[string]int `json:"per_source_rate_limit,omitempty" yaml:"per_source_rate_limit,omitempty"`

	// RateLimitWindow is the quota window for PerSourceRateLimit (default 1m).
	RateLimitWindow time.Duration `json:"rate_limit_window" yaml:"rate_limit_window"`

	// TitleSimilarityThreshold is the minimum token-set similarity for
	// accepting a title-search match (default 0.85).
	TitleSimilarityThreshold float64 `json:"title_similarity_threshold" yaml:"title_similarity_threshold"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// Workers bounds the number of entries resolved concurrently (default 1).
	Workers int `json:"workers" yaml:"workers"`
}

// ExtractionConfig holds settings for the text-extraction stage.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// GrobidURL is the GROBID service base URL. Empty selects the local
	// plain-text fallback backend.
	GrobidURL string `json:"grobid_url,omitempty" yaml:"grobid_url,omitempty"`

	// OutputRoot is the pipeline base directory (reads pdfs/, writes tei/ and text/).
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// RequestDelay is the pause between consecutive GROBID calls (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// IndexConfig holds settings for the knowledge index stage.
type IndexConfig struct {
	// OutputRoot is the pipeline base directory (reads text/ and metadata/,
	// writes index/).
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
