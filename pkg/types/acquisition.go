// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Source identifies one acquisition strategy. The set is closed; the
// orchestrator tries sources in a fixed priority order.
type Source string

const (
	SourceLocalCache  Source = "local_cache"
	SourceUnpaywall   Source = "unpaywall"
	SourceDirectURL   Source = "direct_url"
	SourceArxiv       Source = "arxiv"
	SourceTitleSearch Source = "title_search"
)

// Outcome classifies how one resolution attempt ended.
type Outcome string

const (
	// OutcomeSuccess means a validated PDF was written to the output path.
	OutcomeSuccess Outcome = "success"

	// OutcomeNotFound means the source had no matching content. Terminal
	// for that source; never retried.
	OutcomeNotFound Outcome = "not_found"

	// OutcomeInvalidContent means a candidate was fetched but failed PDF
	// validation (typically an HTML paywall page). Terminal for that URL.
	OutcomeInvalidContent Outcome = "invalid_content"

	// OutcomeRateLimited means the source's quota was exhausted and the
	// resolver was skipped without a network call.
	OutcomeRateLimited Outcome = "rate_limited"

	// OutcomeNetworkError means a transport-level failure survived one
	// retry with backoff.
	OutcomeNetworkError Outcome = "network_error"
)

// ResolutionAttempt is one append-only audit record for a source tried
// during an entry's resolution. The ordered attempt sequence explains
// exactly why a paper was or was not acquired.
type ResolutionAttempt struct {
	Source       Source        `json:"source" yaml:"source"`
	Outcome      Outcome       `json:"outcome" yaml:"outcome"`
	CandidateURL string        `json:"candidate_url,omitempty" yaml:"candidate_url,omitempty"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`

	// Detail carries the failure reason for non-success outcomes.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// AcquisitionStatus is the final disposition of one entry.
type AcquisitionStatus string

const (
	StatusAcquired   AcquisitionStatus = "acquired"
	StatusUnresolved AcquisitionStatus = "unresolved"
)

// AcquisitionResult records the outcome of resolving one BibEntry. It is
// immutable once the orchestrator returns it; exactly one exists per entry.
type AcquisitionResult struct {
	// EntryKey is the BibEntry citation key.
	EntryKey string `json:"entry_key" yaml:"entry_key"`

	// Status is acquired or unresolved.
	Status AcquisitionStatus `json:"status" yaml:"status"`

	// LocalPath is the validated PDF location. Populated only after
	// content validation passes.
	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`

	// Attempts lists every source tried, in real attempt order.
	Attempts []ResolutionAttempt `json:"attempts" yaml:"attempts"`
}

// MalformedEntry records a bibliography record excluded before resolution
// because it carried no identifying field at all.
type MalformedEntry struct {
	Key    string `json:"key" yaml:"key"`
	Reason string `json:"reason" yaml:"reason"`
}

// Manifest is the persisted record of a full acquisition run: one result
// per normalized entry, partitioned into acquired and unresolved, plus the
// entries excluded at normalization.
type Manifest struct {
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	Acquired    int                 `json:"acquired" yaml:"acquired"`
	Unresolved  int                 `json:"unresolved" yaml:"unresolved"`
	Results     []AcquisitionResult `json:"results" yaml:"results"`
	Malformed   []MalformedEntry    `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}
