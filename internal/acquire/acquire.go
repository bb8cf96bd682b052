// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdiddy/bibliograph/pkg/types"
)

const (
	pdfDir      = "pdfs"
	metadataDir = "metadata"

	// defaultRetryDelay is the backoff before the single retry of a
	// transient network failure.
	defaultRetryDelay = 2 * time.Second
)

// Orchestrator drives the prioritized resolution sequence for each entry:
// local cache probe, then each resolver in order, downloading and
// validating every candidate, short-circuiting on the first success. It
// holds no hidden state; the per-source Limits instance is the only shared
// mutable resource.
type Orchestrator struct {
	Client    *http.Client
	Resolvers []Resolver
	Limits    *Limits
	Cfg       types.AcquisitionConfig

	// Sleep is called once before retrying a transient network failure.
	// Tests inject a no-op to simulate failure without real delay.
	Sleep func(time.Duration)

	// RetryDelay is the backoff duration passed to Sleep.
	RetryDelay time.Duration
}

// NewOrchestrator wires an orchestrator with the default resolver set and
// per-source limits built from the configuration.
func NewOrchestrator(cfg types.AcquisitionConfig) *Orchestrator {
	client := NewDownloadClient(cfg.Timeout)
	return &Orchestrator{
		Client:     client,
		Resolvers:  DefaultResolvers(client, cfg),
		Limits:     NewLimits(cfg.PerSourceRateLimit, cfg.RateLimitWindow),
		Cfg:        cfg,
		Sleep:      time.Sleep,
		RetryDelay: defaultRetryDelay,
	}
}

// PDFPath returns the deterministic output location for a citation key.
func PDFPath(outputRoot, citationKey string) string {
	return filepath.Join(outputRoot, pdfDir, citationKey+".pdf")
}

// AcquireEntry resolves one entry to a validated local PDF. Re-running for
// an already-acquired entry short-circuits to success with zero attempts
// and zero network calls, so re-runs over a large bibliography are safe.
func (o *Orchestrator) AcquireEntry(ctx context.Context, e types.BibEntry, w io.Writer) types.AcquisitionResult {
	result := types.AcquisitionResult{EntryKey: e.CitationKey, Status: types.StatusUnresolved}
	dest := PDFPath(o.Cfg.OutputRoot, e.CitationKey)

	if _, err := os.Stat(dest); err == nil {
		fmt.Fprintf(w, "skipped: %s (already acquired)\n", e.CitationKey)
		result.Status = types.StatusAcquired
		result.LocalPath = dest
		return result
	}

	if hit := o.probeCache(e, dest); hit != nil {
		fmt.Fprintf(w, "acquired: %s (%s)\n", e.CitationKey, types.SourceLocalCache)
		result.Attempts = append(result.Attempts, *hit)
		result.Status = types.StatusAcquired
		result.LocalPath = dest
		o.writeMetadata(e, result, types.SourceLocalCache, "")
		return result
	}

	for _, r := range o.Resolvers {
		if !r.Applicable(e) {
			continue
		}

		source := r.Source()
		if !o.Limits.Allow(source) {
			result.Attempts = append(result.Attempts, types.ResolutionAttempt{
				Source:  source,
				Outcome: types.OutcomeRateLimited,
				Detail:  "per-source quota exhausted this window",
			})
			continue
		}

		start := time.Now()
		candidate, err := o.resolveWithRetry(ctx, r, e)
		if err != nil {
			outcome := types.OutcomeNetworkError
			if errors.Is(err, ErrNoResult) {
				outcome = types.OutcomeNotFound
			}
			result.Attempts = append(result.Attempts, types.ResolutionAttempt{
				Source:  source,
				Outcome: outcome,
				Elapsed: time.Since(start),
				Detail:  err.Error(),
			})
			continue
		}

		err = o.downloadWithRetry(ctx, candidate, dest)
		if err != nil {
			outcome := types.OutcomeInvalidContent
			if transient(err) {
				outcome = types.OutcomeNetworkError
			}
			result.Attempts = append(result.Attempts, types.ResolutionAttempt{
				Source:       source,
				Outcome:      outcome,
				CandidateURL: candidate,
				Elapsed:      time.Since(start),
				Detail:       err.Error(),
			})
			continue
		}

		result.Attempts = append(result.Attempts, types.ResolutionAttempt{
			Source:       source,
			Outcome:      types.OutcomeSuccess,
			CandidateURL: candidate,
			Elapsed:      time.Since(start),
		})
		result.Status = types.StatusAcquired
		result.LocalPath = dest
		fmt.Fprintf(w, "acquired: %s (%s)\n", e.CitationKey, source)
		o.writeMetadata(e, result, source, candidate)
		return result
	}

	fmt.Fprintf(w, "unresolved: %s (%d attempts)\n", e.CitationKey, len(result.Attempts))
	return result
}

// probeCache checks the configured local archive and, on a hit that passes
// PDF validation, copies it to dest. Misses and invalid files record no
// attempt; only a hit appears in the audit trail.
func (o *Orchestrator) probeCache(e types.BibEntry, dest string) *types.ResolutionAttempt {
	if o.Cfg.LocalArchivePath == "" {
		return nil
	}
	start := time.Now()
	src, ok := ProbeLocalArchive(o.Cfg.LocalArchivePath, e)
	if !ok || !HasPDFMagic(src) {
		return nil
	}
	if err := copyAtomic(src, dest); err != nil {
		return nil
	}
	return &types.ResolutionAttempt{
		Source:  types.SourceLocalCache,
		Outcome: types.OutcomeSuccess,
		Elapsed: time.Since(start),
	}
}

// resolveWithRetry invokes a resolver, retrying once with backoff when the
// failure is transient. Terminal outcomes (ErrNoResult) pass through.
func (o *Orchestrator) resolveWithRetry(ctx context.Context, r Resolver, e types.BibEntry) (string, error) {
	candidate, err := r.Resolve(ctx, e)
	if err == nil || !transient(err) {
		return candidate, err
	}
	o.Sleep(o.RetryDelay)
	return r.Resolve(ctx, e)
}

// downloadWithRetry fetches and validates a candidate, retrying once with
// backoff on transport-level failure. Validation failures are terminal for
// the URL and never retried.
func (o *Orchestrator) downloadWithRetry(ctx context.Context, candidate, dest string) error {
	err := Download(o.Client, candidate, dest, o.Cfg.UserAgent)
	if err == nil || !transient(err) {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	o.Sleep(o.RetryDelay)
	return Download(o.Client, candidate, dest, o.Cfg.UserAgent)
}

// AcquireAll resolves every entry and returns the manifest covering all of
// them. A bounded worker pool processes distinct entries concurrently;
// within one entry the sequence stays strictly sequential. Individual
// failures never abort the run.
func (o *Orchestrator) AcquireAll(ctx context.Context, entries []types.BibEntry, malformed []types.MalformedEntry, w io.Writer) types.Manifest {
	workers := o.Cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(entries) {
		workers = len(entries)
	}

	results := make([]types.AcquisitionResult, len(entries))
	sw := &syncWriter{w: w}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.AcquireEntry(ctx, entries[i], sw)
			}
		}()
	}

	// On interrupt, stop handing out work; already-acquired results stay
	// valid on disk and an idempotent re-run recovers.
feed:
	for i := range entries {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	m := types.Manifest{
		GeneratedAt: time.Now().UTC(),
		Results:     results,
		Malformed:   malformed,
	}
	for _, r := range results {
		if r.Status == types.StatusAcquired {
			m.Acquired++
		} else {
			m.Unresolved++
		}
	}

	fmt.Fprintf(w, "\nAcquisition summary: %d acquired, %d unresolved, %d excluded (total: %d)\n",
		m.Acquired, m.Unresolved, len(malformed), len(entries)+len(malformed))
	return m
}

// syncWriter serializes status lines from concurrent workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// copyAtomic copies src into dest via a temp file and rename, matching the
// download path's no-partial-file guarantee.
func copyAtomic(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening cached file: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, in)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("copying cached file: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
