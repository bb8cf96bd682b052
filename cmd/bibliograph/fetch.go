// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibliograph/internal/acquire"
	"github.com/pdiddy/bibliograph/internal/bib"
	"github.com/pdiddy/bibliograph/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "bibliograph/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [bibliography.bib]",
	Short: "Download the PDFs behind a BibTeX bibliography",
	Long: `Fetch parses a BibTeX file, normalizes each entry, and tries to obtain
its PDF from open-access sources in priority order: Unpaywall (by DOI),
direct URLs from the entry, arXiv, then a title search via Semantic
Scholar. A local PDF archive can be probed first with --archive.

Already-acquired papers are skipped, so re-running after failures only
retries what is missing. Every run writes a manifest recording the
outcome and per-source attempts for each entry.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().String("archive", "", "local PDF archive to probe before any network source")
	fetchCmd.Flags().String("email", "", "contact email for the Unpaywall API (or .secrets/unpaywall-email)")
	fetchCmd.Flags().Float64("threshold", 0, "title similarity threshold for search results (default 0.85)")
	fetchCmd.Flags().Int("workers", 1, "concurrent acquisition workers")
	fetchCmd.Flags().StringArray("rate-limit", nil, "per-source request quota as source=calls, e.g. unpaywall=100")
	fetchCmd.Flags().Duration("rate-window", time.Minute, "window over which per-source quotas apply")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	raws, err := bib.Load(args[0])
	if err != nil {
		return err
	}
	entries, malformed := bib.NormalizeAll(raws)

	cfg, err := fetchConfig(cmd)
	if err != nil {
		return err
	}

	o := acquire.NewOrchestrator(cfg)
	manifest := o.AcquireAll(cmd.Context(), entries, malformed, os.Stdout)

	if err := acquire.WriteManifest(cfg.OutputRoot, manifest); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	fmt.Printf("Manifest written to %s\n", acquire.ManifestPath(cfg.OutputRoot))

	// Unresolved entries are recorded in the manifest, not treated as a
	// command failure.
	return nil
}

func fetchConfig(cmd *cobra.Command) (types.AcquisitionConfig, error) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("download_timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	archive, _ := cmd.Flags().GetString("archive")
	if archive == "" {
		archive = viper.GetString("local_archive_path")
	}
	email, _ := cmd.Flags().GetString("email")
	email = secretDefault("unpaywall-email", email)
	if email == "" {
		email = viper.GetString("contact_email")
	}
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if threshold == 0 {
		threshold = viper.GetFloat64("title_similarity_threshold")
	}
	workers, _ := cmd.Flags().GetInt("workers")
	window, _ := cmd.Flags().GetDuration("rate-window")

	limitsFlag, _ := cmd.Flags().GetStringArray("rate-limit")
	limits, err := parseRateLimits(limitsFlag)
	if err != nil {
		return types.AcquisitionConfig{}, err
	}
	// Config-file quotas fill in sources not set on the command line.
	for source, calls := range viper.GetStringMapString("rate_limits") {
		if _, ok := limits[source]; ok {
			continue
		}
		n, err := strconv.Atoi(calls)
		if err != nil {
			return types.AcquisitionConfig{}, fmt.Errorf("rate_limits.%s: %q is not a number", source, calls)
		}
		limits[source] = n
	}

	return types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		ContactEmail:             email,
		LocalArchivePath:         archive,
		OutputRoot:               outputRoot(),
		PerSourceRateLimit:       limits,
		RateLimitWindow:          window,
		TitleSimilarityThreshold: threshold,
		SemanticScholarAPIKey:    secretDefault("semantic-scholar-api-key", ""),
		Workers:                  workers,
	}, nil
}

func parseRateLimits(pairs []string) (map[string]int, error) {
	limits := make(map[string]int)
	for _, pair := range pairs {
		source, calls, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --rate-limit %q: expected source=calls", pair)
		}
		n, err := strconv.Atoi(calls)
		if err != nil {
			return nil, fmt.Errorf("invalid --rate-limit %q: %q is not a number", pair, calls)
		}
		limits[source] = n
	}
	return limits, nil
}
