// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibliograph/internal/extract"
	"github.com/pdiddy/bibliograph/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured text from acquired PDFs",
	Long: `Extract runs every PDF under the output root through a GROBID service
and flattens the resulting TEI XML into structured text files. Raw TEI
is kept alongside the text so re-runs skip the service call.

With --local the text is pulled directly from the PDF content streams
instead, which needs no service but loses section structure.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("grobid-url", "", "GROBID service URL (or .secrets/grobid-url, default http://localhost:8070)")
	extractCmd.Flags().Bool("local", false, "extract text locally instead of calling GROBID")
	extractCmd.Flags().Duration("delay", time.Second, "pause between GROBID requests")
	extractCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	local, _ := cmd.Flags().GetBool("local")
	delay, _ := cmd.Flags().GetDuration("delay")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	grobidURL, _ := cmd.Flags().GetString("grobid-url")
	if !local {
		grobidURL = secretDefault("grobid-url", grobidURL)
		if grobidURL == "" {
			grobidURL = "http://localhost:8070"
		}
	}

	cfg := types.ExtractionConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		GrobidURL:    grobidURL,
		OutputRoot:   outputRoot(),
		RequestDelay: delay,
	}

	var extractor extract.Extractor
	if local {
		extractor = extract.LocalExtractor{}
		cfg.RequestDelay = 0
	} else {
		g := &extract.GrobidExtractor{
			Client:    &http.Client{Timeout: cfg.Timeout},
			BaseURL:   cfg.GrobidURL,
			UserAgent: cfg.UserAgent,
			TEIDir:    filepath.Join(cfg.OutputRoot, "tei"),
		}
		if err := g.Alive(cmd.Context()); err != nil {
			return err
		}
		extractor = g
	}

	result, err := extract.ExtractAll(cmd.Context(), extractor, cfg.OutputRoot, cfg.RequestDelay, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed extraction", result.Failed)
	}
	return nil
}
