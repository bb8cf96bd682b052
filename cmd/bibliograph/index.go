// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibliograph/internal/knowledge"
	"github.com/pdiddy/bibliograph/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the full-text index over extracted paper text",
	Long: `Index ingests the extracted text files under the output root into a
SQLite database with FTS5 indexing, one row per section, joined with the
acquisition metadata. Unchanged papers are skipped on subsequent runs.

With --export the indexed paper catalog is also written to
index/catalog.yaml or catalog.json.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("export", "", "also export the paper catalog: yaml or json")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	store, err := knowledge.NewStore(types.IndexConfig{OutputRoot: outputRoot()})
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}

	export, _ := cmd.Flags().GetString("export")
	switch export {
	case "":
	case "yaml":
		if err := store.ExportYAML(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Catalog exported to index/catalog.yaml")
	case "json":
		if err := store.ExportJSON(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Catalog exported to index/catalog.json")
	default:
		return fmt.Errorf("unsupported export format %q: use yaml or json", export)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed indexing", summary.Failed)
	}
	return nil
}
