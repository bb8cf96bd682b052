// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bibliograph/internal/knowledge"
	"github.com/pdiddy/bibliograph/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [terms...]",
	Short: "Search the indexed paper library",
	Long: `Query searches the full-text index using FTS5, structured filters
(author, year, paper key), or a combination of both. Full-text results
are ranked by relevance and include a highlighted snippet.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("author", "", "filter by author name substring")
	queryCmd.Flags().Int("year", 0, "filter by publication year")
	queryCmd.Flags().String("paper", "", "filter by citation key")
	queryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	author, _ := cmd.Flags().GetString("author")
	year, _ := cmd.Flags().GetInt("year")
	paper, _ := cmd.Flags().GetString("paper")
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	opts := knowledge.QueryOptions{
		Query:      strings.Join(args, " "),
		Author:     author,
		Year:       year,
		PaperKey:   paper,
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --author, --year, or --paper")
	}

	store, err := knowledge.NewStore(types.IndexConfig{OutputRoot: outputRoot(), MaxResults: limit})
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Retrieve(cmd.Context(), opts)
	if err != nil {
		return err
	}

	return formatQueryOutput(results, jsonOutput)
}

func formatQueryOutput(results []knowledge.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-20s  %s\n", "Rank", "Paper", "Section", "Snippet")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		paper := r.PaperKey
		if len(paper) > 20 {
			paper = paper[:17] + "..."
		}
		section := r.Heading
		if len(section) > 20 {
			section = section[:17] + "..."
		}
		snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
		if len(snippet) > 52 {
			snippet = snippet[:49] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-20s  %s\n", i+1, paper, section, snippet)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}
