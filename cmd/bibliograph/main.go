// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bibliograph CLI. It turns a
// BibTeX bibliography into a local library of PDFs, extracted text, and
// a searchable index through the fetch, extract, index, and query
// subcommands.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibliograph/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value
// for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// outputRoot resolves the pipeline base directory with flag over config
// file precedence.
func outputRoot() string {
	if f := rootCmd.PersistentFlags().Lookup("output-root"); f != nil && f.Changed {
		return f.Value.String()
	}
	if v := viper.GetString("output_root"); v != "" {
		return v
	}
	root, _ := rootCmd.PersistentFlags().GetString("output-root")
	return root
}

// rootCmd is the base command for the bibliograph CLI.
var rootCmd = &cobra.Command{
	Use:   "bibliograph",
	Short: "Turn a BibTeX bibliography into a searchable paper library",
	Long: `bibliograph acquires the PDFs behind a BibTeX bibliography, extracts
their text, and indexes it for full-text search.

Each pipeline stage is a subcommand: fetch downloads PDFs from open-access
sources, extract converts them to structured text, index builds a SQLite
full-text index, and query searches it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bibliograph.yaml or ~/.config/bibliograph/config.yaml)")
	rootCmd.PersistentFlags().String("output-root", "library", "base directory for pdfs/, metadata/, tei/, text/, index/")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bibliograph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bibliograph"))
		}
	}

	viper.SetEnvPrefix("BIBLIOGRAPH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
