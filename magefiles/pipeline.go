//go:build mage

package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// runCLI builds the binary if needed and runs it with the given arguments.
func runCLI(args ...string) error {
	mg.Deps(Build)
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Fetch downloads the PDFs for bibliography.bib into library/.
func Fetch() error {
	return runCLI("fetch", "bibliography.bib")
}

// Extract converts acquired PDFs to structured text via GROBID.
func Extract() error {
	return runCLI("extract")
}

// Index builds the full-text index over extracted paper text.
func Index() error {
	return runCLI("index")
}
