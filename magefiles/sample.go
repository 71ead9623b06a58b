//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	samplePaper = "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC4136787/"
	sampleCSV   = "https://raw.githubusercontent.com/jgalazka/SB_publications/refs/heads/main/SB_publication_PMC.csv"
)

// Sample extracts the reference paper into extracted_paper/.
func Sample() error {
	mg.Deps(Build)
	return sh.RunV("./bin/paper-extractor", "extract", samplePaper, "-o", "extracted_paper")
}

// SampleBatch resolves metadata for the first five rows of the space
// biology publications list into batch_output/.
func SampleBatch() error {
	mg.Deps(Build)
	return sh.RunV("./bin/paper-extractor", "batch", sampleCSV, "--limit", "5", "-o", "batch_output")
}
