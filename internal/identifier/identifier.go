// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identifier derives canonical PubMed Central identifiers from
// document references.
package identifier

import (
	"errors"
	"regexp"
)

// ErrIdentifierNotFound is returned when a reference carries no canonical identifier.
var ErrIdentifierNotFound = errors.New("no PMCID found in reference")

// pmcPattern matches "PMC" followed by digits anywhere in the input,
// e.g. "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC4136787/".
var pmcPattern = regexp.MustCompile(`(?i)PMC(\d+)`)

// Resolve returns the digit run of the first PMC identifier in reference.
func Resolve(reference string) (string, error) {
	m := pmcPattern.FindStringSubmatch(reference)
	if m == nil {
		return "", ErrIdentifierNotFound
	}
	return m[1], nil
}

// Prefixed returns id with its "PMC" prefix, the form used in filenames and
// log lines.
func Prefixed(id string) string {
	if id == "" {
		return ""
	}
	return "PMC" + id
}
