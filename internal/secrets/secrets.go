// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads NCBI E-utilities credentials from a directory of
// plain-text files. Each file holds one secret: the filename is the key and
// the trimmed contents are the value.
//
// Recognized keys: ncbi-api-key, ncbi-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-extractor/pkg/types"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

const (
	// KeyNCBIAPIKey raises the E-utilities rate limit when present.
	KeyNCBIAPIKey = "ncbi-api-key"
	// KeyNCBIEmail is the contact address NCBI asks registered tools to send.
	KeyNCBIEmail = "ncbi-email"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are
// logged and skipped.
func Load(dir string, logger zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply copies known credentials into cfg. Values already set on cfg (from
// the config file, environment, or flags) take precedence.
func Apply(cfg *types.MetadataConfig, secrets map[string]string) {
	if cfg.APIKey == "" {
		cfg.APIKey = secrets[KeyNCBIAPIKey]
	}
	if cfg.Email == "" {
		cfg.Email = secrets[KeyNCBIEmail]
	}
}
