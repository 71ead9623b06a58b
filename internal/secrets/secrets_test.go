// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-extractor/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyNCBIAPIKey, "  abc123def  \n")
				writeFile(t, dir, KeyNCBIEmail, "curator@example.org\n")
				return dir
			},
			want: map[string]string{
				KeyNCBIAPIKey: "abc123def",
				KeyNCBIEmail:  "curator@example.org",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyNCBIAPIKey, "valid-key")
				writeFile(t, dir, KeyNCBIEmail, "   \n\t  ")
				return dir
			},
			want: map[string]string{KeyNCBIAPIKey: "valid-key"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, KeyNCBIEmail, "a@b.c")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{KeyNCBIEmail: "a@b.c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, KeyNCBIEmail, "a@b.c")

	badPath := filepath.Join(dir, KeyNCBIAPIKey)
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got[KeyNCBIEmail])
	assert.NotContains(t, got, KeyNCBIAPIKey)
}

func TestApply(t *testing.T) {
	loaded := map[string]string{KeyNCBIAPIKey: "from-file", KeyNCBIEmail: "file@example.org"}

	var cfg types.MetadataConfig
	Apply(&cfg, loaded)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "file@example.org", cfg.Email)

	cfg = types.MetadataConfig{APIKey: "from-flag"}
	Apply(&cfg, loaded)
	assert.Equal(t, "from-flag", cfg.APIKey)
	assert.Equal(t, "file@example.org", cfg.Email)

	cfg = types.MetadataConfig{}
	Apply(&cfg, nil)
	assert.Empty(t, cfg.APIKey)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
