// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package materialize

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/paper-extractor/pkg/types"
)

// tableShell wraps a table's markup verbatim.
const tableShell = "<html><head><meta charset='utf-8'></head><body>%s</body></html>"

// WriteTable writes the table's markup to tables/table_<n>.html and sets
// LocalPath on a. No network access is involved.
func (m *Materializer) WriteTable(a *types.Artifact) (string, error) {
	dir := filepath.Join(m.OutputDir, TablesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	dest := filepath.Join(dir, TableName(a.Number)+".html")
	if err := os.WriteFile(dest, []byte(fmt.Sprintf(tableShell, a.HTMLContent)), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	a.LocalPath = dest
	return dest, nil
}
