// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package materialize

import (
	"fmt"

	"github.com/pdiddy/paper-extractor/pkg/types"
)

// FigureName is the file stem for a figure. Per-pass ordinals repeat, so
// the pass is part of the name under per-pass numbering.
func FigureName(a types.Artifact, scheme types.NumberingScheme) string {
	if scheme == types.NumberDocument || a.Pass == 0 {
		return fmt.Sprintf("figure_%d", a.Number)
	}
	return fmt.Sprintf("figure_%d-%d", a.Pass, a.Number)
}

// ImageName is the file stem for a standalone image.
func ImageName(n int) string {
	return fmt.Sprintf("image_%d", n)
}

// TableName is the file stem for a table.
func TableName(n int) string {
	return fmt.Sprintf("table_%d", n)
}
