// Package pathcomp compiles canonical repository paths for trace and area
// datasets and classifies dataset names by their kind suffix.
//
// The canonical layout is load-bearing for reconciliation:
//
//	<data-root>/<thematic>/<traces|area>/<scale>/<name>.geojson
package pathcomp

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lineament/tracerepo/internal/schema"
)

// DataDir is the canonical data directory name under the repository root.
const DataDir = "data"

// UnorganizedDir is the flat staging directory name under the repository root.
const UnorganizedDir = "unorganized"

// CompiledPath returns the canonical path for a dataset. Pure string join,
// no filesystem access.
func CompiledPath(root, thematic string, kind schema.GeomKind, scale, name string) string {
	return filepath.Join(root, thematic, string(kind), scale, name+"."+schema.Filetype)
}

// IdentifyGeomKind classifies a filename stem as a traces or area dataset by
// its suffix. The stem must be extension-free; a stem containing a dot or
// lacking a recognized suffix is an error.
func IdentifyGeomKind(stem string) (schema.GeomKind, error) {
	if strings.Contains(stem, ".") {
		return "", fmt.Errorf("expected extension-free filename stem, got %q", stem)
	}
	switch {
	case strings.HasSuffix(stem, "_area"):
		return schema.KindArea, nil
	case strings.HasSuffix(stem, "_traces"):
		return schema.KindTraces, nil
	default:
		return "", fmt.Errorf("expected %q to end in _area or _traces", stem)
	}
}
