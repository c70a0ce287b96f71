// Package fileutil provides the directory scanning used to enumerate
// repository trees: staged datasets in the flat staging directory and the
// full file/directory listing of the canonical data root.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Extensions is a list of file extensions to include (e.g., ".geojson")
	Extensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files contains the paths of all matched files, sorted
	Files []string
	// Dirs contains the paths of all visited directories (excluding the
	// root itself), sorted; only populated for recursive scans
	Dirs []string
}

// ScanDirectory scans a directory for files matching the provided options.
// A missing directory is not an error; it yields an empty result, matching
// the semantics of an empty staging folder.
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return &ScanResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	// Extension map for fast lookup, normalized to leading-dot lowercase.
	extMap := make(map[string]bool)
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	result := &ScanResult{}
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			result.Dirs = append(result.Dirs, path)
			return nil
		}
		if len(extMap) > 0 && !extMap[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		result.Files = append(result.Files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	// Sorted for deterministic reporting.
	sort.Strings(result.Files)
	sort.Strings(result.Dirs)

	return result, nil
}
