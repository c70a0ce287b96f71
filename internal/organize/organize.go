// Package organize implements the Organizer: the query/update engine over
// the tabular index and the reconciliation between index rows and the
// on-disk canonical layout.
package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lineament/tracerepo/internal/fileutil"
	"github.com/lineament/tracerepo/internal/filterop"
	"github.com/lineament/tracerepo/internal/index"
	"github.com/lineament/tracerepo/internal/pathcomp"
	"github.com/lineament/tracerepo/internal/schema"
)

// Layout fixes the repository directory shape the Organizer operates on.
type Layout struct {
	Root           string // repository root
	DataDir        string // canonical data directory name under Root
	UnorganizedDir string // staging directory name under Root
}

// DefaultLayout returns the canonical layout rooted at root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:           root,
		DataDir:        pathcomp.DataDir,
		UnorganizedDir: pathcomp.UnorganizedDir,
	}
}

// DataRoot returns the absolute canonical data directory.
func (l Layout) DataRoot() string {
	return filepath.Join(l.Root, l.DataDir)
}

// UnorganizedRoot returns the absolute staging directory.
func (l Layout) UnorganizedRoot() string {
	return filepath.Join(l.Root, l.UnorganizedDir)
}

// TracePair is one query result: the compiled paths of a trace/area pair
// together with the row's validity and snap threshold.
type TracePair struct {
	TracesPath    string
	AreaPath      string
	Validity      schema.Validity
	SnapThreshold float64
}

// AreaName derives the row key from the pair's area path.
func (p TracePair) AreaName() string {
	base := filepath.Base(p.AreaPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Criteria are the six query filters. Empty slices mean no restriction.
// String criteria match by substring, OR within one criterion; all criteria
// AND together.
type Criteria struct {
	Area      []string
	Traces    []string
	Thematic  []string
	Scale     []string
	AreaShape []schema.AreaShape
	Validity  []schema.Validity
}

// Organizer owns the tabular index and the repository layout. It is not
// safe for concurrent mutation; callers serialize Update calls.
type Organizer struct {
	layout Layout
	db     *index.Database
}

// New constructs an Organizer over an already-validated database.
func New(db *index.Database, layout Layout) *Organizer {
	return &Organizer{layout: layout, db: db}
}

// Database exposes the owned index for persistence by the caller.
func (o *Organizer) Database() *index.Database {
	return o.db
}

// Query applies the criteria over the index and compiles a TracePair for
// every accepted row, preserving index row order.
func (o *Organizer) Query(criteria Criteria) []TracePair {
	cols := o.db.Columns()

	// String-filter stage: AND across columns, OR within one column.
	accepted := filterop.JoinBools(
		filterop.MultiStringFilter(criteria.Area, cols.Area),
		filterop.MultiStringFilter(criteria.Traces, cols.Traces),
		filterop.MultiStringFilter(criteria.Thematic, cols.Thematic),
		filterop.MultiStringFilter(criteria.Scale, cols.Scale),
	)
	if !filterop.Any(accepted) {
		return nil
	}

	// Enum-filter stage against the running acceptance vector.
	accepted = filterop.EnumMembershipFilter(criteria.AreaShape, cols.AreaShape, accepted)
	accepted = filterop.EnumMembershipFilter(criteria.Validity, cols.Validity, accepted)
	if !filterop.Any(accepted) {
		return nil
	}

	dataRoot := o.layout.DataRoot()
	var pairs []TracePair
	for i, ok := range accepted {
		if !ok {
			continue
		}
		pairs = append(pairs, TracePair{
			TracesPath: pathcomp.CompiledPath(
				dataRoot, cols.Thematic[i], schema.KindTraces, cols.Scale[i], cols.Traces[i]),
			AreaPath: pathcomp.CompiledPath(
				dataRoot, cols.Thematic[i], schema.KindArea, cols.Scale[i], cols.Area[i]),
			Validity:      cols.Validity[i],
			SnapThreshold: cols.SnapThreshold[i],
		})
	}
	return pairs
}

// Update overwrites columns of the row keyed by areaName and re-validates
// the whole table before committing. Atomic replace-or-fail; the column
// projection is invalidated on success.
func (o *Organizer) Update(areaName string, values map[schema.Column]string) error {
	return o.db.Update(areaName, values)
}

// Unorganized lists staged files carrying the tracked extension, sorted for
// stable reporting.
func (o *Organizer) Unorganized() ([]string, error) {
	result, err := fileutil.ScanDirectory(o.layout.UnorganizedRoot(), fileutil.ScanOptions{
		Extensions: []string{"." + schema.Filetype},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list staging directory: %w", err)
	}
	return result.Files, nil
}

// Organize moves every staged file to its canonical destination, creating
// parent directories as needed. With simulate set, no file is touched and
// the returned descriptions are marked as simulated. A staged file whose
// stem matches no index row fails fast with a *LookupError.
func (o *Organizer) Organize(simulate bool) ([]string, error) {
	staged, err := o.Unorganized()
	if err != nil {
		return nil, err
	}

	cols := o.db.Columns()
	dataRoot := o.layout.DataRoot()
	var descriptions []string

	for _, path := range staged {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		kind, err := pathcomp.IdentifyGeomKind(stem)
		if err != nil {
			return descriptions, err
		}

		column := cols.Traces
		columnName := schema.ColTraces
		if kind == schema.KindArea {
			column = cols.Area
			columnName = schema.ColArea
		}
		rowIdx := indexOf(column, stem)
		if rowIdx < 0 {
			return descriptions, &LookupError{Stem: stem, Column: string(columnName)}
		}

		destination := pathcomp.CompiledPath(
			dataRoot, cols.Thematic[rowIdx], kind, cols.Scale[rowIdx], stem)

		if !simulate {
			if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
				return descriptions, fmt.Errorf("failed to create %s: %w",
					filepath.Dir(destination), err)
			}
			if err := os.Rename(path, destination); err != nil {
				return descriptions, fmt.Errorf("failed to move %s: %w", path, err)
			}
		}

		description := fmt.Sprintf("Moving %s to %s.", path, destination)
		if simulate {
			description += " --SIMULATION--"
		}
		descriptions = append(descriptions, description)
	}
	return descriptions, nil
}

// Check reconciles the index and the data directory in both directions.
// Every row's canonical trace and area paths must exist on disk, and every
// file or directory under the data root must be accounted for by a row.
// All missing paths and all orphans are collected before failing with a
// single *ReconciliationError.
func (o *Organizer) Check() error {
	cols := o.db.Columns()
	dataRoot := o.layout.DataRoot()

	// Forward direction: rows must have files.
	expectedFiles := make(map[string]struct{}, 2*len(cols.Area))
	expectedDirs := map[string]struct{}{}
	var missing []string

	for i := range cols.Area {
		for _, entry := range []struct {
			kind schema.GeomKind
			name string
		}{
			{schema.KindTraces, cols.Traces[i]},
			{schema.KindArea, cols.Area[i]},
		} {
			path := pathcomp.CompiledPath(dataRoot, cols.Thematic[i], entry.kind, cols.Scale[i], entry.name)
			expectedFiles[path] = struct{}{}
			if _, err := os.Stat(path); err != nil {
				missing = append(missing, path)
			}

			thematicDir := filepath.Join(dataRoot, cols.Thematic[i])
			kindDir := filepath.Join(thematicDir, string(entry.kind))
			scaleDir := filepath.Join(kindDir, cols.Scale[i])
			expectedDirs[thematicDir] = struct{}{}
			expectedDirs[kindDir] = struct{}{}
			expectedDirs[scaleDir] = struct{}{}
		}
	}

	// Reverse direction: files must have rows.
	var orphans []string
	scanned, err := fileutil.ScanDirectory(dataRoot, fileutil.ScanOptions{Recursive: true})
	if err != nil {
		return fmt.Errorf("failed to walk data directory %s: %w", dataRoot, err)
	}
	for _, dir := range scanned.Dirs {
		if _, ok := expectedDirs[dir]; !ok {
			orphans = append(orphans, dir)
		}
	}
	for _, file := range scanned.Files {
		if _, ok := expectedFiles[file]; !ok {
			orphans = append(orphans, file)
		}
	}

	if len(missing) > 0 || len(orphans) > 0 {
		sort.Strings(missing)
		sort.Strings(orphans)
		return &ReconciliationError{Missing: missing, Orphans: orphans}
	}
	return nil
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
