// Package index implements the tabular index ("the database") of the trace
// repository: validated area records, a cached per-column projection, and
// atomic replace-or-fail mutation.
package index

import (
	"fmt"
	"strconv"

	"github.com/lineament/tracerepo/internal/schema"
)

// LookupError reports an area name that has no row in the index.
type LookupError struct {
	AreaName string
}

// Error implements the error interface for LookupError.
func (e *LookupError) Error() string {
	return fmt.Sprintf("area %q not found in database", e.AreaName)
}

// Columns is the typed per-column projection of the index, including the
// area-name row key. Slices share one ordering with the underlying rows.
type Columns struct {
	Area          []string
	Traces        []string
	Thematic      []string
	Scale         []string
	AreaShape     []schema.AreaShape
	Validity      []schema.Validity
	SnapThreshold []float64
}

// Database is the validated tabular index. It is not safe for concurrent
// mutation; callers must serialize Update calls against one instance.
type Database struct {
	schema *schema.Schema
	rows   []schema.Row

	// columns is rebuilt lazily and dropped at the single mutation point.
	columns *Columns
}

// New constructs a Database from rows, validating the full schema eagerly.
// An invalid table fails with a *schema.SchemaError.
func New(rows []schema.Row) (*Database, error) {
	s := schema.New()
	if err := s.Validate(rows); err != nil {
		return nil, err
	}
	copied := make([]schema.Row, len(rows))
	copy(copied, rows)
	return &Database{schema: s, rows: copied}, nil
}

// Len returns the number of rows.
func (db *Database) Len() int {
	return len(db.rows)
}

// Rows returns a copy of the current rows in index order.
func (db *Database) Rows() []schema.Row {
	rows := make([]schema.Row, len(db.rows))
	copy(rows, db.rows)
	return rows
}

// Columns returns the per-column projection, building and caching it on
// first use. The cache is invalidated exactly when Update succeeds.
func (db *Database) Columns() *Columns {
	if db.columns == nil {
		db.columns = project(db.rows)
	}
	return db.columns
}

func project(rows []schema.Row) *Columns {
	cols := &Columns{
		Area:          make([]string, len(rows)),
		Traces:        make([]string, len(rows)),
		Thematic:      make([]string, len(rows)),
		Scale:         make([]string, len(rows)),
		AreaShape:     make([]schema.AreaShape, len(rows)),
		Validity:      make([]schema.Validity, len(rows)),
		SnapThreshold: make([]float64, len(rows)),
	}
	for i, row := range rows {
		cols.Area[i] = row.Area
		cols.Traces[i] = row.Traces
		cols.Thematic[i] = row.Thematic
		cols.Scale[i] = row.Scale
		cols.AreaShape[i] = row.AreaShape
		cols.Validity[i] = row.Validity
		cols.SnapThreshold[i] = row.SnapThreshold
	}
	return cols
}

// rowIndex finds the row position for an area name.
func (db *Database) rowIndex(areaName string) (int, error) {
	for i, row := range db.rows {
		if row.Area == areaName {
			return i, nil
		}
	}
	return 0, &LookupError{AreaName: areaName}
}

// Update overwrites the given columns of the row keyed by areaName, then
// re-validates the whole table before committing. A failed validation leaves
// the prior state untouched; a successful one swaps in the new rows and
// invalidates the column projection.
func (db *Database) Update(areaName string, values map[schema.Column]string) error {
	i, err := db.rowIndex(areaName)
	if err != nil {
		return err
	}

	// Mutate a full copy so the observable state is replace-or-fail.
	modified := make([]schema.Row, len(db.rows))
	copy(modified, db.rows)
	row := modified[i]

	for col, raw := range values {
		if err := applyValue(&row, col, raw); err != nil {
			return err
		}
	}
	modified[i] = row

	if err := db.schema.Validate(modified); err != nil {
		return err
	}

	db.rows = modified
	db.columns = nil
	return nil
}

// applyValue sets one column of a row from its raw string form. The switch
// is exhaustive over schema.Column.
func applyValue(row *schema.Row, col schema.Column, raw string) error {
	switch col {
	case schema.ColArea:
		row.Area = raw
	case schema.ColTraces:
		row.Traces = raw
	case schema.ColThematic:
		row.Thematic = raw
	case schema.ColScale:
		row.Scale = raw
	case schema.ColAreaShape:
		shape, err := schema.ParseAreaShape(raw)
		if err != nil {
			return err
		}
		row.AreaShape = shape
	case schema.ColValidity:
		validity, err := schema.ParseValidity(raw)
		if err != nil {
			return err
		}
		row.Validity = validity
	case schema.ColSnapThreshold:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid snap-threshold %q: %w", raw, err)
		}
		row.SnapThreshold = v
	default:
		return fmt.Errorf("unknown column %q", string(col))
	}
	return nil
}
