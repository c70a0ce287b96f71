// Package schema defines the column rules for the trace repository index
// (database.csv) and validates index rows against them.
//
// The schema is constructed once as an immutable value and shared by
// reference; validation never mutates the rows it is given.
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Filetype is the tracked file extension for all geodata in the repository.
const Filetype = "geojson"

// DatabaseCSV is the default index filename.
const DatabaseCSV = "database.csv"

// DatabaseSep is the column separator used by database.csv.
const DatabaseSep = ","

// Column identifies one column of database.csv. The area name is stored as
// the row key but is addressed through the same Column type.
type Column string

// Columns of database.csv, in persisted order.
const (
	ColArea          Column = "area"
	ColTraces        Column = "traces"
	ColThematic      Column = "thematic"
	ColScale         Column = "scale"
	ColAreaShape     Column = "area-shape"
	ColValidity      Column = "validity"
	ColSnapThreshold Column = "snap-threshold"
)

// AllColumns returns every column in persisted order, area key first.
func AllColumns() []Column {
	return []Column{
		ColArea,
		ColTraces,
		ColThematic,
		ColScale,
		ColAreaShape,
		ColValidity,
		ColSnapThreshold,
	}
}

// ColumnKind is the value type a column holds after coercion.
type ColumnKind int

const (
	// KindString is a plain string column.
	KindString ColumnKind = iota
	// KindFloat is a float64 column.
	KindFloat
)

// Kind returns the value kind for a column. Adding a column without
// extending this switch is a compile-visible gap: the default branch panics
// so misuse surfaces immediately in tests.
func (c Column) Kind() ColumnKind {
	switch c {
	case ColArea, ColTraces, ColThematic, ColScale, ColAreaShape, ColValidity:
		return KindString
	case ColSnapThreshold:
		return KindFloat
	default:
		panic(fmt.Sprintf("unknown column %q", string(c)))
	}
}

// AreaShape enumerates the area-shape column values.
type AreaShape string

// Area shape options in database.csv.
const (
	ShapeCircle AreaShape = "circle"
	ShapeOther  AreaShape = "other"
)

// AreaShapes returns every valid area-shape value.
func AreaShapes() []AreaShape {
	return []AreaShape{ShapeCircle, ShapeOther}
}

// Validity enumerates the validity column values.
type Validity string

// Validity states for a trace/area pair.
const (
	// ValidityEmpty marks a pair whose traces layer contains no geometry.
	ValidityEmpty Validity = "empty"
	// ValidityValid marks a pair that passed geometry validation.
	ValidityValid Validity = "valid"
	// ValidityInvalid marks a pair with validation errors requiring a fix.
	ValidityInvalid Validity = "invalid"
	// ValidityCritical marks a pair whose validation crashed.
	ValidityCritical Validity = "critical"
	// ValidityUnfit marks a pair that is geometrically valid but fails
	// independent attribute checks.
	ValidityUnfit Validity = "unfit"
)

// Validities returns every valid validity value.
func Validities() []Validity {
	return []Validity{
		ValidityEmpty,
		ValidityValid,
		ValidityInvalid,
		ValidityCritical,
		ValidityUnfit,
	}
}

// GeomKind distinguishes the two geometry dataset kinds tracked per row.
type GeomKind string

// Geometry kinds. The values double as canonical directory names.
const (
	KindTraces GeomKind = "traces"
	KindArea   GeomKind = "area"
)

// Name regexes. A dataset name is 2-50 lowercase alphanumeric/underscore
// characters; area and traces names additionally carry their kind suffix.
var (
	nameRe   = regexp.MustCompile(`^[a-z0-9_]{2,50}$`)
	areaRe   = regexp.MustCompile(`^[a-z0-9_]{2,50}_area$`)
	tracesRe = regexp.MustCompile(`^[a-z0-9_]{2,50}_traces$`)
)

// Snap threshold bounds.
const (
	SnapThresholdMin = 1e-8
	SnapThresholdMax = 1e8
)

// Row is one validated record of database.csv. Area is the row key.
type Row struct {
	Area          string
	Traces        string
	Thematic      string
	Scale         string
	AreaShape     AreaShape
	Validity      Validity
	SnapThreshold float64
}

// SchemaError reports a row that violates a column constraint.
type SchemaError struct {
	Area       string // row key, empty for table-level violations
	Column     Column
	Constraint string // description of the violated check
	Value      string // offending value rendered as a string
}

// Error implements the error interface for SchemaError.
func (e *SchemaError) Error() string {
	if e.Area == "" {
		return fmt.Sprintf("schema violation in column %s: %s (value %q)",
			e.Column, e.Constraint, e.Value)
	}
	return fmt.Sprintf("schema violation in row %s, column %s: %s (value %q)",
		e.Area, e.Column, e.Constraint, e.Value)
}

// Schema validates index rows column by column. The zero value is not
// usable; construct with New.
type Schema struct {
	nameRe   *regexp.Regexp
	areaRe   *regexp.Regexp
	tracesRe *regexp.Regexp
}

// New constructs the index schema. The returned value is immutable and safe
// to share.
func New() *Schema {
	return &Schema{
		nameRe:   nameRe,
		areaRe:   areaRe,
		tracesRe: tracesRe,
	}
}

// Validate checks every row against the column constraints and the area-name
// uniqueness requirement. It returns the first violation found as a
// *SchemaError, or nil when all rows conform.
func (s *Schema) Validate(rows []Row) error {
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if err := s.ValidateRow(row); err != nil {
			return err
		}
		if _, dup := seen[row.Area]; dup {
			return &SchemaError{
				Area:       row.Area,
				Column:     ColArea,
				Constraint: "area name must be unique",
				Value:      row.Area,
			}
		}
		seen[row.Area] = struct{}{}
	}
	return nil
}

// ValidateRow checks a single row against every column constraint.
func (s *Schema) ValidateRow(row Row) error {
	if !s.areaRe.MatchString(row.Area) {
		return violation(row.Area, ColArea, "must match "+s.areaRe.String(), row.Area)
	}
	if !s.tracesRe.MatchString(row.Traces) {
		return violation(row.Area, ColTraces, "must match "+s.tracesRe.String(), row.Traces)
	}
	if !s.nameRe.MatchString(row.Thematic) {
		return violation(row.Area, ColThematic, "must match "+s.nameRe.String(), row.Thematic)
	}
	if !s.nameRe.MatchString(row.Scale) {
		return violation(row.Area, ColScale, "must match "+s.nameRe.String(), row.Scale)
	}
	if !validAreaShape(row.AreaShape) {
		return violation(row.Area, ColAreaShape,
			"must be one of: "+joinShapes(), string(row.AreaShape))
	}
	if !validValidity(row.Validity) {
		return violation(row.Area, ColValidity,
			"must be one of: "+joinValidities(), string(row.Validity))
	}
	if row.SnapThreshold < SnapThresholdMin || row.SnapThreshold > SnapThresholdMax {
		return violation(row.Area, ColSnapThreshold,
			fmt.Sprintf("must be within [%g, %g]", SnapThresholdMin, SnapThresholdMax),
			fmt.Sprintf("%g", row.SnapThreshold))
	}
	return nil
}

func violation(area string, col Column, constraint, value string) *SchemaError {
	return &SchemaError{Area: area, Column: col, Constraint: constraint, Value: value}
}

func validAreaShape(v AreaShape) bool {
	for _, s := range AreaShapes() {
		if v == s {
			return true
		}
	}
	return false
}

func validValidity(v Validity) bool {
	for _, s := range Validities() {
		if v == s {
			return true
		}
	}
	return false
}

func joinShapes() string {
	vals := make([]string, 0, len(AreaShapes()))
	for _, s := range AreaShapes() {
		vals = append(vals, string(s))
	}
	return strings.Join(vals, ", ")
}

func joinValidities() string {
	vals := make([]string, 0, len(Validities()))
	for _, s := range Validities() {
		vals = append(vals, string(s))
	}
	return strings.Join(vals, ", ")
}

// ParseAreaShape converts a raw column value to an AreaShape.
func ParseAreaShape(raw string) (AreaShape, error) {
	v := AreaShape(raw)
	if !validAreaShape(v) {
		return "", fmt.Errorf("invalid area-shape %q, must be one of: %s", raw, joinShapes())
	}
	return v, nil
}

// ParseValidity converts a raw column value to a Validity.
func ParseValidity(raw string) (Validity, error) {
	v := Validity(raw)
	if !validValidity(v) {
		return "", fmt.Errorf("invalid validity %q, must be one of: %s", raw, joinValidities())
	}
	return v, nil
}
