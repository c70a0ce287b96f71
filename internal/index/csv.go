package index

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lineament/tracerepo/internal/filelock"
	"github.com/lineament/tracerepo/internal/pathcomp"
	"github.com/lineament/tracerepo/internal/schema"
)

// ReadCSV loads database.csv from path and validates it against the schema.
// A malformed or schema-violating file fails fast rather than loading
// silently.
func ReadCSV(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database at %s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = rune(schema.DatabaseSep[0])
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed database at %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("database at %s has no header row", path)
	}

	if err := checkHeader(records[0]); err != nil {
		return nil, fmt.Errorf("database at %s: %w", path, err)
	}

	rows := make([]schema.Row, 0, len(records)-1)
	for lineNo, record := range records[1:] {
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("database at %s, data row %d: %w", path, lineNo+1, err)
		}
		rows = append(rows, row)
	}

	return New(rows)
}

// WriteCSV validates the database and persists it to path. The write goes
// through a file lock and an atomic temp-file rename.
func WriteCSV(path string, db *Database) error {
	rows := db.Rows()
	if err := schema.New().Validate(rows); err != nil {
		return err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = rune(schema.DatabaseSep[0])

	if err := writer.Write(header()); err != nil {
		return fmt.Errorf("failed to write database header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Area,
			row.Traces,
			row.Thematic,
			row.Scale,
			string(row.AreaShape),
			string(row.Validity),
			strconv.FormatFloat(row.SnapThreshold, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write database row %s: %w", row.Area, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}

	return filelock.LockAndWrite(path, buf.Bytes())
}

// Scaffold creates the on-disk skeleton for a new repository: the staging
// and data directories plus an empty validated database.
func Scaffold(root string) (*Database, error) {
	for _, dir := range []string{pathcomp.UnorganizedDir, pathcomp.DataDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to scaffold %s under %s: %w", dir, root, err)
		}
	}
	return New(nil)
}

func header() []string {
	cols := schema.AllColumns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = string(col)
	}
	return names
}

func checkHeader(record []string) error {
	expected := header()
	if len(record) != len(expected) {
		return fmt.Errorf("expected %d header columns, got %d", len(expected), len(record))
	}
	for i, name := range expected {
		if record[i] != name {
			return fmt.Errorf("expected header column %d to be %q, got %q", i, name, record[i])
		}
	}
	return nil
}

func parseRecord(record []string) (schema.Row, error) {
	if len(record) != len(schema.AllColumns()) {
		return schema.Row{}, fmt.Errorf("expected %d columns, got %d",
			len(schema.AllColumns()), len(record))
	}
	shape, err := schema.ParseAreaShape(record[4])
	if err != nil {
		return schema.Row{}, err
	}
	validity, err := schema.ParseValidity(record[5])
	if err != nil {
		return schema.Row{}, err
	}
	snap, err := strconv.ParseFloat(record[6], 64)
	if err != nil {
		return schema.Row{}, fmt.Errorf("invalid snap-threshold %q: %w", record[6], err)
	}
	return schema.Row{
		Area:          record[0],
		Traces:        record[1],
		Thematic:      record[2],
		Scale:         record[3],
		AreaShape:     shape,
		Validity:      validity,
		SnapThreshold: snap,
	}, nil
}
