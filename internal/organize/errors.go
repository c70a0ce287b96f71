package organize

import (
	"fmt"
	"strings"
)

// ReconciliationError reports every disagreement Check found between the
// index and the filesystem: expected files that are missing from disk and
// on-disk paths ("orphans") no index row accounts for. Both directions are
// collected in full before failing.
type ReconciliationError struct {
	Missing []string // canonical paths required by index rows but absent
	Orphans []string // files and directories on disk with no matching row
}

// Error implements the error interface for ReconciliationError.
func (e *ReconciliationError) Error() string {
	var sb strings.Builder
	sb.WriteString("index and data directory disagree")
	if len(e.Missing) > 0 {
		sb.WriteString(fmt.Sprintf("; %d missing file(s):", len(e.Missing)))
		for _, path := range e.Missing {
			sb.WriteString("\n  missing: " + path)
		}
	}
	if len(e.Orphans) > 0 {
		sb.WriteString(fmt.Sprintf("; %d orphan path(s):", len(e.Orphans)))
		for _, path := range e.Orphans {
			sb.WriteString("\n  orphan: " + path)
		}
	}
	return sb.String()
}

// LookupError reports a staged file whose stem matches no index row.
type LookupError struct {
	Stem   string
	Column string
}

// Error implements the error interface for LookupError.
func (e *LookupError) Error() string {
	return fmt.Sprintf("staged file %q has no matching row in column %s", e.Stem, e.Column)
}
