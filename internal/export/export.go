// Package export converts query result sets into alternate geospatial
// formats under a parallel directory tree.
//
// Renamed destinations keep the canonical relative structure and swap only
// the root directory and the extension. Conversion failures are per-file:
// logged, recorded, and skipped, never fatal to the batch.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lineament/tracerepo/internal/geoio"
	"github.com/lineament/tracerepo/internal/organize"
)

// Logger is the subset of logging export needs. A nil Logger disables
// logging.
type Logger interface {
	LogInfo(message string)
	LogError(message string)
}

// Report records the outcome of converting one source file.
type Report struct {
	Source      string
	Destination string
	Skipped     bool  // destination already existed
	Err         error // conversion failure, nil on success
}

// ExportDirName derives the default export directory name for a driver,
// e.g. "exported_gpkg".
func ExportDirName(driver geoio.Driver) string {
	sanitized := strings.ToLower(strings.ReplaceAll(string(driver), " ", "_"))
	return "exported_" + sanitized
}

// RenamePath maps a canonical data path to its export destination: the data
// root prefix is replaced by destRoot and the extension by the driver's.
func RenamePath(path, dataRoot, destRoot string, driver geoio.Driver) (string, error) {
	ext, err := driver.Extension()
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(dataRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is not under data root %s", path, dataRoot)
	}
	renamed := filepath.Join(destRoot, rel)
	return strings.TrimSuffix(renamed, filepath.Ext(renamed)) + ext, nil
}

// PrepareDestination clears an existing export directory when overwrite is
// allowed, and fails otherwise.
func PrepareDestination(destRoot string, overwrite bool, logger Logger) error {
	if _, err := os.Stat(destRoot); os.IsNotExist(err) {
		return nil
	}
	if !overwrite {
		return fmt.Errorf("directory already exists at %s and overwrite is not allowed", destRoot)
	}
	if logger != nil {
		logger.LogInfo(fmt.Sprintf("Removing directory %s recursively", destRoot))
	}
	if err := os.RemoveAll(destRoot); err != nil {
		return fmt.Errorf("failed to remove existing export directory %s: %w", destRoot, err)
	}
	return nil
}

// Run converts every file referenced by the pairs into destRoot with the
// given driver. Each physical source is converted exactly once; an existing
// destination is skipped; a per-file failure is recorded and the batch
// continues.
func Run(pairs []organize.TracePair, dataRoot, destRoot string, driver geoio.Driver, logger Logger) ([]Report, error) {
	if _, err := driver.Extension(); err != nil {
		return nil, err
	}

	// Dedupe sources: the same traces file may serve multiple areas.
	seen := make(map[string]struct{}, 2*len(pairs))
	var sources []string
	for _, pair := range pairs {
		for _, src := range []string{pair.TracesPath, pair.AreaPath} {
			if _, dup := seen[src]; dup {
				continue
			}
			seen[src] = struct{}{}
			sources = append(sources, src)
		}
	}

	reports := make([]Report, 0, len(sources))
	for _, src := range sources {
		report := convertOne(src, dataRoot, destRoot, driver, logger)
		reports = append(reports, report)
	}
	return reports, nil
}

func convertOne(src, dataRoot, destRoot string, driver geoio.Driver, logger Logger) Report {
	dest, err := RenamePath(src, dataRoot, destRoot, driver)
	if err != nil {
		return Report{Source: src, Err: err}
	}
	report := Report{Source: src, Destination: dest}

	if _, err := os.Stat(src); err != nil {
		report.Err = fmt.Errorf("expected source to exist at %s: %w", src, err)
		logFailure(logger, report)
		return report
	}

	// Already exported on a previous run.
	if _, err := os.Stat(dest); err == nil {
		if logger != nil {
			logger.LogInfo(fmt.Sprintf("Dataset already exists at %s", dest))
		}
		report.Skipped = true
		return report
	}

	fc, err := geoio.Read(src)
	if err != nil {
		report.Err = err
		logFailure(logger, report)
		return report
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		report.Err = fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
		logFailure(logger, report)
		return report
	}

	if err := geoio.Write(fc, dest, driver); err != nil {
		report.Err = err
		logFailure(logger, report)
		return report
	}

	if logger != nil {
		logger.LogInfo(fmt.Sprintf("Saved %s with driver %s", dest, driver))
	}
	return report
}

func logFailure(logger Logger, report Report) {
	if logger != nil {
		logger.LogError(fmt.Sprintf("Failed to convert %s to %s: %v",
			report.Source, report.Destination, report.Err))
	}
}
