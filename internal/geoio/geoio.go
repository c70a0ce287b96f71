// Package geoio reads and writes the vector geometry files tracked by the
// repository and implements the built-in geometry validator.
//
// GeoJSON is the repository's native format. Exports can additionally target
// GeoPackage, written directly through SQLite.
package geoio

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
)

// Driver names a supported output format.
type Driver string

// Supported drivers.
const (
	DriverGeoJSON Driver = "GeoJSON"
	DriverGPKG    Driver = "GPKG"
)

// DriverExtensions maps each supported driver to its file extension.
var DriverExtensions = map[Driver]string{
	DriverGeoJSON: ".geojson",
	DriverGPKG:    ".gpkg",
}

// Extension returns the file extension for the driver, or an error for an
// unsupported driver name.
func (d Driver) Extension() (string, error) {
	ext, ok := DriverExtensions[d]
	if !ok {
		return "", fmt.Errorf("unsupported driver %q, supported: %s, %s",
			string(d), DriverGeoJSON, DriverGPKG)
	}
	return ext, nil
}

// Read loads a GeoJSON feature collection from path.
func Read(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geodata at %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geodata at %s: %w", path, err)
	}
	return fc, nil
}

// Write persists a feature collection to path with the given driver.
func Write(fc *geojson.FeatureCollection, path string, driver Driver) error {
	switch driver {
	case DriverGeoJSON:
		return writeGeoJSON(fc, path)
	case DriverGPKG:
		return writeGPKG(fc, path)
	default:
		_, err := driver.Extension()
		return err
	}
}

func writeGeoJSON(fc *geojson.FeatureCollection, path string) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode geodata for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write geodata to %s: %w", path, err)
	}
	return nil
}

// IsEmpty reports whether a layer carries no features at all.
func IsEmpty(fc *geojson.FeatureCollection) bool {
	return fc == nil || len(fc.Features) == 0
}
