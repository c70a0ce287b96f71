package geoio

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
)

// wgs84SRID is the only spatial reference the repository tracks.
const wgs84SRID = 4326

// writeGPKG writes a feature collection as a single-table GeoPackage.
// GeoPackage is a SQLite schema convention, so the whole export runs through
// the sqlite3 driver: metadata tables plus one feature table whose geometry
// column holds GPKG-header-prefixed WKB blobs.
func writeGPKG(fc *geojson.FeatureCollection, path string) error {
	table := tableName(path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to create geopackage at %s: %w", path, err)
	}
	defer db.Close()

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_contents (
			table_name TEXT PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			fid INTEGER PRIMARY KEY AUTOINCREMENT,
			geom BLOB
		)`, table),
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to open geopackage transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range ddl {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to prepare geopackage schema: %w", err)
		}
	}

	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO gpkg_spatial_ref_sys
			(srs_name, srs_id, organization, organization_coordsys_id, definition)
			VALUES ('WGS 84', ?, 'EPSG', ?, 'GEOGCS["WGS 84",DATUM["WGS_1984"]]')`,
		wgs84SRID, wgs84SRID,
	); err != nil {
		return fmt.Errorf("failed to register spatial reference: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO gpkg_contents (table_name, data_type, identifier, srs_id)
			VALUES (?, 'features', ?, ?)`,
		table, table, wgs84SRID,
	); err != nil {
		return fmt.Errorf("failed to register geopackage contents: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO gpkg_geometry_columns
			(table_name, column_name, geometry_type_name, srs_id, z, m)
			VALUES (?, 'geom', 'GEOMETRY', ?, 0, 0)`,
		table, wgs84SRID,
	); err != nil {
		return fmt.Errorf("failed to register geometry column: %w", err)
	}

	insert, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %q (geom) VALUES (?)`, table))
	if err != nil {
		return fmt.Errorf("failed to prepare feature insert: %w", err)
	}
	defer insert.Close()

	for _, feature := range fc.Features {
		blob, err := gpkgGeometryBlob(feature.Geometry)
		if err != nil {
			return fmt.Errorf("failed to encode feature geometry: %w", err)
		}
		if _, err := insert.Exec(blob); err != nil {
			return fmt.Errorf("failed to insert feature: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit geopackage %s: %w", path, err)
	}
	return nil
}

// gpkgGeometryBlob encodes a geometry as a GeoPackage binary blob: the GP
// header (magic, version, flags, srs id) followed by standard WKB.
func gpkgGeometryBlob(geom orb.Geometry) ([]byte, error) {
	wkbData, err := wkb.Marshal(geom)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 8)
	header[0] = 'G'
	header[1] = 'P'
	header[2] = 0          // version 1
	header[3] = 0x01       // little-endian, no envelope
	binary.LittleEndian.PutUint32(header[4:], uint32(wgs84SRID))

	return append(header, wkbData...), nil
}

// tableName derives the feature table name from the destination filename.
func tableName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem == "" {
		return "features"
	}
	return stem
}
