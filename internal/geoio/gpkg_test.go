package geoio

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"
)

func TestWriteGPKG(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}}))
	fc.Append(geojson.NewFeature(orb.LineString{{2, 2}, {3, 1}}))

	path := filepath.Join(t.TempDir(), "sample_traces.gpkg")
	require.NoError(t, Write(fc, path, DriverGPKG))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var table string
	err = db.QueryRow(`SELECT table_name FROM gpkg_contents WHERE data_type = 'features'`).
		Scan(&table)
	require.NoError(t, err)
	require.Equal(t, "sample_traces", table)

	var srsID int
	err = db.QueryRow(
		`SELECT srs_id FROM gpkg_geometry_columns WHERE table_name = ?`, table).
		Scan(&srsID)
	require.NoError(t, err)
	require.Equal(t, 4326, srsID)

	rows, err := db.Query(`SELECT geom FROM "sample_traces" ORDER BY fid`)
	require.NoError(t, err)
	defer rows.Close()

	var geoms []orb.Geometry
	for rows.Next() {
		var blob []byte
		require.NoError(t, rows.Scan(&blob))
		require.GreaterOrEqual(t, len(blob), 8)
		require.Equal(t, byte('G'), blob[0])
		require.Equal(t, byte('P'), blob[1])

		geom, err := wkb.Unmarshal(blob[8:])
		require.NoError(t, err)
		geoms = append(geoms, geom)
	}
	require.NoError(t, rows.Err())

	require.Equal(t, []orb.Geometry{
		orb.LineString{{0, 0}, {1, 1}},
		orb.LineString{{2, 2}, {3, 1}},
	}, geoms)
}

func TestWriteGPKGEmptyCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty_traces.gpkg")
	require.NoError(t, Write(geojson.NewFeatureCollection(), path, DriverGPKG))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
