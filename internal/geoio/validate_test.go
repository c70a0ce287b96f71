package geoio

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/lineament/tracerepo/internal/schema"
)

func collectionOf(geoms ...orb.Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range geoms {
		fc.Append(geojson.NewFeature(g))
	}
	return fc
}

func squareArea() *geojson.FeatureCollection {
	return collectionOf(orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}})
}

func TestValidateEmptyLayers(t *testing.T) {
	v := NewGeomValidator()

	corrected, validity, err := v.Validate(
		geojson.NewFeatureCollection(), squareArea(), "site_area", 0.001)
	require.NoError(t, err)
	require.Equal(t, schema.ValidityEmpty, validity)
	require.True(t, IsEmpty(corrected))

	_, validity, err = v.Validate(
		collectionOf(orb.LineString{{0, 0}, {1, 1}}), geojson.NewFeatureCollection(),
		"site_area", 0.001)
	require.NoError(t, err)
	require.Equal(t, schema.ValidityEmpty, validity)
}

func TestValidateOutOfRangeThreshold(t *testing.T) {
	v := NewGeomValidator()

	for _, threshold := range []float64{0, 1e-9, 1e9} {
		_, _, err := v.Validate(
			collectionOf(orb.LineString{{0, 0}, {1, 1}}), squareArea(), "site_area", threshold)
		require.Error(t, err, "threshold %g", threshold)
	}
}

func TestValidateCleanLines(t *testing.T) {
	v := NewGeomValidator()
	traces := collectionOf(
		orb.LineString{{0, 0}, {5, 5}},
		orb.LineString{{1, 0}, {6, 5}},
	)

	corrected, validity, err := v.Validate(traces, squareArea(), "site_area", 0.001)
	require.NoError(t, err)
	require.Equal(t, schema.ValidityValid, validity)
	require.Len(t, corrected.Features, 2)
}

func TestValidateRejectsNonLineGeometry(t *testing.T) {
	v := NewGeomValidator()
	traces := collectionOf(
		orb.LineString{{0, 0}, {5, 5}},
		orb.Point{2, 2},
	)

	_, validity, err := v.Validate(traces, squareArea(), "site_area", 0.001)
	require.NoError(t, err)
	require.Equal(t, schema.ValidityInvalid, validity)
}

func TestValidateSnapsCloseEndpoints(t *testing.T) {
	v := NewGeomValidator()
	// Two lines whose endpoints almost meet at (5, 5): the gap is below the
	// snap threshold and must be closed in the corrected copy.
	traces := collectionOf(
		orb.LineString{{0, 0}, {5, 5}},
		orb.LineString{{5.0005, 5.0005}, {9, 9}},
	)

	corrected, validity, err := v.Validate(traces, squareArea(), "site_area", 0.01)
	require.NoError(t, err)
	require.Equal(t, schema.ValidityValid, validity)

	second := corrected.Features[1].Geometry.(orb.LineString)
	require.Equal(t, orb.Point{5, 5}, second[0])

	// Input collection stays untouched.
	original := traces.Features[1].Geometry.(orb.LineString)
	require.Equal(t, orb.Point{5.0005, 5.0005}, original[0])
}

func TestValidateLeavesDistantEndpointsAlone(t *testing.T) {
	v := NewGeomValidator()
	traces := collectionOf(
		orb.LineString{{0, 0}, {5, 5}},
		orb.LineString{{5.5, 5.5}, {9, 9}},
	)

	corrected, validity, err := v.Validate(traces, squareArea(), "site_area", 0.01)
	require.NoError(t, err)
	require.Equal(t, schema.ValidityValid, validity)

	second := corrected.Features[1].Geometry.(orb.LineString)
	require.Equal(t, orb.Point{5.5, 5.5}, second[0])
}

func TestValidateDegenerateLine(t *testing.T) {
	v := NewGeomValidator()
	traces := collectionOf(orb.LineString{{3, 3}})

	_, validity, err := v.Validate(traces, squareArea(), "site_area", 0.001)
	require.NoError(t, err)
	require.Equal(t, schema.ValidityInvalid, validity)
}

func TestValidateMultiLineString(t *testing.T) {
	v := NewGeomValidator()
	traces := collectionOf(orb.MultiLineString{
		{{0, 0}, {5, 5}},
		{{5.0005, 5.0005}, {9, 9}},
	})

	corrected, validity, err := v.Validate(traces, squareArea(), "site_area", 0.01)
	require.NoError(t, err)
	require.Equal(t, schema.ValidityValid, validity)

	ml := corrected.Features[0].Geometry.(orb.MultiLineString)
	require.Equal(t, orb.Point{5, 5}, ml[1][0])
}
