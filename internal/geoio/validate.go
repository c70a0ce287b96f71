package geoio

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/lineament/tracerepo/internal/schema"
)

// GeomValidator is the built-in geometry validator for trace layers.
//
// It deliberately implements only the baseline classification the repository
// needs to track validity state: empty detection, line-geometry checks, and
// endpoint snapping within the snap threshold. Alternative validators plug
// in behind the validation.Validator interface.
type GeomValidator struct{}

// NewGeomValidator constructs the built-in validator.
func NewGeomValidator() *GeomValidator {
	return &GeomValidator{}
}

// Validate classifies a traces layer against its area layer, returning a
// possibly auto-corrected copy of the traces and the resulting validity.
// Endpoint pairs closer than snapThreshold are snapped together as part of
// correction. Errors indicate a crashed validation, not an invalid dataset.
func (v *GeomValidator) Validate(
	traces, area *geojson.FeatureCollection,
	name string,
	snapThreshold float64,
) (*geojson.FeatureCollection, schema.Validity, error) {
	if snapThreshold < schema.SnapThresholdMin || snapThreshold > schema.SnapThresholdMax {
		return nil, "", fmt.Errorf("snap threshold %g out of range for %s", snapThreshold, name)
	}

	if IsEmpty(traces) || IsEmpty(area) {
		return copyCollection(traces), schema.ValidityEmpty, nil
	}

	corrected := copyCollection(traces)

	// Non-line geometry in a traces layer is a data error, not a crash.
	for _, feature := range corrected.Features {
		switch feature.Geometry.(type) {
		case orb.LineString, orb.MultiLineString:
		default:
			return corrected, schema.ValidityInvalid, nil
		}
	}

	endpoints := collectEndpoints(corrected)
	invalid := false

	for _, feature := range corrected.Features {
		switch geom := feature.Geometry.(type) {
		case orb.LineString:
			line, ok := snapLine(geom, endpoints, snapThreshold)
			if !ok {
				invalid = true
				continue
			}
			feature.Geometry = line
		case orb.MultiLineString:
			snapped := make(orb.MultiLineString, 0, len(geom))
			for _, line := range geom {
				fixed, ok := snapLine(line, endpoints, snapThreshold)
				if !ok {
					invalid = true
					fixed = line
				}
				snapped = append(snapped, fixed)
			}
			feature.Geometry = snapped
		}
	}

	if invalid {
		return corrected, schema.ValidityInvalid, nil
	}
	return corrected, schema.ValidityValid, nil
}

// snapLine snaps both endpoints of a line to the nearest other endpoint
// within the threshold. Degenerate lines (fewer than two points, or zero
// length after snapping) are reported as unfixable.
func snapLine(line orb.LineString, endpoints []orb.Point, threshold float64) (orb.LineString, bool) {
	if len(line) < 2 {
		return line, false
	}

	snapped := make(orb.LineString, len(line))
	copy(snapped, line)

	for _, i := range []int{0, len(snapped) - 1} {
		if target, ok := nearestEndpoint(snapped[i], endpoints, threshold); ok {
			snapped[i] = target
		}
	}

	if snapped[0] == snapped[len(snapped)-1] && len(snapped) == 2 {
		return snapped, false
	}
	return snapped, true
}

// nearestEndpoint finds the closest distinct endpoint within threshold.
func nearestEndpoint(pt orb.Point, endpoints []orb.Point, threshold float64) (orb.Point, bool) {
	best := threshold
	var target orb.Point
	found := false
	for _, candidate := range endpoints {
		if candidate == pt {
			continue
		}
		if d := planar.Distance(pt, candidate); d > 0 && d < best {
			best = d
			target = candidate
			found = true
		}
	}
	return target, found
}

func collectEndpoints(fc *geojson.FeatureCollection) []orb.Point {
	var endpoints []orb.Point
	appendLine := func(line orb.LineString) {
		if len(line) >= 2 {
			endpoints = append(endpoints, line[0], line[len(line)-1])
		}
	}
	for _, feature := range fc.Features {
		switch geom := feature.Geometry.(type) {
		case orb.LineString:
			appendLine(geom)
		case orb.MultiLineString:
			for _, line := range geom {
				appendLine(line)
			}
		}
	}
	return endpoints
}

func copyCollection(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	copied := geojson.NewFeatureCollection()
	if fc == nil {
		return copied
	}
	for _, feature := range fc.Features {
		if feature.Geometry == nil {
			continue
		}
		cloned := geojson.NewFeature(orb.Clone(feature.Geometry))
		cloned.ID = feature.ID
		cloned.Properties = feature.Properties.Clone()
		copied.Append(cloned)
	}
	return copied
}
