package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/lineament/tracerepo/internal/organize"
	"github.com/lineament/tracerepo/internal/schema"
)

// stubValidator classifies by dataset name so tests can script outcomes.
type stubValidator struct {
	mu      sync.Mutex
	calls   []string
	outcome func(name string) (schema.Validity, error)
}

func (s *stubValidator) Validate(traces, area *geojson.FeatureCollection, name string, snapThreshold float64) (*geojson.FeatureCollection, schema.Validity, error) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()

	if s.outcome != nil {
		validity, err := s.outcome(name)
		return traces, validity, err
	}
	return traces, schema.ValidityValid, nil
}

func (s *stubValidator) called() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func lineCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}}))
	return fc
}

func pair(n int) organize.TracePair {
	return organize.TracePair{
		TracesPath:    fmt.Sprintf("data/them/traces/20m/site_%d_traces.geojson", n),
		AreaPath:      fmt.Sprintf("data/them/area/20m/site_%d_area.geojson", n),
		Validity:      schema.ValidityInvalid,
		SnapThreshold: 0.001,
	}
}

// testOrchestrator wires in-memory layers so no filesystem is involved.
func testOrchestrator(v Validator, workers int) (*Orchestrator, map[string]*geojson.FeatureCollection) {
	written := make(map[string]*geojson.FeatureCollection)
	var mu sync.Mutex

	o := New(v, nil, workers)
	o.read = func(path string) (*geojson.FeatureCollection, error) {
		return lineCollection(), nil
	}
	o.write = func(fc *geojson.FeatureCollection, path string) error {
		mu.Lock()
		defer mu.Unlock()
		written[path] = fc
		return nil
	}
	return o, written
}

func TestValidateWorklistOrderAndIsolation(t *testing.T) {
	// The middle pair fails critically; its neighbors must be unaffected
	// and the result order must follow the input order.
	boom := errors.New("validator crashed")
	v := &stubValidator{outcome: func(name string) (schema.Validity, error) {
		if name == "site_2_area" {
			return "", boom
		}
		return schema.ValidityValid, nil
	}}
	o, written := testOrchestrator(v, 2)

	pairs := []organize.TracePair{pair(1), pair(2), pair(3)}
	instructions := o.ValidateWorklist(context.Background(), pairs)

	require.Len(t, instructions, 3)
	require.Equal(t, "site_1_area", instructions[0].AreaName)
	require.Equal(t, "site_2_area", instructions[1].AreaName)
	require.Equal(t, "site_3_area", instructions[2].AreaName)

	require.Equal(t, string(schema.ValidityValid), instructions[0].Values[schema.ColValidity])
	require.Equal(t, string(schema.ValidityCritical), instructions[1].Values[schema.ColValidity])
	require.Equal(t, string(schema.ValidityValid), instructions[2].Values[schema.ColValidity])

	require.NoError(t, instructions[0].Err)
	require.ErrorIs(t, instructions[1].Err, boom)

	// Only the passing pairs wrote corrected layers back.
	require.Len(t, written, 2)
	require.Contains(t, written, pairs[0].TracesPath)
	require.NotContains(t, written, pairs[1].TracesPath)
}

func TestValidateWorklistEmptyTraces(t *testing.T) {
	v := &stubValidator{}
	o, written := testOrchestrator(v, 1)
	o.read = func(path string) (*geojson.FeatureCollection, error) {
		return geojson.NewFeatureCollection(), nil
	}

	instructions := o.ValidateWorklist(context.Background(), []organize.TracePair{pair(1)})

	require.Len(t, instructions, 1)
	require.Equal(t, string(schema.ValidityEmpty), instructions[0].Values[schema.ColValidity])
	require.NoError(t, instructions[0].Err)

	// Empty layers short-circuit: no validator call, no write-back.
	require.Empty(t, v.called())
	require.Empty(t, written)
}

func TestValidateWorklistReadFailure(t *testing.T) {
	v := &stubValidator{}
	o, _ := testOrchestrator(v, 1)
	readErr := errors.New("no such file")
	o.read = func(path string) (*geojson.FeatureCollection, error) {
		return nil, readErr
	}

	instructions := o.ValidateWorklist(context.Background(), []organize.TracePair{pair(1)})

	require.Len(t, instructions, 1)
	require.Equal(t, string(schema.ValidityCritical), instructions[0].Values[schema.ColValidity])
	require.ErrorIs(t, instructions[0].Err, readErr)
	require.Empty(t, v.called())
}

func TestValidateWorklistRecoversPanic(t *testing.T) {
	v := &stubValidator{outcome: func(name string) (schema.Validity, error) {
		if name == "site_1_area" {
			panic("validator bug")
		}
		return schema.ValidityValid, nil
	}}
	o, _ := testOrchestrator(v, 2)

	instructions := o.ValidateWorklist(context.Background(),
		[]organize.TracePair{pair(1), pair(2)})

	require.Len(t, instructions, 2)
	require.Equal(t, string(schema.ValidityCritical), instructions[0].Values[schema.ColValidity])
	require.Error(t, instructions[0].Err)
	require.Equal(t, string(schema.ValidityValid), instructions[1].Values[schema.ColValidity])
}

func TestValidateWorklistCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := &stubValidator{}
	o, _ := testOrchestrator(v, 1)

	pairs := []organize.TracePair{pair(1), pair(2)}
	instructions := o.ValidateWorklist(ctx, pairs)

	// Every pair still gets exactly one instruction.
	require.Len(t, instructions, 2)
	for i, instruction := range instructions {
		require.Equal(t, pairs[i].AreaName(), instruction.AreaName)
		require.Equal(t, string(schema.ValidityCritical), instruction.Values[schema.ColValidity])
		require.ErrorIs(t, instruction.Err, context.Canceled)
	}
}

func TestValidateWorklistEmptyInput(t *testing.T) {
	o, _ := testOrchestrator(&stubValidator{}, 4)
	require.Nil(t, o.ValidateWorklist(context.Background(), nil))
}

func TestValidateWorklistLargeBatch(t *testing.T) {
	v := &stubValidator{}
	o, written := testOrchestrator(v, 4)

	var pairs []organize.TracePair
	for i := 1; i <= 50; i++ {
		pairs = append(pairs, pair(i))
	}

	instructions := o.ValidateWorklist(context.Background(), pairs)
	require.Len(t, instructions, 50)
	for i, instruction := range instructions {
		require.Equal(t, pairs[i].AreaName(), instruction.AreaName)
		require.Equal(t, string(schema.ValidityValid), instruction.Values[schema.ColValidity])
	}
	require.Len(t, written, 50)
}

func TestUniqueByTracesPath(t *testing.T) {
	a := pair(1)
	b := pair(2)
	dup := pair(1)
	dup.AreaPath = "data/them/area/20m/other_1_area.geojson"

	unique := UniqueByTracesPath([]organize.TracePair{a, b, dup})
	require.Equal(t, []organize.TracePair{a, b}, unique)
}

func TestSortToMatch(t *testing.T) {
	pairs := []organize.TracePair{pair(1), pair(2), pair(3)}
	instructions := []UpdateInstruction{
		{AreaName: "site_3_area"},
		{AreaName: "site_1_area"},
		{AreaName: "site_2_area"},
	}

	sorted := SortToMatch(instructions, pairs)
	require.Equal(t, "site_1_area", sorted[0].AreaName)
	require.Equal(t, "site_2_area", sorted[1].AreaName)
	require.Equal(t, "site_3_area", sorted[2].AreaName)

	// Input slice untouched.
	require.Equal(t, "site_3_area", instructions[0].AreaName)
}
