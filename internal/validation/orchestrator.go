// Package validation drives geometry validation over a worklist of
// trace/area pairs with bounded parallelism and per-item failure isolation.
//
// A single bad dataset never aborts a batch: every failure inside a task is
// converted into a critical-validity update instruction, and results are
// re-sorted to match the caller-supplied order before being returned.
package validation

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/paulmach/orb/geojson"

	"github.com/lineament/tracerepo/internal/geoio"
	"github.com/lineament/tracerepo/internal/organize"
	"github.com/lineament/tracerepo/internal/schema"
)

// Validator classifies a traces layer against its area layer and returns a
// possibly auto-corrected copy. An error return means validation crashed,
// not that the dataset is invalid.
type Validator interface {
	Validate(traces, area *geojson.FeatureCollection, name string, snapThreshold float64) (*geojson.FeatureCollection, schema.Validity, error)
}

// Logger is the subset of logging the orchestrator needs. A nil Logger
// disables logging.
type Logger interface {
	LogDebug(message string)
	LogError(message string)
}

// UpdateInstruction is the result of validating one pair: the column values
// to apply back to the index row keyed by AreaName. Err records the task
// failure that degraded the pair to critical validity, if any.
type UpdateInstruction struct {
	AreaName   string
	Values     map[schema.Column]string
	TracesPath string
	Err        error
}

// Orchestrator executes validation worklists. The read and write functions
// default to the repository's GeoJSON codec and exist as fields so tests
// can substitute in-memory layers.
type Orchestrator struct {
	validator Validator
	logger    Logger
	workers   int

	read  func(path string) (*geojson.FeatureCollection, error)
	write func(fc *geojson.FeatureCollection, path string) error
}

// New constructs an Orchestrator with the given validator and worker count.
// A non-positive worker count defaults to the number of CPUs.
func New(validator Validator, logger Logger, workers int) *Orchestrator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Orchestrator{
		validator: validator,
		logger:    logger,
		workers:   workers,
		read:      geoio.Read,
		write: func(fc *geojson.FeatureCollection, path string) error {
			return geoio.Write(fc, path, geoio.DriverGeoJSON)
		},
	}
}

// UniqueByTracesPath returns the pairs unique by traces path, keeping the
// first occurrence in input order. Callers apply this before dispatch so the
// same physical traces file is never edited by two tasks.
func UniqueByTracesPath(pairs []organize.TracePair) []organize.TracePair {
	seen := make(map[string]struct{}, len(pairs))
	unique := make([]organize.TracePair, 0, len(pairs))
	for _, pair := range pairs {
		if _, dup := seen[pair.TracesPath]; dup {
			continue
		}
		seen[pair.TracesPath] = struct{}{}
		unique = append(unique, pair)
	}
	return unique
}

type taskResult struct {
	position    int
	instruction UpdateInstruction
}

// ValidateWorklist validates every pair and returns exactly one instruction
// per input pair, in input order. Tasks run on a fixed-size worker pool;
// completion order is unspecified internally and never observable. The
// context is consulted only between task launches; running tasks are never
// cancelled.
func (o *Orchestrator) ValidateWorklist(ctx context.Context, pairs []organize.TracePair) []UpdateInstruction {
	if len(pairs) == 0 {
		return nil
	}

	semaphore := make(chan struct{}, o.workers)
	results := make(chan taskResult, len(pairs))

	var wg sync.WaitGroup

	for i, pair := range pairs {
		if ctx.Err() != nil {
			break
		}
		semaphore <- struct{}{}
		wg.Add(1)

		go func(position int, pair organize.TracePair) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results <- taskResult{position: position, instruction: o.validateOne(pair)}
		}(i, pair)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	instructions := make([]UpdateInstruction, len(pairs))
	collected := make([]bool, len(pairs))
	for result := range results {
		instructions[result.position] = result.instruction
		collected[result.position] = true
	}

	// Pairs never launched (context cancelled mid-batch) still get exactly
	// one instruction, degraded to critical.
	for i, ok := range collected {
		if !ok {
			instructions[i] = criticalInstruction(pairs[i], ctx.Err())
		}
	}

	return instructions
}

// SortToMatch re-orders instructions so their area names follow the order of
// the given pairs. Instruction count and pair count must agree.
func SortToMatch(instructions []UpdateInstruction, pairs []organize.TracePair) []UpdateInstruction {
	order := make(map[string]int, len(pairs))
	for i, pair := range pairs {
		order[pair.AreaName()] = i
	}
	sorted := make([]UpdateInstruction, len(instructions))
	copy(sorted, instructions)
	sort.SliceStable(sorted, func(a, b int) bool {
		return order[sorted[a].AreaName] < order[sorted[b].AreaName]
	})
	return sorted
}

// validateOne runs a single validation task. Every failure path returns a
// critical instruction instead of an error; recovery from panics keeps one
// crashing dataset from corrupting sibling results.
func (o *Orchestrator) validateOne(pair organize.TracePair) (instruction UpdateInstruction) {
	defer func() {
		if r := recover(); r != nil {
			o.logError(fmt.Sprintf("validation panicked for %s: %v", pair.AreaName(), r))
			instruction = criticalInstruction(pair, fmt.Errorf("validation panicked: %v", r))
		}
	}()

	areaName := pair.AreaName()

	traces, err := o.read(pair.TracesPath)
	if err != nil {
		o.logError(fmt.Sprintf("failed to read traces for %s: %v", areaName, err))
		return criticalInstruction(pair, err)
	}

	// An empty traces layer is a terminal classification; the validator is
	// never invoked for it.
	if geoio.IsEmpty(traces) {
		o.logDebug(fmt.Sprintf("traces layer empty for %s", areaName))
		return UpdateInstruction{
			AreaName:   areaName,
			Values:     map[schema.Column]string{schema.ColValidity: string(schema.ValidityEmpty)},
			TracesPath: pair.TracesPath,
		}
	}

	area, err := o.read(pair.AreaPath)
	if err != nil {
		o.logError(fmt.Sprintf("failed to read area for %s: %v", areaName, err))
		return criticalInstruction(pair, err)
	}

	corrected, validity, err := o.validator.Validate(traces, area, areaName, pair.SnapThreshold)
	if err != nil {
		o.logError(fmt.Sprintf("validation critically failed for %s: %v", areaName, err))
		return criticalInstruction(pair, err)
	}

	// Persist the possibly auto-corrected layer back over the traces file.
	// A failed write degrades to critical rather than crashing the batch.
	if err := o.write(corrected, pair.TracesPath); err != nil {
		o.logError(fmt.Sprintf("failed to write corrected traces for %s: %v", areaName, err))
		return criticalInstruction(pair, err)
	}

	o.logDebug(fmt.Sprintf("validated %s: %s", areaName, validity))
	return UpdateInstruction{
		AreaName:   areaName,
		Values:     map[schema.Column]string{schema.ColValidity: string(validity)},
		TracesPath: pair.TracesPath,
	}
}

func criticalInstruction(pair organize.TracePair, err error) UpdateInstruction {
	return UpdateInstruction{
		AreaName:   pair.AreaName(),
		Values:     map[schema.Column]string{schema.ColValidity: string(schema.ValidityCritical)},
		TracesPath: pair.TracesPath,
		Err:        err,
	}
}

func (o *Orchestrator) logDebug(message string) {
	if o.logger != nil {
		o.logger.LogDebug(message)
	}
}

func (o *Orchestrator) logError(message string) {
	if o.logger != nil {
		o.logger.LogError(message)
	}
}
