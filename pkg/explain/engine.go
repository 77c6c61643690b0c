// Package explain implements the APriori-style level-wise candidate
// enumeration engine: given a pre-encoded attribute matrix and one or
// more additive aggregate columns, it finds every attribute
// combination of bounded arity whose aggregates satisfy a conjunction
// of quality metrics, returning each as a Result.
package explain

import (
	"fmt"
	"log"
	"sync"

	"github.com/mylinyuzhi/macrobase/internal/aggregate"
	"github.com/mylinyuzhi/macrobase/internal/core"
	"github.com/mylinyuzhi/macrobase/internal/util"
)

// Engine drives one or more Explain invocations with a fixed set of
// quality metrics and thresholds. All state it creates is per-call
// and discarded on return; the Engine itself holds only the
// (immutable-after-construction) metrics, thresholds, and config.
type Engine struct {
	metrics    []QualityMetric
	thresholds []float64
	cfg        Config
}

// New constructs an Engine. metrics and thresholds must be the same
// length; thresholds[i] is passed to metrics[i].ActionFor.
func New(metrics []QualityMetric, thresholds []float64, cfg Config) *Engine {
	return &Engine{metrics: metrics, thresholds: thresholds, cfg: cfg.normalize()}
}

// Explain runs the level-wise enumeration over attributes (row-major
// codes in [0, cardinality)) and aggregates (column-major, one slice
// per aggregate, all the same length as attributes). ops[i] is the
// fold used for aggregates[i]. Output order is unspecified.
func (e *Engine) Explain(attributes [][]int, aggregates [][]float64, ops []core.AggregationOp, cardinality int) ([]Result, error) {
	if e.cfg.MaxOrder < 1 || e.cfg.MaxOrder > 3 {
		return nil, UnsupportedOrderError{Order: e.cfg.MaxOrder}
	}

	numRows := 0
	if len(aggregates) > 0 {
		numRows = len(aggregates[0])
	}
	if numRows == 0 {
		return nil, nil
	}

	numAggregates := len(aggregates)
	numColumns := len(attributes[0])
	numThreads := e.cfg.NumThreads
	if numThreads > numRows {
		numThreads = numRows
	}

	useArrayKeys := cardinality >= core.CardinalityOverflowThreshold
	if useArrayKeys {
		log.Printf("explain: cardinality %d is extremely high, candidate generation will be slow", cardinality)
	}

	// Row-major aggregate store for constant-stride row access.
	aRows := make([][]float64, numRows)
	for r := 0; r < numRows; r++ {
		row := make([]float64, numAggregates)
		for a := 0; a < numAggregates; a++ {
			row[a] = aggregates[a][r]
		}
		aRows[r] = row
	}

	// Quality metrics are initialized with global aggregates so they
	// can derive relative thresholds (e.g. a risk ratio against the
	// global outlier rate).
	globalAggregates := make([]float64, numAggregates)
	for a := 0; a < numAggregates; a++ {
		globalAggregates[a] = core.Fold(ops[a], aggregates[a])
	}
	for _, m := range e.metrics {
		m.Initialize(globalAggregates)
	}

	shards := make([]*aggregate.Shard, numThreads)
	for t := 0; t < numThreads; t++ {
		start, end := shardBounds(t, numRows, numThreads)
		shards[t] = aggregate.NewShard(attributes, aRows, start, end)
	}

	setNext := make(map[int]map[core.ArraySet]struct{}, e.cfg.MaxOrder)
	savedAggregates := make(map[int]map[core.ArraySet][]float64, e.cfg.MaxOrder)
	var frontier *core.Frontier

	for order := 1; order <= e.cfg.MaxOrder; order++ {
		timer := util.StartOrder(e.cfg.Verbose, order)

		tables := make([]*core.FastFixedHashTable, numThreads)
		for t := 0; t < numThreads; t++ {
			// A shard's order-k table can hold at most rows * C(numColumns, k)
			// distinct candidates; size it to that, not to K, since callers
			// size tables "to the largest frontier they will produce."
			rows := len(shards[t].Rows)
			capacity := rows*combinations(numColumns, order)*e.cfg.HashTableCapacityMultiplier + 1
			tables[t] = core.NewFastFixedHashTable(capacity, numAggregates, useArrayKeys)
		}

		if err := e.runOrder(order, shards, tables, frontier, ops, useArrayKeys); err != nil {
			return nil, err
		}

		merged := mergeTables(tables, useArrayKeys, ops)

		curNext := make(map[core.ArraySet]struct{})
		curSaved := make(map[core.ArraySet][]float64)
		for candidate, vals := range merged {
			action := e.combinedAction(order, candidate, vals)
			switch action {
			case Keep:
				if order != 3 || validateOrder3Subsets(candidate, setNext[2]) {
					curSaved[candidate] = vals
				}
			case Next:
				curNext[candidate] = struct{}{}
			}
		}

		savedAggregates[order] = curSaved
		setNext[order] = curNext
		if order == 1 {
			// A singleton that already KEEPs is still eligible for
			// higher-order exploration (it may combine with another
			// attribute to reveal an interaction effect), so the
			// frontier is the union of NEXT and KEEP, not NEXT alone.
			frontier = core.NewFrontier(cardinality)
			for candidate := range curNext {
				frontier.Set(candidate.First())
			}
			for candidate := range curSaved {
				frontier.Set(candidate.First())
			}
		}

		timer.Finish(len(merged), len(curSaved), len(curNext))
	}

	var results []Result
	for order := 1; order <= e.cfg.MaxOrder; order++ {
		for candidate, vals := range savedAggregates[order] {
			metricValues := make([]float64, len(e.metrics))
			named := make([]NamedValue, len(e.metrics))
			for i, m := range e.metrics {
				v := m.Value(vals)
				metricValues[i] = v
				named[i] = NamedValue{Name: m.Name(), Value: v}
			}
			results = append(results, Result{
				Subgroup:     subgroupFromArraySet(candidate),
				Aggregates:   vals,
				MetricValues: metricValues,
				Metrics:      named,
			})
		}
	}
	return results, nil
}

// combinedAction force-prunes an order-1 NoSupport candidate, then
// joins every metric's action against its threshold under the lattice.
func (e *Engine) combinedAction(order int, candidate core.ArraySet, vals []float64) Action {
	if order == 1 && candidate.First() == core.NoSupport {
		return Prune
	}
	action := Keep
	for i, m := range e.metrics {
		action = CombineAction(action, m.ActionFor(vals, e.thresholds[i]))
		if action == Prune {
			return Prune
		}
	}
	return action
}

// runOrder launches one worker per shard, waits at the per-order
// barrier, and returns the first worker error (if any) after every
// worker has finished.
func (e *Engine) runOrder(order int, shards []*aggregate.Shard, tables []*core.FastFixedHashTable, frontier *core.Frontier, ops []core.AggregationOp, useArrayKeys bool) error {
	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error

	wg.Add(len(shards))
	for t := range shards {
		t := t
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err := toPublicError(r, t, order)
					errOnce.Do(func() {
						firstErr = WorkerError{ThreadIndex: t, Order: order, Err: err}
					})
				}
			}()
			switch order {
			case 1:
				shards[t].Order1(tables[t], useArrayKeys, ops)
			case 2:
				shards[t].Order2(frontier, tables[t], useArrayKeys, ops)
			case 3:
				shards[t].Order3(frontier, tables[t], useArrayKeys, ops)
			}
		}()
	}
	wg.Wait()
	return firstErr
}

func toPublicError(r any, threadIndex, order int) error {
	if capErr, ok := r.(core.CapacityExceededError); ok {
		return CapacityExceededError{ThreadIndex: threadIndex, Order: order, Capacity: capErr.Capacity}
	}
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// validateOrder3Subsets checks that all three order-2 subsets of an
// order-3 candidate survived into the order-2 frontier. This check
// cannot be applied during enumeration because the order-2 frontier is
// only fully known after order 2 has completed.
func validateOrder3Subsets(candidate core.ArraySet, order2Next map[core.ArraySet]struct{}) bool {
	a, b, c := candidate.First(), candidate.Second(), candidate.Third()
	_, ok1 := order2Next[core.NewArray2(a, b)]
	_, ok2 := order2Next[core.NewArray2(b, c)]
	_, ok3 := order2Next[core.NewArray2(a, c)]
	return ok1 && ok2 && ok3
}

// shardBounds splits numRows into numThreads contiguous ranges:
// start = floor(numRows*t/numThreads), end = floor(numRows*(t+1)/numThreads).
func shardBounds(t, numRows, numThreads int) (int, int) {
	start := (numRows * t) / numThreads
	end := (numRows * (t + 1)) / numThreads
	return start, end
}

func combinations(n, k int) int {
	if k > n {
		return 0
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	if result < 1 {
		return 1
	}
	return result
}

// mergeTables folds every thread's per-order table into one
// canonical-array-keyed map, combining duplicates across threads with
// the aggregation ops. Packed-mode keys are converted to their array
// realization so every thread agrees on a single key representation
// regardless of which mode produced them.
func mergeTables(tables []*core.FastFixedHashTable, useArrayKeys bool, ops []core.AggregationOp) map[core.ArraySet][]float64 {
	merged := make(map[core.ArraySet][]float64)
	absorb := func(key core.ArraySet, val []float64) {
		if existing, ok := merged[key]; ok {
			core.CombineVectors(existing, val, ops)
		} else {
			merged[key] = append([]float64(nil), val...)
		}
	}
	for _, table := range tables {
		if useArrayKeys {
			table.Each(func(key core.ArraySet, val []float64) { absorb(key, val) })
		} else {
			table.EachLong(func(word uint64, val []float64) {
				absorb(core.PackedFromWord(word).Array(), val)
			})
		}
	}
	return merged
}
