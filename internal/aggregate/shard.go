// Package aggregate implements the per-thread candidate enumeration
// over one row shard: for the current order, build candidate keys from
// a tuple of columns and fold each row's aggregate vector into a
// thread-local hash table.
package aggregate

import "github.com/mylinyuzhi/macrobase/internal/core"

// Shard holds one thread's slice of the dataset: attribute codes
// transposed into column-major slices (for cache-friendly scanning
// within a column) and the corresponding aggregate rows, row-major.
type Shard struct {
	// ColumnsT[c] holds the attribute codes of column c for every row
	// owned by this shard, in row order.
	ColumnsT [][]int
	// Rows[r] holds the aggregate vector for row r of this shard.
	Rows [][]float64
}

// NewShard transposes attributes[start:end] into column-major slices
// and keeps a view of aggregateRows[start:end].
func NewShard(attributes [][]int, aggregateRows [][]float64, start, end int) *Shard {
	numColumns := 0
	if len(attributes) > 0 {
		numColumns = len(attributes[0])
	}
	cols := make([][]int, numColumns)
	n := end - start
	for c := 0; c < numColumns; c++ {
		col := make([]int, n)
		for r := start; r < end; r++ {
			col[r-start] = attributes[r][c]
		}
		cols[c] = col
	}
	return &Shard{ColumnsT: cols, Rows: aggregateRows[start:end]}
}

// Order1 enumerates every (column, row) pair with support, combining
// each surviving row's aggregate vector into table under its singleton
// attribute code.
func (s *Shard) Order1(table *core.FastFixedHashTable, useArrayKeys bool, ops []core.AggregationOp) {
	for _, col := range s.ColumnsT {
		for r, code := range col {
			if code == core.NoSupport {
				continue
			}
			combineRow(table, useArrayKeys, ops, s.Rows[r], code, 0, 0, 1)
		}
	}
}

// Order2 enumerates every unordered pair of columns, keeping only rows
// whose both codes have support and survived order-1 pruning
// (frontier.Get), combining into table under the pair's canonical key.
func (s *Shard) Order2(frontier *core.Frontier, table *core.FastFixedHashTable, useArrayKeys bool, ops []core.AggregationOp) {
	numColumns := len(s.ColumnsT)
	for c1 := 0; c1 < numColumns; c1++ {
		col1 := s.ColumnsT[c1]
		for c2 := c1 + 1; c2 < numColumns; c2++ {
			col2 := s.ColumnsT[c2]
			for r := range col1 {
				a, b := col1[r], col2[r]
				if a == core.NoSupport || b == core.NoSupport {
					continue
				}
				if !frontier.Get(a) || !frontier.Get(b) {
					continue
				}
				combineRow(table, useArrayKeys, ops, s.Rows[r], a, b, 0, 2)
			}
		}
	}
}

// Order3 enumerates every unordered triple of columns, keeping only
// rows whose three codes all have support and survived order-1
// pruning. The order-2 subset closure check is deferred to the
// controller, once the order-2 frontier has been fully materialized.
func (s *Shard) Order3(frontier *core.Frontier, table *core.FastFixedHashTable, useArrayKeys bool, ops []core.AggregationOp) {
	numColumns := len(s.ColumnsT)
	for c1 := 0; c1 < numColumns; c1++ {
		col1 := s.ColumnsT[c1]
		for c2 := c1 + 1; c2 < numColumns; c2++ {
			col2 := s.ColumnsT[c2]
			for c3 := c2 + 1; c3 < numColumns; c3++ {
				col3 := s.ColumnsT[c3]
				for r := range col1 {
					a, b, c := col1[r], col2[r], col3[r]
					if a == core.NoSupport || b == core.NoSupport || c == core.NoSupport {
						continue
					}
					if !frontier.Get(a) || !frontier.Get(b) || !frontier.Get(c) {
						continue
					}
					combineRow(table, useArrayKeys, ops, s.Rows[r], a, b, c, 3)
				}
			}
		}
	}
}

// combineRow looks up the candidate's current aggregate in table,
// inserting a copy of rowVals if absent or pointwise-combining
// otherwise.
func combineRow(table *core.FastFixedHashTable, useArrayKeys bool, ops []core.AggregationOp, rowVals []float64, a, b, c int, order uint8) {
	if useArrayKeys {
		var lo, mid, hi int
		switch order {
		case 1:
			lo = a
		case 2:
			lo, mid = a, b
			if lo > mid {
				lo, mid = mid, lo
			}
		default:
			lo, mid, hi = sorted3(a, b, c)
		}
		if existing, ok := table.Get(lo, mid, hi, order); ok {
			core.CombineVectors(existing, rowVals, ops)
		} else {
			table.Put(lo, mid, hi, order, rowVals)
		}
		return
	}

	var word uint64
	switch order {
	case 1:
		word = uint64(a)
	case 2:
		word = core.PackTwo(a, b)
	default:
		word = core.PackThree(a, b, c)
	}
	if existing, ok := table.GetLong(word); ok {
		core.CombineVectors(existing, rowVals, ops)
	} else {
		table.PutLong(word, rowVals)
	}
}

func sorted3(a, b, c int) (int, int, int) {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return a, b, c
}
