package table

import (
	"fmt"
	"time"
)

// LongTable is the long (tidy) form of a wide time-series table: one record
// per (timestamp, series) pair. It exists only as the intermediate shape of
// the fold/rollup/pivot sequence used for cross-series aggregation.
type LongTable struct {
	Times  []time.Time
	IDs    []string
	Values []float64
	Valid  []bool
}

// Fold reshapes a wide table (one time column named key, one float column
// per series) into long form. Records are emitted timestamp-major so the
// key column's original order is preserved through a later Rollup.
func (t *Table) Fold(key string) (*LongTable, error) {
	kc, ok := t.Col(key)
	if !ok || kc.Kind != KindTime {
		return nil, fmt.Errorf("table: fold key %q missing or not a time column", key)
	}
	var series []*Column
	for _, c := range t.cols {
		if c.Name == key {
			continue
		}
		if c.Kind != KindFloat {
			return nil, fmt.Errorf("table: fold requires float series, column %q is %s", c.Name, c.Kind)
		}
		series = append(series, c)
	}

	n := t.NumRows()
	long := &LongTable{
		Times:  make([]time.Time, 0, n*len(series)),
		IDs:    make([]string, 0, n*len(series)),
		Values: make([]float64, 0, n*len(series)),
		Valid:  make([]bool, 0, n*len(series)),
	}
	for i := 0; i < n; i++ {
		for _, c := range series {
			long.Times = append(long.Times, kc.Times[i])
			long.IDs = append(long.IDs, c.Name)
			long.Values = append(long.Values, c.Floats[i])
			long.Valid = append(long.Valid, c.Valid[i])
		}
	}
	return long, nil
}

// Rollup groups the long table by timestamp, applies agg to each group's
// valid values, and pivots the result back into a wide table with a single
// float column named name. The output's timestamp set and order are exactly
// those of the folded input. agg returning false produces a null cell.
func (l *LongTable) Rollup(key, name string, agg func(vals []float64) (float64, bool)) (*Table, error) {
	var order []time.Time
	groups := make(map[int64][]float64)
	seen := make(map[int64]bool)
	for i, ts := range l.Times {
		u := ts.Unix()
		if !seen[u] {
			seen[u] = true
			order = append(order, ts)
			groups[u] = nil
		}
		if l.Valid[i] {
			groups[u] = append(groups[u], l.Values[i])
		}
	}

	vals := make([]float64, len(order))
	valid := make([]bool, len(order))
	for i, ts := range order {
		vals[i], valid[i] = agg(groups[ts.Unix()])
	}
	return New(NewTimeColumn(key, order), NewFloatColumn(name, vals, valid))
}
