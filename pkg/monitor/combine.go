package monitor

import (
	"fmt"
	"time"

	"github.com/airwatchio/airwatch/pkg/table"
)

// Combine merges two Monitors. Identifiers present in both keep the
// receiver's series; the argument's colliding series are dropped before
// merging (earlier operand wins — never averaged, never overwritten).
// Metadata rows are concatenated (receiver first, then the argument's
// unique rows) and the time-series tables are full-outer joined on
// datetime, then refilled to a contiguous hourly grid covering the union of
// both time axes.
func (m *Monitor) Combine(other *Monitor) (*Monitor, error) {
	have := make(map[string]bool)
	for _, id := range m.IDs() {
		have[id] = true
	}
	var unique []string
	for _, id := range other.IDs() {
		if !have[id] {
			unique = append(unique, id)
		}
	}

	otherData, err := rebind(other.Data, unique)
	if err != nil {
		return nil, err
	}
	joined, err := m.Data.OuterJoinTime(otherData, DatetimeColumn)
	if err != nil {
		return nil, err
	}
	data, err := regridHourly(joined)
	if err != nil {
		return nil, err
	}

	otherIdx, err := other.metaRowIndex()
	if err != nil {
		return nil, err
	}
	rows := make([]int, len(unique))
	for i, id := range unique {
		rows[i] = otherIdx[id]
	}
	meta, err := concatMeta(m.Meta, other.Meta.TakeRows(rows))
	if err != nil {
		return nil, err
	}
	return &Monitor{Meta: meta, Data: data}, nil
}

// regridHourly reindexes a datetime-sorted table onto the contiguous hourly
// grid spanning its first and last timestamps, inserting all-null rows for
// missing hours. Joining two disjoint time ranges would otherwise leave a
// hole in the hourly grid.
func regridHourly(data *table.Table) (*table.Table, error) {
	dt, ok := data.Col(DatetimeColumn)
	if !ok {
		return nil, fmt.Errorf("monitor: table has no %s column", DatetimeColumn)
	}
	n := len(dt.Times)
	if n == 0 {
		return data, nil
	}

	first, last := dt.Times[0], dt.Times[n-1]
	hours := int(last.Sub(first)/time.Hour) + 1
	if hours == n {
		return data, nil
	}

	byUnix := make(map[int64]int, n)
	for i, ts := range dt.Times {
		byUnix[ts.Unix()] = i
	}
	grid := make([]time.Time, hours)
	idx := make([]int, hours)
	for i := range grid {
		ts := first.Add(time.Duration(i) * time.Hour)
		grid[i] = ts
		if j, ok := byUnix[ts.Unix()]; ok {
			idx[i] = j
		} else {
			idx[i] = -1
		}
	}

	filled := data.TakeRows(idx)
	cols := make([]*table.Column, 0, filled.NumCols())
	for _, c := range filled.Columns() {
		if c.Name == DatetimeColumn {
			cols = append(cols, table.NewTimeColumn(DatetimeColumn, grid))
		} else {
			cols = append(cols, c)
		}
	}
	return table.New(cols...)
}

// concatMeta stacks two metadata tables, taking the union of their columns.
// Cells for columns one side lacks are null. Columns present on both sides
// must agree on kind.
func concatMeta(a, b *table.Table) (*table.Table, error) {
	names := a.Names()
	for _, name := range b.Names() {
		if !a.HasCol(name) {
			names = append(names, name)
		}
	}

	an, bn := a.NumRows(), b.NumRows()
	cols := make([]*table.Column, 0, len(names))
	for _, name := range names {
		ac, aok := a.Col(name)
		bc, bok := b.Col(name)
		if aok && bok && ac.Kind != bc.Kind {
			return nil, fmt.Errorf("monitor: metadata column %q is %s on one side and %s on the other", name, ac.Kind, bc.Kind)
		}
		kind := table.KindString
		if aok {
			kind = ac.Kind
		} else if bok {
			kind = bc.Kind
		}

		switch kind {
		case table.KindFloat:
			vals := make([]float64, an+bn)
			valid := make([]bool, an+bn)
			if aok {
				copy(vals, ac.Floats)
				copy(valid, ac.Valid)
			}
			if bok {
				copy(vals[an:], bc.Floats)
				copy(valid[an:], bc.Valid)
			}
			cols = append(cols, table.NewFloatColumn(name, vals, valid))
		case table.KindString:
			vals := make([]string, an+bn)
			valid := make([]bool, an+bn)
			if aok {
				copy(vals, ac.Strings)
				copy(valid, ac.Valid)
			}
			if bok {
				copy(vals[an:], bc.Strings)
				copy(valid[an:], bc.Valid)
			}
			cols = append(cols, table.NewStringColumn(name, vals, valid))
		default:
			vals := make([]time.Time, an+bn)
			if aok {
				copy(vals, ac.Times)
			}
			if bok {
				copy(vals[an:], bc.Times)
			}
			cols = append(cols, table.NewTimeColumn(name, vals))
		}
	}
	return table.New(cols...)
}
