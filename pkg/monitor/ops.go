package monitor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/airwatchio/airwatch/pkg/table"
)

// Select returns a Monitor restricted to the given deployment identifiers,
// with metadata rows and time-series columns reordered to exactly match the
// input order. Empty input, duplicate identifiers, and identifiers absent
// from the metadata table are errors.
func (m *Monitor) Select(ids ...string) (*Monitor, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("monitor: select requires at least one deployment identifier")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("monitor: duplicate identifier %q in select", id)
		}
		seen[id] = true
	}

	metaIdx, err := m.metaRowIndex()
	if err != nil {
		return nil, err
	}
	rows := make([]int, len(ids))
	for i, id := range ids {
		row, ok := metaIdx[id]
		if !ok {
			return nil, fmt.Errorf("monitor: unknown deployment identifier %q", id)
		}
		rows[i] = row
	}

	meta := m.Meta.TakeRows(rows)
	data, err := rebind(m.Data, ids)
	if err != nil {
		return nil, err
	}
	return &Monitor{Meta: meta, Data: data}, nil
}

// FilterByValue keeps the deployments whose metadata cell in the named
// column equals value. Float columns parse value as a float; string columns
// compare as text; any other column kind is unsupported. Null cells never
// match. The time-series column set is rebuilt to the surviving
// identifiers.
func (m *Monitor) FilterByValue(column, value string) (*Monitor, error) {
	col, ok := m.Meta.Col(column)
	if !ok {
		return nil, fmt.Errorf("monitor: metadata has no %q column", column)
	}

	keep := make([]bool, col.Len())
	switch col.Kind {
	case table.KindFloat:
		want, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("monitor: value %q does not parse as float for column %q", value, column)
		}
		for i := range col.Floats {
			keep[i] = col.Valid[i] && col.Floats[i] == want
		}
	case table.KindString:
		for i := range col.Strings {
			keep[i] = col.Valid[i] && col.Strings[i] == value
		}
	default:
		return nil, fmt.Errorf("monitor: column %q has unsupported kind %s for filtering", column, col.Kind)
	}

	meta, err := m.Meta.FilterRows(keep)
	if err != nil {
		return nil, err
	}
	survivors := idsOf(meta)
	data, err := rebind(m.Data, survivors)
	if err != nil {
		return nil, err
	}
	return &Monitor{Meta: meta, Data: data}, nil
}

// DropEmpty removes every series with zero valid observations, along with
// the corresponding metadata rows. The datetime column is always retained,
// even when no series survives.
func (m *Monitor) DropEmpty() (*Monitor, error) {
	var survivors []string
	for _, c := range m.Data.Columns() {
		if c.Name == DatetimeColumn {
			continue
		}
		if validCount(c) > 0 {
			survivors = append(survivors, c.Name)
		}
	}

	metaIdx, err := m.metaRowIndex()
	if err != nil {
		return nil, err
	}
	rows := make([]int, len(survivors))
	for i, id := range survivors {
		rows[i] = metaIdx[id]
	}
	meta := m.Meta.TakeRows(rows)
	data, err := rebind(m.Data, survivors)
	if err != nil {
		return nil, err
	}
	return &Monitor{Meta: meta, Data: data}, nil
}

func idsOf(meta *table.Table) []string {
	col, ok := meta.Col(DeviceDeploymentIDColumn)
	if !ok {
		return nil
	}
	return append([]string(nil), col.Strings...)
}

func validCount(c *table.Column) int {
	n := 0
	for i, v := range c.Floats {
		if c.Valid[i] && !math.IsNaN(v) && !math.IsInf(v, 0) {
			n++
		}
	}
	return n
}
