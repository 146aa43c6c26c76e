package monitor

import (
	"fmt"
	"math"

	"github.com/airwatchio/airwatch/pkg/table"
)

// ValidateData asserts the time-series schema: a datetime time column whose
// values are UTC-zoned and exactly one hour apart, and float series columns
// whose cells are null or finite. It is a precondition check, not a repair
// step; any violation is an error.
func ValidateData(data *table.Table) error {
	dt, ok := data.Col(DatetimeColumn)
	if !ok {
		return fmt.Errorf("monitor: time-series table has no %s column", DatetimeColumn)
	}
	if dt.Kind != table.KindTime {
		return fmt.Errorf("monitor: %s column is %s, not time", DatetimeColumn, dt.Kind)
	}
	for i, ts := range dt.Times {
		if _, offset := ts.Zone(); offset != 0 {
			return fmt.Errorf("monitor: %s row %d (%s) is not UTC", DatetimeColumn, i, ts)
		}
		if i > 0 {
			if diff := ts.Sub(dt.Times[i-1]); diff != 3600e9 {
				return fmt.Errorf("monitor: %s rows %d-%d are %s apart, want 1h", DatetimeColumn, i-1, i, diff)
			}
		}
	}

	for _, c := range data.Columns() {
		if c.Name == DatetimeColumn {
			continue
		}
		if c.Kind != table.KindFloat {
			return fmt.Errorf("monitor: series column %q is %s, not float", c.Name, c.Kind)
		}
		for i, v := range c.Floats {
			if c.Valid[i] && (math.IsNaN(v) || math.IsInf(v, 0)) {
				return fmt.Errorf("monitor: series column %q row %d is non-finite", c.Name, i)
			}
		}
	}
	return nil
}

// Validate asserts the full set of structural invariants: the time-series
// schema, unique metadata identifiers, and the binding between metadata rows
// and time-series columns.
func (m *Monitor) Validate() error {
	if err := ValidateData(m.Data); err != nil {
		return err
	}
	metaIdx, err := m.metaRowIndex()
	if err != nil {
		return err
	}
	dataIDs := m.dataIDs()
	if len(dataIDs) != len(metaIdx) {
		return fmt.Errorf("monitor: %d series columns but %d metadata rows", len(dataIDs), len(metaIdx))
	}
	for _, id := range dataIDs {
		if _, ok := metaIdx[id]; !ok {
			return fmt.Errorf("monitor: series column %q has no metadata row", id)
		}
	}
	return nil
}
