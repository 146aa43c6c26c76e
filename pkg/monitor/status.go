package monitor

import (
	"fmt"
	"math"
	"time"

	"github.com/airwatchio/airwatch/pkg/table"
)

// StatusRecord is the current status of one deployment: the most recent
// non-missing observation and its timestamp. HasValid is false for series
// with zero valid observations, in which case the other fields are
// meaningless.
type StatusRecord struct {
	DeviceDeploymentID string
	LastValidTime      time.Time
	LastValidValue     float64
	HasValid           bool
}

// CurrentStatus returns a Monitor whose metadata table carries two
// additional columns, lastValidDatetime and lastValidValue, one row per
// deployment in identifier order. Series with zero valid observations get
// null in both columns (a zero time in the datetime column) rather than a
// fallback to the first row.
func (m *Monitor) CurrentStatus() (*Monitor, error) {
	records, err := m.StatusRecords()
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, len(records))
	vals := make([]float64, len(records))
	valid := make([]bool, len(records))
	for i, r := range records {
		if r.HasValid {
			times[i] = r.LastValidTime
			vals[i] = r.LastValidValue
			valid[i] = true
		}
	}

	meta, err := m.Meta.AppendCol(table.NewTimeColumn(LastValidDatetimeColumn, times))
	if err != nil {
		return nil, err
	}
	meta, err = meta.AppendCol(table.NewFloatColumn(LastValidValueColumn, vals, valid))
	if err != nil {
		return nil, err
	}
	return &Monitor{Meta: meta, Data: m.Data}, nil
}

// StatusRecords computes the current status of every deployment, in
// metadata identifier order.
func (m *Monitor) StatusRecords() ([]StatusRecord, error) {
	dt, ok := m.Data.Col(DatetimeColumn)
	if !ok {
		return nil, fmt.Errorf("monitor: time-series table has no %s column", DatetimeColumn)
	}

	records := make([]StatusRecord, 0, m.Count())
	for _, id := range m.IDs() {
		c, ok := m.Data.Col(id)
		if !ok {
			return nil, fmt.Errorf("monitor: series column %q has no time-series data", id)
		}
		last := -1
		for i, v := range c.Floats {
			if c.Valid[i] && !math.IsNaN(v) && !math.IsInf(v, 0) {
				last = i
			}
		}
		rec := StatusRecord{DeviceDeploymentID: id}
		if last >= 0 {
			rec.LastValidTime = dt.Times[last]
			rec.LastValidValue = c.Floats[last]
			rec.HasValid = true
		}
		records = append(records, rec)
	}
	return records, nil
}
