package monitor

import (
	"fmt"
	"time"

	"github.com/airwatchio/airwatch/pkg/table"
)

// TrimDate discards partial calendar days at both ends of the time range,
// computed against wall-clock hours in the given IANA timezone, so the kept
// range starts at local hour 0 and ends at local hour 23. When
// dropEmptyDays is set, a second pass also removes one additional whole
// leading and/or trailing day whose data cells are all missing. Boundaries
// are computed from local wall-clock hours, not a fixed offset, so trims are
// correct across daylight-saving transitions.
func (m *Monitor) TrimDate(timezone string, dropEmptyDays bool) (*Monitor, error) {
	n := m.Data.NumRows()
	if n == 0 {
		return nil, fmt.Errorf("monitor: cannot trim an empty time-series table")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("monitor: unrecognized timezone %q: %w", timezone, err)
	}

	dt, _ := m.Data.Col(DatetimeColumn)
	firstHour := dt.Times[0].In(loc).Hour()
	lastHour := dt.Times[n-1].In(loc).Hour()

	lo := 0
	if firstHour != 0 {
		lo = 24 - firstHour
	}
	hi := n - (lastHour+1)%24

	if lo >= hi {
		return nil, fmt.Errorf("monitor: time range contains no complete local day in %s", timezone)
	}
	data, err := m.Data.Slice(lo, hi)
	if err != nil {
		return nil, err
	}

	if dropEmptyDays {
		data = dropEmptyEdgeDay(data, loc, true)
		data = dropEmptyEdgeDay(data, loc, false)
	}
	return &Monitor{Meta: m.Meta, Data: data}, nil
}

// dropEmptyEdgeDay removes the leading (or trailing) whole local day when
// every data cell in it is missing. The input is already trimmed to local
// day boundaries, so a day is the run of rows up to the next local
// midnight; across DST transitions that run may not be 24 rows.
func dropEmptyEdgeDay(data *table.Table, loc *time.Location, leading bool) *table.Table {
	n := data.NumRows()
	dt, _ := data.Col(DatetimeColumn)

	var lo, hi int
	if leading {
		lo, hi = 0, n
		for i := 1; i < n; i++ {
			if dt.Times[i].In(loc).Hour() == 0 {
				hi = i
				break
			}
		}
		if hi == n {
			return data
		}
		if !allMissing(data, lo, hi) {
			return data
		}
		out, _ := data.Slice(hi, n)
		return out
	}

	lo, hi = 0, n
	for i := n - 1; i >= 0; i-- {
		if dt.Times[i].In(loc).Hour() == 0 {
			lo = i
			break
		}
	}
	if lo == 0 {
		return data
	}
	if !allMissing(data, lo, hi) {
		return data
	}
	out, _ := data.Slice(0, lo)
	return out
}

func allMissing(data *table.Table, lo, hi int) bool {
	for _, c := range data.Columns() {
		if c.Name == DatetimeColumn {
			continue
		}
		for i := lo; i < hi; i++ {
			if c.Valid[i] {
				return false
			}
		}
	}
	return true
}
