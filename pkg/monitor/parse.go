package monitor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/airwatchio/airwatch/pkg/table"
)

// naSentinel is the raw-file marker for a missing value.
const naSentinel = "NA"

// datetimeLayouts are the accepted timestamp formats. Both carry an explicit
// zone; zone-naive timestamps are rejected.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
}

// ParseMeta converts a raw all-string metadata table into canonical form:
// "NA" cells become null, longitude/latitude/elevation are coerced to float,
// and, when keep is non-nil, output columns are restricted to that allow-list
// in its order. Allow-listed columns absent from the input are an error.
func ParseMeta(raw *table.Table, keep []string) (*table.Table, error) {
	if !raw.HasCol(DeviceDeploymentIDColumn) {
		return nil, fmt.Errorf("monitor: metadata has no %s column", DeviceDeploymentIDColumn)
	}

	names := raw.Names()
	if keep != nil {
		for _, name := range keep {
			if !raw.HasCol(name) {
				return nil, fmt.Errorf("monitor: metadata has no %q column required by the column set", name)
			}
		}
		names = keep
	}

	cols := make([]*table.Column, 0, len(names))
	for _, name := range names {
		src, _ := raw.Col(name)
		if src.Kind != table.KindString {
			return nil, fmt.Errorf("monitor: raw metadata column %q is %s, not string", name, src.Kind)
		}
		if floatMetadataColumns[name] {
			cols = append(cols, parseFloatColumn(src, false))
		} else {
			cols = append(cols, scrubStringColumn(src))
		}
	}
	return table.New(cols...)
}

// ParseData converts a raw all-string time-series table into canonical form.
// The datetime column is parsed to UTC instants; every other column is
// scrubbed ("NA" and unparsable cells become null), negative readings are
// clamped to zero, and non-finite values become null.
func ParseData(raw *table.Table) (*table.Table, error) {
	src, ok := raw.Col(DatetimeColumn)
	if !ok {
		return nil, fmt.Errorf("monitor: time-series table has no %s column", DatetimeColumn)
	}
	if src.Kind != table.KindString {
		return nil, fmt.Errorf("monitor: raw %s column is %s, not string", DatetimeColumn, src.Kind)
	}

	times := make([]time.Time, len(src.Strings))
	for i, s := range src.Strings {
		ts, err := parseDatetime(s)
		if err != nil {
			return nil, fmt.Errorf("monitor: %s row %d: %w", DatetimeColumn, i, err)
		}
		times[i] = ts
	}

	cols := []*table.Column{table.NewTimeColumn(DatetimeColumn, times)}
	for _, c := range raw.Columns() {
		if c.Name == DatetimeColumn {
			continue
		}
		if c.Kind != table.KindString {
			return nil, fmt.Errorf("monitor: raw series column %q is %s, not string", c.Name, c.Kind)
		}
		cols = append(cols, parseFloatColumn(c, true))
	}
	return table.New(cols...)
}

func parseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized or zone-naive timestamp %q", s)
}

// parseFloatColumn scrubs and coerces a raw string column to float. When
// clamp is set (time-series readings), negative values are lifted to zero
// and non-finite results become null. The clamp tests strictly less than
// zero so that null cells stay null instead of being zeroed.
func parseFloatColumn(src *table.Column, clamp bool) *table.Column {
	vals := make([]float64, len(src.Strings))
	valid := make([]bool, len(src.Strings))
	for i, s := range src.Strings {
		s = strings.TrimSpace(s)
		if !src.Valid[i] || s == "" || s == naSentinel {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v = math.NaN()
		}
		if clamp && !math.IsNaN(v) && v < 0 {
			v = 0
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		vals[i] = v
		valid[i] = true
	}
	return table.NewFloatColumn(src.Name, vals, valid)
}

// scrubStringColumn replaces the "NA" sentinel with null.
func scrubStringColumn(src *table.Column) *table.Column {
	vals := make([]string, len(src.Strings))
	valid := make([]bool, len(src.Strings))
	for i, s := range src.Strings {
		if !src.Valid[i] || s == naSentinel {
			continue
		}
		vals[i] = s
		valid[i] = true
	}
	return table.NewStringColumn(src.Name, vals, valid)
}
