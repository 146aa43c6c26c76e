package monitor

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/airwatchio/airwatch/pkg/table"
)

// identityMetadataColumns are overwritten with the synthetic identifier in
// the metadata row produced by Collapse.
var identityMetadataColumns = []string{
	DeviceDeploymentIDColumn,
	"deviceID",
	"locationID",
	"locationName",
}

// Collapse reduces every series to a single synthetic series named newID,
// applying the named aggregation function across series at each timestamp.
// Supported functions: "mean", "min", "max", "sum", "count", and "quantile"
// (which requires a probability argument in [0, 1]). Cells where no series
// has a valid value aggregate to null ("count" aggregates to 0).
//
// The synthetic metadata row copies the first deployment's row, overwrites
// the identity fields with newID, and places the deployment at the mean
// longitude/latitude of all input deployments with valid coordinates (null
// when none have them).
//
// The underlying table engine has no cross-column reduction, so Collapse
// reshapes wide to long, rolls up by timestamp, and pivots back; the
// output's timestamp set is exactly the input's.
func (m *Monitor) Collapse(newID, fn string, args ...float64) (*Monitor, error) {
	if m.Count() == 0 {
		return nil, fmt.Errorf("monitor: cannot collapse a monitor with no deployments")
	}
	agg, err := aggregator(fn, args)
	if err != nil {
		return nil, err
	}

	long, err := m.Data.Fold(DatetimeColumn)
	if err != nil {
		return nil, err
	}
	data, err := long.Rollup(DatetimeColumn, newID, agg)
	if err != nil {
		return nil, err
	}

	meta, err := m.collapseMeta(newID)
	if err != nil {
		return nil, err
	}
	return &Monitor{Meta: meta, Data: data}, nil
}

// collapseMeta derives the single synthetic metadata row: the first row's
// descriptive fields, identity fields overwritten, coordinates averaged.
func (m *Monitor) collapseMeta(newID string) (*table.Table, error) {
	row := m.Meta.TakeRows([]int{0})
	for _, name := range identityMetadataColumns {
		if !row.HasCol(name) {
			continue
		}
		c, _ := row.Col(name)
		c.Strings[0] = newID
		c.Valid[0] = true
	}
	for _, name := range []string{"longitude", "latitude"} {
		if !row.HasCol(name) {
			continue
		}
		mean, ok := meanValid(m.Meta, name)
		c, _ := row.Col(name)
		c.Floats[0] = mean
		c.Valid[0] = ok
	}
	return row, nil
}

// meanValid averages the valid cells of a float metadata column. The mean
// of zero valid values is null, not an error.
func meanValid(meta *table.Table, name string) (float64, bool) {
	c, ok := meta.Col(name)
	if !ok || c.Kind != table.KindFloat {
		return 0, false
	}
	var vals []float64
	for i, v := range c.Floats {
		if c.Valid[i] {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}

// aggregator resolves a named aggregation function. Every function receives
// only the valid values at a timestamp; an empty input aggregates to null
// except for count, which is 0.
func aggregator(fn string, args []float64) (func([]float64) (float64, bool), error) {
	switch fn {
	case "mean":
		return func(vals []float64) (float64, bool) {
			if len(vals) == 0 {
				return 0, false
			}
			return stat.Mean(vals, nil), true
		}, nil
	case "min":
		return func(vals []float64) (float64, bool) {
			if len(vals) == 0 {
				return 0, false
			}
			return floats.Min(vals), true
		}, nil
	case "max":
		return func(vals []float64) (float64, bool) {
			if len(vals) == 0 {
				return 0, false
			}
			return floats.Max(vals), true
		}, nil
	case "sum":
		return func(vals []float64) (float64, bool) {
			if len(vals) == 0 {
				return 0, false
			}
			return floats.Sum(vals), true
		}, nil
	case "count":
		return func(vals []float64) (float64, bool) {
			return float64(len(vals)), true
		}, nil
	case "quantile":
		if len(args) != 1 {
			return nil, fmt.Errorf("monitor: quantile aggregation requires exactly one probability argument")
		}
		p := args[0]
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("monitor: quantile probability %v outside [0, 1]", p)
		}
		return func(vals []float64) (float64, bool) {
			if len(vals) == 0 {
				return 0, false
			}
			sorted := append([]float64(nil), vals...)
			sort.Float64s(sorted)
			return stat.Quantile(p, stat.Empirical, sorted, nil), true
		}, nil
	default:
		return nil, fmt.Errorf("monitor: unsupported aggregation function %q", fn)
	}
}
