package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwatchio/airwatch/pkg/table"
)

func TestValidateDataPasses(t *testing.T) {
	data, err := table.New(
		table.NewTimeColumn(DatetimeColumn, hourlyTimes(t0, 3)),
		seriesCol("sw_001", 1, null, 3),
	)
	require.NoError(t, err)
	assert.NoError(t, ValidateData(data))
}

func TestValidateDataMissingDatetime(t *testing.T) {
	data, err := table.New(seriesCol("sw_001", 1, 2))
	require.NoError(t, err)
	assert.Error(t, ValidateData(data))
}

func TestValidateDataNonHourlySpacing(t *testing.T) {
	times := []time.Time{t0, t0.Add(time.Hour), t0.Add(3 * time.Hour)}
	data, err := table.New(
		table.NewTimeColumn(DatetimeColumn, times),
		seriesCol("sw_001", 1, 2, 3),
	)
	require.NoError(t, err)
	assert.Error(t, ValidateData(data), "a gap in the hourly grid must fail")

	dup := []time.Time{t0, t0, t0.Add(time.Hour)}
	data, err = table.New(
		table.NewTimeColumn(DatetimeColumn, dup),
		seriesCol("sw_001", 1, 2, 3),
	)
	require.NoError(t, err)
	assert.Error(t, ValidateData(data), "duplicate timestamps must fail")
}

func TestValidateDataNonUTC(t *testing.T) {
	denver, err := time.LoadLocation("America/Denver")
	require.NoError(t, err)
	times := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, denver),
		time.Date(2026, 1, 1, 1, 0, 0, 0, denver),
	}
	data, err := table.New(
		table.NewTimeColumn(DatetimeColumn, times),
		seriesCol("sw_001", 1, 2),
	)
	require.NoError(t, err)
	assert.Error(t, ValidateData(data))
}

func TestValidateDataNonFinite(t *testing.T) {
	c := table.NewFloatColumn("sw_001", []float64{1, math.Inf(1)}, nil)
	data, err := table.New(
		table.NewTimeColumn(DatetimeColumn, hourlyTimes(t0, 2)),
		c,
	)
	require.NoError(t, err)
	assert.Error(t, ValidateData(data))
}

func TestValidateDataNonNumericSeries(t *testing.T) {
	data, err := table.New(
		table.NewTimeColumn(DatetimeColumn, hourlyTimes(t0, 1)),
		table.NewStringColumn("sw_001", []string{"oops"}, nil),
	)
	require.NoError(t, err)
	assert.Error(t, ValidateData(data))
}
