package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwatchio/airwatch/pkg/table"
)

func TestStatusRecordsFindsLastValid(t *testing.T) {
	m := testMonitor(t, t0, "UTC", seriesCol("sw_001", 1, null, 3, null))

	records, err := m.StatusRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.True(t, rec.HasValid)
	assert.Equal(t, 3.0, rec.LastValidValue)
	assert.Equal(t, t0.Add(2*time.Hour), rec.LastValidTime, "index 2, not the trailing null at index 3")
}

func TestStatusRecordsZeroValidIsNull(t *testing.T) {
	m := testMonitor(t, t0, "UTC", seriesCol("sw_001", null, null))

	records, err := m.StatusRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].HasValid, "no valid data is reported as null, not as the first row")
}

func TestCurrentStatusAppendsColumns(t *testing.T) {
	m := testMonitor(t, t0, "UTC",
		seriesCol("sw_001", 1, null, 3, null),
		seriesCol("sw_002", null, null, null, null),
	)

	out, err := m.CurrentStatus()
	require.NoError(t, err)

	// The metadata gains exactly two columns; the time-series is untouched.
	assert.Equal(t, m.Meta.NumCols()+2, out.Meta.NumCols())
	assert.Equal(t, m.Data.Names(), out.Data.Names())
	assert.False(t, m.Meta.HasCol(LastValidValueColumn), "input metadata is untouched")

	dtCol, ok := out.Meta.Col(LastValidDatetimeColumn)
	require.True(t, ok)
	require.Equal(t, table.KindTime, dtCol.Kind)
	assert.Equal(t, t0.Add(2*time.Hour), dtCol.Times[0])
	assert.True(t, dtCol.Times[1].IsZero(), "zero time marks a series with no valid observations")

	valCol, ok := out.Meta.Col(LastValidValueColumn)
	require.True(t, ok)
	assert.Equal(t, 3.0, valCol.Floats[0])
	assert.True(t, valCol.Valid[0])
	assert.False(t, valCol.Valid[1])
}
