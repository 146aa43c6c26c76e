package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineUnionOfIdentifiers(t *testing.T) {
	a := testMonitor(t, t0, "UTC",
		seriesCol("sw_001", 1, 2),
		seriesCol("sw_002", 3, 4),
	)
	b := testMonitor(t, t0, "UTC",
		seriesCol("sw_002", 30, 40),
		seriesCol("sw_003", 5, 6),
	)

	out, err := a.Combine(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"sw_001", "sw_002", "sw_003"}, out.IDs())
	assert.Equal(t, 3, out.Count())
	require.NoError(t, out.Validate())
}

func TestCombineReceiverWins(t *testing.T) {
	a := testMonitor(t, t0, "UTC", seriesCol("sw_001", 1, 2))
	b := testMonitor(t, t0, "UTC", seriesCol("sw_001", 100, 200))

	out, err := a.Combine(b)
	require.NoError(t, err)
	c, _ := out.Data.Col("sw_001")
	assert.Equal(t, []float64{1, 2}, c.Floats, "the earlier operand's series wins on collision")

	// And the policy is asymmetric.
	rev, err := b.Combine(a)
	require.NoError(t, err)
	rc, _ := rev.Data.Col("sw_001")
	assert.Equal(t, []float64{100, 200}, rc.Floats)
}

func TestCombineFullyOverlappingIsIdempotent(t *testing.T) {
	a := testMonitor(t, t0, "UTC",
		seriesCol("sw_001", 1, 2),
		seriesCol("sw_002", 3, 4),
	)
	b := testMonitor(t, t0, "UTC",
		seriesCol("sw_001", 1, 2),
		seriesCol("sw_002", 3, 4),
	)

	out, err := a.Combine(b)
	require.NoError(t, err)
	assert.Equal(t, a.IDs(), out.IDs())
	assert.Equal(t, a.RowCount(), out.RowCount())
}

func TestCombineAlignsOverlappingTimeAxes(t *testing.T) {
	a := testMonitor(t, t0, "UTC", seriesCol("sw_001", 1, 2, 3))
	b := testMonitor(t, t0.Add(2*time.Hour), "UTC", seriesCol("sw_002", 9, 8, 7))

	out, err := a.Combine(b)
	require.NoError(t, err)
	assert.Equal(t, 5, out.RowCount(), "time axis covers the union of both inputs")
	assert.GreaterOrEqual(t, out.RowCount(), a.RowCount())
	assert.GreaterOrEqual(t, out.RowCount(), b.RowCount())

	s1, _ := out.Data.Col("sw_001")
	assert.False(t, s1.Valid[4], "rows unique to one side get nulls in the other's columns")
	s2, _ := out.Data.Col("sw_002")
	assert.False(t, s2.Valid[0])
	assert.Equal(t, 9.0, s2.Floats[2])
	require.NoError(t, out.Validate())
}

func TestCombineRefillsDisjointRanges(t *testing.T) {
	a := testMonitor(t, t0, "UTC", seriesCol("sw_001", 1, 2))
	b := testMonitor(t, t0.Add(6*time.Hour), "UTC", seriesCol("sw_002", 5, 6))

	out, err := a.Combine(b)
	require.NoError(t, err)
	assert.Equal(t, 8, out.RowCount(), "the gap between disjoint ranges is refilled hour by hour")
	require.NoError(t, out.Validate(), "the hourly grid invariant survives the merge")

	s1, _ := out.Data.Col("sw_001")
	for i := 2; i < 8; i++ {
		assert.False(t, s1.Valid[i])
	}
}

func TestCombineConcatenatesMetadata(t *testing.T) {
	a := testMonitor(t, t0, "UTC", seriesCol("sw_001", 1))
	b := testMonitor(t, t0, "UTC",
		seriesCol("sw_001", 9),
		seriesCol("sw_002", 2),
	)

	out, err := a.Combine(b)
	require.NoError(t, err)
	require.Equal(t, 2, out.Count())

	name, _ := out.Meta.Col("locationName")
	assert.Equal(t, "site sw_001", name.Strings[0])
	assert.Equal(t, "site sw_002", name.Strings[1], "only the argument's unique rows are appended")
}
