package table

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestNewRejectsBadShapes(t *testing.T) {
	_, err := New(
		NewFloatColumn("a", []float64{1, 2}, nil),
		NewFloatColumn("a", []float64{3, 4}, nil),
	)
	require.Error(t, err, "duplicate names must be rejected")

	_, err = New(
		NewFloatColumn("a", []float64{1, 2}, nil),
		NewFloatColumn("b", []float64{3}, nil),
	)
	require.Error(t, err, "ragged columns must be rejected")
}

func TestSelectColsReorders(t *testing.T) {
	tbl, err := New(
		NewFloatColumn("a", []float64{1}, nil),
		NewFloatColumn("b", []float64{2}, nil),
		NewFloatColumn("c", []float64{3}, nil),
	)
	require.NoError(t, err)

	out, err := tbl.SelectCols("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, out.Names())

	_, err = tbl.SelectCols("nope")
	assert.Error(t, err)
}

func TestTakeRowsWithNullIndex(t *testing.T) {
	tbl, err := New(
		NewFloatColumn("v", []float64{10, 20, 30}, nil),
		NewStringColumn("s", []string{"x", "y", "z"}, nil),
	)
	require.NoError(t, err)

	out := tbl.TakeRows([]int{2, -1, 0})
	require.Equal(t, 3, out.NumRows())

	v, _ := out.Col("v")
	assert.Equal(t, 30.0, v.Floats[0])
	assert.True(t, v.Valid[0])
	assert.False(t, v.Valid[1], "index -1 must produce a null cell")
	assert.Equal(t, 10.0, v.Floats[2])
}

func TestMapFloatDoesNotMutateInput(t *testing.T) {
	tbl, err := New(NewFloatColumn("v", []float64{-1, 2}, nil))
	require.NoError(t, err)

	out, err := tbl.MapFloat("v", func(v float64, ok bool) (float64, bool) {
		if ok && v < 0 {
			return 0, true
		}
		return v, ok
	})
	require.NoError(t, err)

	ov, _ := out.Col("v")
	assert.Equal(t, []float64{0, 2}, ov.Floats)
	iv, _ := tbl.Col("v")
	assert.Equal(t, []float64{-1, 2}, iv.Floats, "input table must be untouched")
}

func TestOuterJoinTime(t *testing.T) {
	left, err := New(
		NewTimeColumn("datetime", []time.Time{ts("2026-01-01T00:00:00Z"), ts("2026-01-01T01:00:00Z")}),
		NewFloatColumn("a", []float64{1, 2}, nil),
	)
	require.NoError(t, err)
	right, err := New(
		NewTimeColumn("datetime", []time.Time{ts("2026-01-01T01:00:00Z"), ts("2026-01-01T02:00:00Z")}),
		NewFloatColumn("b", []float64{20, 30}, nil),
	)
	require.NoError(t, err)

	out, err := left.OuterJoinTime(right, "datetime")
	require.NoError(t, err)
	require.Equal(t, 3, out.NumRows())

	dt, _ := out.Col("datetime")
	assert.Equal(t, ts("2026-01-01T00:00:00Z"), dt.Times[0])
	assert.Equal(t, ts("2026-01-01T02:00:00Z"), dt.Times[2])

	a, _ := out.Col("a")
	assert.True(t, a.Valid[0])
	assert.False(t, a.Valid[2], "left series must be null on right-only rows")
	b, _ := out.Col("b")
	assert.False(t, b.Valid[0], "right series must be null on left-only rows")
	assert.Equal(t, 30.0, b.Floats[2])
}

func TestOuterJoinTimeRejectsCollision(t *testing.T) {
	left, _ := New(
		NewTimeColumn("datetime", []time.Time{ts("2026-01-01T00:00:00Z")}),
		NewFloatColumn("a", []float64{1}, nil),
	)
	right, _ := New(
		NewTimeColumn("datetime", []time.Time{ts("2026-01-01T00:00:00Z")}),
		NewFloatColumn("a", []float64{2}, nil),
	)
	_, err := left.OuterJoinTime(right, "datetime")
	assert.Error(t, err)
}

func TestFoldRollupRoundTrip(t *testing.T) {
	times := []time.Time{ts("2026-01-01T00:00:00Z"), ts("2026-01-01T01:00:00Z")}
	tbl, err := New(
		NewTimeColumn("datetime", times),
		NewFloatColumn("a", []float64{1, math.NaN()}, []bool{true, false}),
		NewFloatColumn("b", []float64{3, 4}, nil),
	)
	require.NoError(t, err)

	long, err := tbl.Fold("datetime")
	require.NoError(t, err)
	require.Len(t, long.Times, 4)

	out, err := long.Rollup("datetime", "combined", func(vals []float64) (float64, bool) {
		if len(vals) == 0 {
			return 0, false
		}
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals)), true
	})
	require.NoError(t, err)

	dt, _ := out.Col("datetime")
	assert.Equal(t, times, dt.Times, "rollup must preserve the exact timestamp set")
	c, _ := out.Col("combined")
	assert.Equal(t, 2.0, c.Floats[0])
	assert.Equal(t, 4.0, c.Floats[1], "null cells are excluded from the group")
}

func TestFromCSV(t *testing.T) {
	in := "datetime,sensor_1\n2026-01-01T00:00:00Z,1.5\n2026-01-01T01:00:00Z,NA\n"
	tbl, err := FromCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"datetime", "sensor_1"}, tbl.Names())
	assert.Equal(t, 2, tbl.NumRows())

	c, _ := tbl.Col("sensor_1")
	assert.Equal(t, KindString, c.Kind, "CSV ingestion must not type cells")
	assert.Equal(t, "NA", c.Strings[1])

	_, err = FromCSV(strings.NewReader(""))
	assert.Error(t, err)
}
