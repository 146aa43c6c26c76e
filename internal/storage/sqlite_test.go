package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwatchio/airwatch/pkg/monitor"
)

func testStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := testStore(t)

	in := []monitor.StatusRecord{
		{
			DeviceDeploymentID: "sw_001",
			LastValidTime:      time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC),
			LastValidValue:     12.5,
			HasValid:           true,
		},
		{DeviceDeploymentID: "sw_002"},
	}
	id, err := store.RecordSnapshot("pm25", in)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	out, err := store.LatestSnapshot("pm25")
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "sw_001", out[0].DeviceDeploymentID)
	assert.True(t, out[0].HasValid)
	assert.Equal(t, 12.5, out[0].LastValidValue)
	assert.True(t, out[0].LastValidTime.Equal(time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC)))

	assert.Equal(t, "sw_002", out[1].DeviceDeploymentID)
	assert.False(t, out[1].HasValid)
}

func TestLatestSnapshotWins(t *testing.T) {
	store := testStore(t)

	_, err := store.RecordSnapshot("pm25", []monitor.StatusRecord{
		{DeviceDeploymentID: "sw_001", LastValidTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), LastValidValue: 1, HasValid: true},
	})
	require.NoError(t, err)

	// Recorded later, so this snapshot supersedes the first.
	time.Sleep(10 * time.Millisecond)
	_, err = store.RecordSnapshot("pm25", []monitor.StatusRecord{
		{DeviceDeploymentID: "sw_001", LastValidTime: time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC), LastValidValue: 9, HasValid: true},
	})
	require.NoError(t, err)

	out, err := store.LatestSnapshot("pm25")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 9.0, out[0].LastValidValue)
}

func TestSnapshotCollectionsIsolated(t *testing.T) {
	store := testStore(t)

	_, err := store.RecordSnapshot("pm25", []monitor.StatusRecord{
		{DeviceDeploymentID: "sw_001", LastValidValue: 1, HasValid: true, LastValidTime: time.Now().UTC()},
	})
	require.NoError(t, err)

	out, err := store.LatestSnapshot("ozone")
	require.NoError(t, err)
	assert.Empty(t, out)
}
