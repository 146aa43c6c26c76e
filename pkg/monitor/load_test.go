package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMetaCSV = "deviceDeploymentID,locationName,longitude,latitude,timezone\n" +
		"sw_001,Ridge Top,-120.5,39.1,America/Los_Angeles\n" +
		"sw_002,Valley Floor,-120.6,39.0,America/Los_Angeles\n"

	testDataCSV = "datetime,sw_001,sw_002\n" +
		"2026-01-01T00:00:00Z,12.5,NA\n" +
		"2026-01-01T01:00:00Z,-1,8.25\n" +
		"2026-01-01T02:00:00Z,NA,9\n"
)

func csvServer(t *testing.T, metaStatus, dataStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/pm25_latest_meta.csv", func(w http.ResponseWriter, r *http.Request) {
		if metaStatus != http.StatusOK {
			w.WriteHeader(metaStatus)
			return
		}
		w.Write([]byte(testMetaCSV))
	})
	mux.HandleFunc("/feeds/pm25_latest_data.csv", func(w http.ResponseWriter, r *http.Request) {
		if dataStatus != http.StatusOK {
			w.WriteHeader(dataStatus)
			return
		}
		w.Write([]byte(testDataCSV))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadCustom(t *testing.T) {
	srv := csvServer(t, http.StatusOK, http.StatusOK)

	m := NewEmpty()
	err := m.LoadCustom(context.Background(), LoadOptions{
		BaseName: "pm25_latest",
		BaseURL:  srv.URL + "/feeds",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sw_001", "sw_002"}, m.IDs())
	assert.Equal(t, 3, m.RowCount())
	require.NoError(t, m.Validate())

	c, _ := m.Data.Col("sw_001")
	assert.Equal(t, 12.5, c.Floats[0])
	assert.Equal(t, 0.0, c.Floats[1], "negative reading clamped during load")
	assert.False(t, c.Valid[2])
}

func TestLoadFailureLeavesMonitorUnchanged(t *testing.T) {
	srv := csvServer(t, http.StatusOK, http.StatusInternalServerError)

	m := NewEmpty()
	err := m.LoadCustom(context.Background(), LoadOptions{
		BaseName: "pm25_latest",
		BaseURL:  srv.URL + "/feeds",
		Retries:  1,
	})
	require.Error(t, err, "either fetch failing fails the whole load")
	assert.Equal(t, 0, m.Count(), "no partial data is applied")
	assert.Equal(t, 0, m.RowCount())
}

func TestLoadRetries(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/pm25_latest_meta.csv", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(testMetaCSV))
	})
	mux.HandleFunc("/pm25_latest_data.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testDataCSV))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	m := NewEmpty()
	err := m.LoadCustom(context.Background(), LoadOptions{
		BaseName: "pm25_latest",
		BaseURL:  srv.URL,
		Retries:  3,
	})
	require.NoError(t, err, "a transient failure is retried")
	assert.Equal(t, 2, m.Count())
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestLoadReloadsInPlace(t *testing.T) {
	srv := csvServer(t, http.StatusOK, http.StatusOK)

	m := NewEmpty()
	opts := LoadOptions{BaseName: "pm25_latest", BaseURL: srv.URL + "/feeds"}
	require.NoError(t, m.LoadCustom(context.Background(), opts))
	require.NoError(t, m.LoadCustom(context.Background(), opts))
	assert.Equal(t, 2, m.Count(), "reloading replaces rather than accumulates")
}

func TestLoadOptionValidation(t *testing.T) {
	m := NewEmpty()
	err := m.LoadCustom(context.Background(), LoadOptions{BaseURL: "http://example.invalid"})
	assert.Error(t, err)
}

func TestLoadVariantNaming(t *testing.T) {
	assert.Equal(t, "pm25_latest", LatestLoadOptions("u", "pm25").BaseName)
	assert.Equal(t, "pm25_daily", DailyLoadOptions("u", "pm25").BaseName)
	assert.Equal(t, "pm25_2025", AnnualLoadOptions("u", "pm25", 2025).BaseName)

	assert.Equal(t, CoreMetadataColumns, LatestLoadOptions("u", "pm25").MetaColumns)
	assert.Equal(t, AnnualMetadataColumns, AnnualLoadOptions("u", "pm25", 2025).MetaColumns)
}
