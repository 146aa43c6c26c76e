// Package monitor implements the paired-table container for fleets of
// environmental sensors: a metadata table (one row per device deployment)
// bound to an hourly time-series table (one column per deployment), plus the
// transformations that preserve that binding — selection, filtering, local
// calendar-day trimming, merging, cross-series aggregation, and current
// status reporting.
//
// All transformations are pure: they return a new Monitor and never mutate
// the receiver or any argument. The Load* methods are the documented
// exception; they replace the receiver's tables in place to support reload.
package monitor

import (
	"fmt"
	"time"

	"github.com/airwatchio/airwatch/pkg/table"
)

// Column names shared between the metadata and time-series tables.
const (
	DatetimeColumn           = "datetime"
	DeviceDeploymentIDColumn = "deviceDeploymentID"
)

// Metadata columns appended by CurrentStatus.
const (
	LastValidDatetimeColumn = "lastValidDatetime"
	LastValidValueColumn    = "lastValidValue"
)

// CoreMetadataColumns is the standard metadata allow-list used by the latest
// and daily loaders.
var CoreMetadataColumns = []string{
	DeviceDeploymentIDColumn,
	"deviceID",
	"deviceType",
	"deviceDescription",
	"pollutant",
	"units",
	"dataIngestSource",
	"locationID",
	"locationName",
	"longitude",
	"latitude",
	"elevation",
	"countryCode",
	"stateCode",
	"countyName",
	"timezone",
	"AQSID",
	"fullAQSID",
}

// AnnualMetadataColumns is the allow-list used by annual archive loads,
// which carry fewer descriptive fields than the operational feeds.
var AnnualMetadataColumns = []string{
	DeviceDeploymentIDColumn,
	"deviceID",
	"deviceType",
	"pollutant",
	"units",
	"locationID",
	"locationName",
	"longitude",
	"latitude",
	"elevation",
	"countryCode",
	"stateCode",
	"timezone",
	"fullAQSID",
}

// floatMetadataColumns are the metadata columns coerced to float during
// parsing.
var floatMetadataColumns = map[string]bool{
	"longitude": true,
	"latitude":  true,
	"elevation": true,
}

// Monitor is the paired-table instance: Meta holds one row per device
// deployment, Data holds the shared hourly UTC time axis plus one float
// column per deployment. The set of non-datetime Data columns always equals
// the set of Meta deviceDeploymentID values.
type Monitor struct {
	Meta *table.Table
	Data *table.Table
}

// NewEmpty returns a Monitor with zero deployments and an empty time axis.
func NewEmpty() *Monitor {
	meta, _ := table.New(table.NewStringColumn(DeviceDeploymentIDColumn, nil, nil))
	data, _ := table.New(table.NewTimeColumn(DatetimeColumn, nil))
	return &Monitor{Meta: meta, Data: data}
}

// New binds a metadata table to a time-series table, verifying the binding
// invariant and the time-series schema.
func New(meta, data *table.Table) (*Monitor, error) {
	m := &Monitor{Meta: meta, Data: data}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Count returns the number of device deployments.
func (m *Monitor) Count() int {
	return m.Meta.NumRows()
}

// RowCount returns the number of time-series rows.
func (m *Monitor) RowCount() int {
	return m.Data.NumRows()
}

// IDs returns the deployment identifiers in metadata order.
func (m *Monitor) IDs() []string {
	col, ok := m.Meta.Col(DeviceDeploymentIDColumn)
	if !ok {
		return nil
	}
	return append([]string(nil), col.Strings...)
}

// Timestamps returns a copy of the shared time axis.
func (m *Monitor) Timestamps() []time.Time {
	col, ok := m.Data.Col(DatetimeColumn)
	if !ok {
		return nil
	}
	return append([]time.Time(nil), col.Times...)
}

// dataIDs returns the non-datetime column names of the time-series table.
func (m *Monitor) dataIDs() []string {
	var ids []string
	for _, name := range m.Data.Names() {
		if name != DatetimeColumn {
			ids = append(ids, name)
		}
	}
	return ids
}

// metaRowIndex maps deployment identifier to metadata row, erroring on
// duplicates.
func (m *Monitor) metaRowIndex() (map[string]int, error) {
	col, ok := m.Meta.Col(DeviceDeploymentIDColumn)
	if !ok {
		return nil, fmt.Errorf("monitor: metadata has no %s column", DeviceDeploymentIDColumn)
	}
	idx := make(map[string]int, col.Len())
	for i, id := range col.Strings {
		if _, dup := idx[id]; dup {
			return nil, fmt.Errorf("monitor: duplicate deployment identifier %q in metadata", id)
		}
		idx[id] = i
	}
	return idx, nil
}

// rebind selects the time-series columns for ids (datetime first, then ids
// in order), restoring the binding invariant after a metadata mutation.
func rebind(data *table.Table, ids []string) (*table.Table, error) {
	names := append([]string{DatetimeColumn}, ids...)
	return data.SelectCols(names...)
}
