// Package geojson renders the current status of a sensor fleet as a GeoJSON
// FeatureCollection: one Point feature per device deployment.
package geojson

import (
	"fmt"
	"strconv"
	"time"

	"github.com/airwatchio/airwatch/pkg/monitor"
	"github.com/airwatchio/airwatch/pkg/table"
)

// FeatureCollection is a GeoJSON FeatureCollection document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON Feature with a Point geometry.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

// Geometry is a GeoJSON Point geometry: coordinates are [longitude, latitude].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FromMonitor builds a FeatureCollection of current deployment status. Each
// feature carries the deployment identifier, display name, the last valid
// timestamp formatted with the deployment's zone offset, and the last valid
// value as a string. Deployments without both coordinates are skipped;
// deployments with no valid observations carry empty status properties.
func FromMonitor(m *monitor.Monitor) (*FeatureCollection, error) {
	records, err := m.StatusRecords()
	if err != nil {
		return nil, err
	}

	fc := &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for i, rec := range records {
		lon, lonOK := metaFloat(m.Meta, "longitude", i)
		lat, latOK := metaFloat(m.Meta, "latitude", i)
		if !lonOK || !latOK {
			continue
		}

		props := map[string]string{
			"deviceDeploymentID": rec.DeviceDeploymentID,
			"locationName":       metaString(m.Meta, "locationName", i),
			"lastValidDatetime":  "",
			"lastValidValue":     "",
		}
		if rec.HasValid {
			props["lastValidDatetime"] = formatLocal(rec.LastValidTime, metaString(m.Meta, "timezone", i))
			props["lastValidValue"] = strconv.FormatFloat(rec.LastValidValue, 'f', -1, 64)
		}

		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{lon, lat},
			},
			Properties: props,
		})
	}
	return fc, nil
}

// formatLocal renders ts in the deployment's timezone with an explicit zone
// offset. An empty or unrecognized timezone falls back to UTC.
func formatLocal(ts time.Time, timezone string) string {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return ts.In(loc).Format("2006-01-02T15:04:05-07:00")
}

func metaFloat(meta *table.Table, name string, row int) (float64, bool) {
	c, ok := meta.Col(name)
	if !ok || c.Kind != table.KindFloat || row >= c.Len() {
		return 0, false
	}
	return c.Floats[row], c.Valid[row]
}

func metaString(meta *table.Table, name string, row int) string {
	c, ok := meta.Col(name)
	if !ok || c.Kind != table.KindString || row >= c.Len() || !c.Valid[row] {
		return ""
	}
	return c.Strings[row]
}

// Validate performs a structural sanity check used by tests and callers
// that assemble collections by hand.
func (fc *FeatureCollection) Validate() error {
	if fc.Type != "FeatureCollection" {
		return fmt.Errorf("geojson: type is %q, want FeatureCollection", fc.Type)
	}
	for i, f := range fc.Features {
		if f.Type != "Feature" {
			return fmt.Errorf("geojson: feature %d type is %q, want Feature", i, f.Type)
		}
		if f.Geometry.Type != "Point" {
			return fmt.Errorf("geojson: feature %d geometry is %q, want Point", i, f.Geometry.Type)
		}
	}
	return nil
}
