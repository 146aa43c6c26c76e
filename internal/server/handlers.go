package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/airwatchio/airwatch/pkg/geojson"
	"github.com/airwatchio/airwatch/pkg/monitor"
	"github.com/airwatchio/airwatch/pkg/responseformat"
	"github.com/airwatchio/airwatch/pkg/table"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

type collectionSummary struct {
	Name        string    `json:"name" msgpack:"name"`
	LastUpdated time.Time `json:"lastUpdated" msgpack:"lastUpdated"`
	Deployments int       `json:"deployments" msgpack:"deployments"`
	Rows        int       `json:"rows" msgpack:"rows"`
}

// ListCollections returns a summary of every loaded collection.
func (h *Handlers) ListCollections(w http.ResponseWriter, req *http.Request) {
	var summaries []collectionSummary
	for _, name := range h.controller.registry.Names() {
		c, err := h.controller.registry.Get(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, collectionSummary{
			Name:        c.Name,
			LastUpdated: c.LastUpdated,
			Deployments: c.Monitor.Count(),
			Rows:        c.Monitor.RowCount(),
		})
	}
	h.formatter.WriteResponse(w, req, summaries, nil)
}

// CollectionIDs returns the ordered deployment identifiers of a collection.
func (h *Handlers) CollectionIDs(w http.ResponseWriter, req *http.Request) {
	c, ok := h.lookup(w, req)
	if !ok {
		return
	}
	h.formatter.WriteResponse(w, req, responseformat.Envelope{
		LastUpdated: c.LastUpdated,
		Data:        c.Monitor.IDs(),
	}, nil)
}

// CollectionMeta returns the metadata table of a collection, one object per
// deployment.
func (h *Handlers) CollectionMeta(w http.ResponseWriter, req *http.Request) {
	c, ok := h.lookup(w, req)
	if !ok {
		return
	}
	h.formatter.WriteResponse(w, req, responseformat.Envelope{
		LastUpdated: c.LastUpdated,
		Data:        metaRows(c.Monitor),
	}, nil)
}

type statusPayload struct {
	DeviceDeploymentID string     `json:"deviceDeploymentID" msgpack:"deviceDeploymentID"`
	LastValidDatetime  *time.Time `json:"lastValidDatetime" msgpack:"lastValidDatetime"`
	LastValidValue     *float64   `json:"lastValidValue" msgpack:"lastValidValue"`
}

// CollectionStatus returns the most recent non-missing observation per
// deployment.
func (h *Handlers) CollectionStatus(w http.ResponseWriter, req *http.Request) {
	c, ok := h.lookup(w, req)
	if !ok {
		return
	}
	records, err := c.Monitor.StatusRecords()
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, err.Error())
		return
	}
	payload := make([]statusPayload, 0, len(records))
	for _, rec := range records {
		p := statusPayload{DeviceDeploymentID: rec.DeviceDeploymentID}
		if rec.HasValid {
			t := rec.LastValidTime
			v := rec.LastValidValue
			p.LastValidDatetime = &t
			p.LastValidValue = &v
		}
		payload = append(payload, p)
	}
	h.formatter.WriteResponse(w, req, responseformat.Envelope{
		LastUpdated: c.LastUpdated,
		Data:        payload,
	}, nil)
}

// CollectionGeoJSON returns the current status of a collection as a GeoJSON
// FeatureCollection.
func (h *Handlers) CollectionGeoJSON(w http.ResponseWriter, req *http.Request) {
	c, ok := h.lookup(w, req)
	if !ok {
		return
	}
	fc, err := geojson.FromMonitor(c.Monitor)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusInternalServerError, err.Error())
		return
	}
	h.formatter.WriteResponse(w, req, fc, map[string]string{
		"Content-Type": "application/geo+json",
	})
}

func (h *Handlers) lookup(w http.ResponseWriter, req *http.Request) (Collection, bool) {
	name := mux.Vars(req)["name"]
	c, err := h.controller.registry.Get(name)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
		return Collection{}, false
	}
	return c, true
}

// metaRows flattens the metadata table into one map per deployment. Null
// cells are omitted; a zero time in the lastValidDatetime column marks a
// series with no valid observations and is likewise omitted.
func metaRows(m *monitor.Monitor) []map[string]any {
	n := m.Meta.NumRows()
	rows := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		row := make(map[string]any)
		for _, col := range m.Meta.Columns() {
			switch col.Kind {
			case table.KindFloat:
				if col.Valid[i] {
					row[col.Name] = col.Floats[i]
				}
			case table.KindString:
				if col.Valid[i] {
					row[col.Name] = col.Strings[i]
				}
			case table.KindTime:
				if !col.Times[i].IsZero() {
					row[col.Name] = col.Times[i]
				}
			}
		}
		rows[i] = row
	}
	return rows
}
