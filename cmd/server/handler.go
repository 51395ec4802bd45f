package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/healthviz/patientdash/charts"
	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/dashboard"
	"github.com/healthviz/patientdash/db"
	"github.com/healthviz/patientdash/fetcher"
	"github.com/healthviz/patientdash/metrics"
	"github.com/healthviz/patientdash/records"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func patientsHandler(dbConn *sql.DB, rec *metrics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gender, err := records.ParseGender(r.URL.Query().Get(consts.GenderQueryArg))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rows, err := db.SelectPatients(dbConn, gender)
		if err != nil {
			log.Printf("Error loading patients: %v", err)
			http.Error(w, "Failed to load data", http.StatusInternalServerError)
			return
		}
		rs := records.RecordSet{}
		for p := range rows {
			rs = append(rs, p)
		}
		rec.Served(gender.String(), len(rs))
		writeJSON(w, http.StatusOK, rs)
	}
}

// ingestHandler stores one record or an array of records.
func ingestHandler(dbConn *sql.DB, rec *metrics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		err := decodeJSONBody(w, r, &raw)
		if err != nil {
			var mr *malformedRequest
			if errors.As(err, &mr) {
				http.Error(w, mr.msg, mr.status)
			} else {
				log.Printf("error decoding payload: %s", err.Error())
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			}
			return
		}

		var rs records.RecordSet
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &rs)
		} else {
			var one records.Record
			err = json.Unmarshal(trimmed, &one)
			rs = records.RecordSet{one}
		}
		if err != nil {
			http.Error(w, "Request body must be a patient record or an array of them", http.StatusBadRequest)
			return
		}

		err = db.SaveRecords(dbConn, rs, time.Now())
		if err != nil {
			log.Printf("Error handling request: %s", err.Error())
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		rec.Ingested(len(rs))
		writeJSON(w, http.StatusOK, map[string]int{"stored": len(rs)})
	}
}

// applyControls maps the gender and limit query parameters onto the controller.
// It returns the HTTP status to answer with.
func applyControls(ctrl *dashboard.Controller, r *http.Request) (int, error) {
	q := r.URL.Query()
	if s := q.Get(consts.LimitQueryArg); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return http.StatusBadRequest, dashboard.ErrInvalidLimit
		}
		if err := ctrl.SetLimit(limit); err != nil {
			return http.StatusBadRequest, err
		}
	}
	if s := q.Get(consts.GenderQueryArg); s != "" {
		gender, err := records.ParseGender(s)
		if err != nil {
			return http.StatusBadRequest, err
		}
		if gender != ctrl.Snapshot().Filter {
			if err := ctrl.SetFilter(r.Context(), gender); err != nil {
				return fetchStatus(err), err
			}
		}
	}
	return http.StatusOK, nil
}

func fetchStatus(err error) int {
	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// dashboardHandler renders the chart page. A failed fetch still renders the
// previously displayed chart, with a 502 status.
func dashboardHandler(ctrl *dashboard.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := applyControls(ctrl, r)
		if status == http.StatusBadRequest {
			http.Error(w, err.Error(), status)
			return
		}
		if err != nil {
			w.Header().Set("X-Dashboard-Error", "Failed to load data: "+err.Error())
		}

		v := ctrl.Snapshot()
		page := charts.Page(v.Chart(), v.Map)
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		_ = page.Render(w)
	}
}

type chartResponse struct {
	Filter      string                 `json:"filter"`
	Limit       int                    `json:"limit"`
	Labels      []string               `json:"labels"`
	Counts      []int                  `json:"counts"`
	Records     int                    `json:"records"`
	Loading     bool                   `json:"loading"`
	MapState    string                 `json:"mapState"`
	Markers     []charts.Marker        `json:"markers,omitempty"`
	LastUpdated string                 `json:"lastUpdated,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Options     map[string]interface{} `json:"options"`
}

func newChartResponse(v dashboard.View) chartResponse {
	bar := v.Chart()
	bar.Validate()
	resp := chartResponse{
		Filter:   v.Filter.String(),
		Limit:    v.Limit,
		Labels:   v.Spec.Labels,
		Counts:   v.Spec.Counts,
		Records:  v.Records,
		Loading:  v.Loading,
		MapState: v.MapState.String(),
		Options:  bar.JSON(),
	}
	if resp.Labels == nil {
		resp.Labels, resp.Counts = []string{}, []int{}
	}
	if v.Map != nil {
		resp.Markers = v.Map.Markers()
	}
	if !v.LastUpdated.IsZero() {
		resp.LastUpdated = v.LastUpdated.UTC().Format(time.RFC3339)
	}
	if v.LastError != nil {
		resp.Error = v.LastError.Error()
	}
	return resp
}

func chartJSONHandler(ctrl *dashboard.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := applyControls(ctrl, r)
		if status == http.StatusBadRequest {
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, status, newChartResponse(ctrl.Snapshot()))
	}
}

func refreshHandler(ctrl *dashboard.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ctrl.Load(r.Context()); err != nil {
			http.Error(w, "Failed to load data: "+err.Error(), fetchStatus(err))
			return
		}
		writeJSON(w, http.StatusOK, newChartResponse(ctrl.Snapshot()))
	}
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}
}

// apiKeyMiddleware requires key as a bearer token or api_key query parameter. An empty key disables the check.
func apiKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			provided := r.URL.Query().Get(consts.APIKeyQueryParam)
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, consts.AuthHeaderPrefix) {
				provided = strings.TrimPrefix(auth, consts.AuthHeaderPrefix)
			}
			if provided != key {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
