package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/couchcryptid/remote-sensing-etl/internal/dataset"
	"github.com/couchcryptid/remote-sensing-etl/internal/domain"
)

type timepointsResponse struct {
	Timepoints []domain.Date `json:"timepoints"`
}

type valuesResponse struct {
	Date   domain.Date         `json:"date"`
	Index  domain.Index        `json:"index"`
	Values []dataset.DateValue `json:"values"`
}

type seriesResponse struct {
	Region       string               `json:"region"`
	Observations []domain.Observation `json:"observations"`
}

type regionsResponse struct {
	Regions []string `json:"regions"`
}

type reloadResponse struct {
	Rows    int                  `json:"rows"`
	Files   int                  `json:"files"`
	Skipped []dataset.FileReport `json:"skipped"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTimepoints(w http.ResponseWriter, _ *http.Request) {
	tps, err := s.views.Timepoints()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timepointsResponse{Timepoints: nonNil(tps)})
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, err := domain.ParseDate(q.Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	idx := domain.NDVI
	if raw := q.Get("index"); raw != "" {
		if idx, err = domain.ParseIndex(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	vals, err := s.views.ValuesForDate(date, idx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valuesResponse{Date: date, Index: idx, Values: nonNil(vals)})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(r.URL.Query().Get("region"))
	if region == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "region is required"})
		return
	}

	obs, err := s.views.SeriesForRegion(region)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{Region: region, Observations: nonNil(obs)})
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	regions, err := s.views.Regions()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regionsResponse{Regions: nonNil(regions)})
}

func (s *Server) handleFiles(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.views.Load(false); err != nil {
		s.writeError(w, err)
		return
	}
	report := s.views.Report()
	report.Files = nonNil(report.Files)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	ds, err := s.views.Load(true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report := s.views.Report()
	writeJSON(w, http.StatusOK, reloadResponse{
		Rows:    ds.Len(),
		Files:   len(report.Files),
		Skipped: nonNil(report.Skipped()),
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownIndex):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, dataset.ErrSourceDir):
		s.logger.Error("dataset unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "dataset unavailable"})
	default:
		s.logger.Error("view failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// nonNil keeps empty results encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
