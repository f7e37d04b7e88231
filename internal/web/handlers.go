package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/JonMunkholm/orderenhancer/internal/core"
	"github.com/go-chi/chi/v5"
)

// maxRewriteBody bounds the JSON body of a rewrite request.
const maxRewriteBody = 4 << 10

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string                   `json:"status"`
	Exports core.ExportLimiterStatus `json:"exports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Exports: s.service.ExportLimiterStatus(),
	})
}

// handleGrid returns one page of the order grid: GET /api/orders/grid?page=&store=
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	ctx, err := withRequestScope(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil {
			s.respondError(w, r, fmt.Errorf("invalid page %q", v), 0)
			return
		}
	}

	result, err := s.service.LoadGrid(ctx, page)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// exportResponse is the body of a successful export request.
type exportResponse struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Rm       bool   `json:"rm"`
	File     string `json:"file"`
	Download string `json:"download"`
}

// handleExport generates a grid export: POST /api/orders/export/csv or /xml
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx, err := withRequestScope(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	format, err := core.ParseFormat(chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	result, err := s.service.Export(ctx, format)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	file := filepath.Base(result.Value)
	writeJSON(w, http.StatusCreated, exportResponse{
		Type:     result.Type,
		Value:    result.Value,
		Rm:       result.Rm,
		File:     file,
		Download: "/api/orders/export/" + file,
	})
}

// handleDownloadExport serves a generated export: GET /api/orders/export/{name}
func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	data, err := s.service.OpenExport(name)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	// XML exports are CSV-shaped too.
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// rewriteRequest is the body of POST /api/export/rewrite.
type rewriteRequest struct {
	File string `json:"file"`
}

// rewriteResponse summarizes one post-processing run.
type rewriteResponse struct {
	File            string   `json:"file"`
	Skipped         string   `json:"skipped,omitempty"`
	Removed         []string `json:"removed"`
	DuplicatePhones int      `json:"duplicate_phones"`
	Rows            int      `json:"rows"`
	Changed         bool     `json:"changed"`
}

// handleRewriteExport post-processes an existing file in the var directory.
func (s *Server) handleRewriteExport(w http.ResponseWriter, r *http.Request) {
	ctx, err := withRequestScope(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	var req rewriteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRewriteBody)).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid export name: %w", err), http.StatusBadRequest)
		return
	}
	if req.File == "" {
		s.respondError(w, r, fmt.Errorf("invalid export name %q", req.File), 0)
		return
	}

	report, err := s.service.RewriteExport(ctx, req.File)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	removed := report.Outcome.Removed
	if removed == nil {
		removed = []string{}
	}
	writeJSON(w, http.StatusOK, rewriteResponse{
		File:            report.Path,
		Skipped:         report.Skipped,
		Removed:         removed,
		DuplicatePhones: report.Outcome.DuplicatePhones,
		Rows:            report.Outcome.Rows,
		Changed:         report.Outcome.Changed(),
	})
}

// settingsResponse lists the effective flags for one scope.
type settingsResponse struct {
	StoreID *int            `json:"store_id,omitempty"`
	Flags   map[string]bool `json:"flags"`
}

// handleSettings returns the effective feature flags: GET /api/settings?store=
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx, err := withRequestScope(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusOK, settingsResponse{
		StoreID: core.StoreIDFromContext(ctx),
		Flags:   s.service.Flags(ctx),
	})
}
