package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/elifbarlik/AIResearchAutomationAgent/internal/pipeline"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/rendering"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/reports"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/storage"
	"github.com/elifbarlik/AIResearchAutomationAgent/internal/types"
)

// maxBodyBytes caps research request bodies
const maxBodyBytes = 64 << 10

const reportNotFound = "Report not found"

// OverviewRequest represents the request body for /research/overview
type OverviewRequest struct {
	Topic string      `json:"topic"`
	Depth types.Depth `json:"depth"`
}

// CompareRequest represents the request body for /research/compare
type CompareRequest struct {
	ItemA string      `json:"item_a"`
	ItemB string      `json:"item_b"`
	Depth types.Depth `json:"depth"`
}

// CustomRequest represents the request body for /research/custom
type CustomRequest struct {
	Query string      `json:"query"`
	Depth types.Depth `json:"depth"`
}

// ViewResponse represents the JSON form of /reports/view/{filename}
type ViewResponse struct {
	HTML  string `json:"html"`
	Title string `json:"title"`
}

// decodeBody reads a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &ErrMalformedJSON{Err: errors.New("request body is empty")}
		}
		return &ErrMalformedJSON{Err: err}
	}
	return nil
}

// handleOverview runs an overview report
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	var body OverviewRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.failure(w, err)
		return
	}
	s.research(w, r, types.ResearchRequest{Mode: types.ModeOverview, Topic: body.Topic, Depth: body.Depth})
}

// handleCompare runs a comparison report
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var body CompareRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.failure(w, err)
		return
	}
	s.research(w, r, types.ResearchRequest{Mode: types.ModeCompare, ItemA: body.ItemA, ItemB: body.ItemB, Depth: body.Depth})
}

// handleCustom runs a free-form query, resolved to overview or compare
func (s *Server) handleCustom(w http.ResponseWriter, r *http.Request) {
	var body CustomRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.failure(w, err)
		return
	}
	s.research(w, r, types.ResearchRequest{Mode: types.ModeCustom, Query: body.Query, Depth: body.Depth})
}

// research runs req synchronously and writes the result
func (s *Server) research(w http.ResponseWriter, r *http.Request, req types.ResearchRequest) {
	result, err := s.runner.RunWithProgress(r.Context(), req, nil)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// failure maps err to its status code and writes {"detail": ...}
func (s *Server) failure(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.errorResponse(w, status, Detail(err))
}

// handleStream runs any request and streams stage progress via SSE
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req types.ResearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.failure(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.runner.RunWithProgress(r.Context(), req, func(event pipeline.ProgressEvent) {
		if werr := sse.WriteEvent(EventStep, event); werr != nil {
			s.logger.Debug("failed to write progress event", "error", werr)
		}
	})
	if err != nil {
		_ = sse.WriteError(HTTPStatus(err), Detail(err))
		return
	}
	_ = sse.WriteComplete(result)
}

// handleViewReport returns a stored report as HTML
func (s *Server) handleViewReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "html" {
		s.errorResponse(w, http.StatusBadRequest, "Invalid format: must be json or html")
		return
	}

	name, err := reports.Clean(r.PathValue("filename"))
	if err != nil || filepath.Ext(name) != reports.ExtMarkdown {
		s.errorResponse(w, http.StatusNotFound, reportNotFound)
		return
	}

	markdown, err := s.reports.Open(name)
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, reportNotFound)
			return
		}
		s.failure(w, err)
		return
	}

	html, err := rendering.ToHTML(string(markdown))
	if err != nil {
		s.failure(w, err)
		return
	}

	if format == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, html)
		return
	}

	s.jsonResponse(w, http.StatusOK, ViewResponse{
		HTML:  html,
		Title: rendering.DocumentTitle(html),
	})
}

// handleDownloadPDF serves a generated PDF
func (s *Server) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	name, err := reports.Clean(r.PathValue("filename"))
	if err != nil || filepath.Ext(name) != reports.ExtPDF {
		s.errorResponse(w, http.StatusNotFound, reportNotFound)
		return
	}

	data, err := s.reports.Open(name)
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, reportNotFound)
			return
		}
		s.failure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleListReports lists stored markdown reports, newest first
func (s *Server) handleListReports(w http.ResponseWriter, _ *http.Request) {
	entries, err := s.reports.List()
	if err != nil {
		s.failure(w, err)
		return
	}
	if entries == nil {
		entries = []reports.Entry{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"reports": entries})
}

// handleListRuns returns recent run history
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorResponse(w, http.StatusNotFound, "Run history is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := s.history.ListRuns(r.Context(), storage.Limit(limit))
	if err != nil {
		s.failure(w, err)
		return
	}
	if runs == nil {
		runs = []*storage.RunRecord{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}
