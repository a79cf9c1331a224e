package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"expensetracker/internal/core"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now().In(s.loc))
	if err != nil {
		respondError(w, r, err)
		return
	}
	ref := time.Date(params.Year, params.Month, 1, 0, 0, 0, 0, s.loc)
	m, err := s.analytics.Month(r.Context(), ref)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMonthResponse(m))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.analytics.Dashboard(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(d))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCategoryEntries(s.analytics.Categories()))
}

type addCategoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req addCategoryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, r, badRequestf("malformed request body: %v", err))
		return
	}
	name := sanitizeInput(req.Name)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "category name is required")
		return
	}

	if name == core.PlaceholderCategory {
		writeError(w, http.StatusUnprocessableEntity, "invalid category name")
		return
	}

	// Existing and built-in names are accepted without change.
	status := http.StatusOK
	if s.analytics.AddCategory(name) {
		status = http.StatusCreated
	}
	writeJSON(w, status, newCategoryEntries(s.analytics.Categories()))
}
