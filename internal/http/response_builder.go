package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"expensetracker/internal/analytics"
	"expensetracker/internal/core"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

type expenseResponse struct {
	ID            string `json:"id"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Category      string `json:"category"`
	Date          string `json:"date,omitempty"`
	PaymentMethod string `json:"payment_method"`
	Note          string `json:"note,omitempty"`
	Symbol        string `json:"symbol"`
	CreatedAt     string `json:"created_at"`
}

type categorySpendingResponse struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Color    string `json:"color"`
}

type dailySpendingResponse struct {
	Day    string `json:"day"`
	Amount string `json:"amount"`
}

type summaryResponse struct {
	TopCategory   *string `json:"top_category"`
	AveragePerDay string  `json:"average_per_day"`
	Total         string  `json:"total"`
	Days          int     `json:"days"`
}

type monthResponse struct {
	Year       int                        `json:"year"`
	Month      int                        `json:"month"`
	Count      int                        `json:"count"`
	Categories []categorySpendingResponse `json:"categories"`
	Daily      []dailySpendingResponse    `json:"daily"`
	Summary    summaryResponse            `json:"summary"`
}

type dashboardResponse struct {
	TodayTotal string            `json:"today_total"`
	MonthTotal string            `json:"month_total"`
	Recent     []expenseResponse `json:"recent"`
}

type categoryEntryResponse struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	BuiltIn bool   `json:"built_in"`
}

func newExpenseResponse(e core.Expense) expenseResponse {
	resp := expenseResponse{
		ID:            e.ID,
		Amount:        e.Amount.String(),
		AmountCents:   e.Amount.Cents,
		Category:      e.Category,
		PaymentMethod: string(e.PaymentMethod),
		Note:          e.Note,
		Symbol:        e.Symbol,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
	if e.HasDate() {
		resp.Date = e.Date.Format(time.RFC3339)
	}
	return resp
}

func newExpenseList(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, newExpenseResponse(e))
	}
	return out
}

func newMonthResponse(m analytics.Month) monthResponse {
	resp := monthResponse{
		Year:       m.Year,
		Month:      int(m.Month),
		Count:      m.Count,
		Categories: make([]categorySpendingResponse, 0, len(m.Categories)),
		Daily:      make([]dailySpendingResponse, 0, len(m.Daily)),
		Summary: summaryResponse{
			AveragePerDay: m.Summary.AveragePerDay.String(),
			Total:         m.Summary.Total.String(),
			Days:          m.Summary.Days,
		},
	}
	if m.Summary.HasTopCategory {
		top := m.Summary.TopCategory
		resp.Summary.TopCategory = &top
	}
	for _, c := range m.Categories {
		resp.Categories = append(resp.Categories, categorySpendingResponse{
			Category: c.Category,
			Amount:   c.Amount.String(),
			Color:    c.Color.Hex(),
		})
	}
	for _, d := range m.Daily {
		resp.Daily = append(resp.Daily, dailySpendingResponse{
			Day:    d.Day.Format("2006-01-02"),
			Amount: d.Amount.String(),
		})
	}
	return resp
}

func newDashboardResponse(d services.Dashboard) dashboardResponse {
	return dashboardResponse{
		TodayTotal: d.TodayTotal.String(),
		MonthTotal: d.MonthTotal.String(),
		Recent:     newExpenseList(d.Recent),
	}
}

func newCategoryEntries(entries []core.CategoryEntry) []categoryEntryResponse {
	out := make([]categoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, categoryEntryResponse{Name: e.Name, Color: e.Color.Hex(), BuiltIn: e.BuiltIn})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case isBadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs server-side failures and hides their details.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
