package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	applog "expensetracker/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	items, err := s.expenses.List(r.Context(), opts)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseList(items))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.expenses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(e))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := decodeExpenseInput(r, s.loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	saved, err := s.expenses.Create(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		applog.NewFields().
			WithExpense(saved.ID, saved.Amount.Cents, saved.Category).
			WithOperation(applog.OpCreate).
			ToSlice()...)
	w.Header().Set("Location", "/api/expenses/"+saved.ID)
	writeJSON(w, http.StatusCreated, newExpenseResponse(saved))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	in, err := decodeExpenseInput(r, s.loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	updated, err := s.expenses.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		applog.FieldExpenseID, id,
		applog.FieldOperation, applog.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
