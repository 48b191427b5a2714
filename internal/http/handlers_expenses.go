package http

import (
	"net/http"
	"strings"

	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
)

// Expenses are moments with a positive cost.

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.moments.ExpenseSummaryByCategory(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpSummary, "Failed to fetch expense summary")
		return
	}
	writeSuccess(w, http.StatusOK, "summary", summary)
}

func (s *Server) handleExpenseTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.moments.TotalExpenses(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpSummary, "Failed to fetch total expenses")
		return
	}
	writeSuccess(w, http.StatusOK, "totals", totals)
}

func (s *Server) handleExpensesInRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := strings.TrimSpace(q.Get("startDate"))
	end := strings.TrimSpace(q.Get("endDate"))
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "startDate and endDate are required", "")
		return
	}

	expenses, err := s.moments.ListExpensesInRange(r.Context(), start, end)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpList, "Failed to fetch expenses",
			"start_date", start, "end_date", end)
		return
	}
	writeSuccess(w, http.StatusOK, "expenses", expenses)
}
