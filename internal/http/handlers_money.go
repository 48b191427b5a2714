package http

import (
	"net/http"
	"sync/atomic"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
)

const (
	msgMissingFields  = "Missing required fields"
	msgInvalidAmount  = "Invalid amount"
	msgRecordNotFound = "Record not found"
)

// parseMoneyInput reads a money record from the body. Type, title, date and
// amount are required; a zero amount is valid.
func parseMoneyInput(r *http.Request) (core.MoneyInput, string) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.MoneyInput{}, msgInvalidBody
	}

	in := core.MoneyInput{
		Type:      p.Get("type"),
		Title:     p.Get("title"),
		Date:      p.Get("date"),
		Currency:  p.Get("currency"),
		HasAmount: p.Has("amount"),
	}
	if in.Validate() != nil {
		return core.MoneyInput{}, msgMissingFields
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.MoneyInput{}, msgInvalidAmount
	}
	in.Amount = amount
	return in, ""
}

func (s *Server) handleListMoney(w http.ResponseWriter, r *http.Request) {
	records, err := s.money.List(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoney, applog.OpList, "Failed to fetch money records")
		return
	}
	writeSuccess(w, http.StatusOK, "data", records)
}

func (s *Server) handleMoneyByType(w http.ResponseWriter, r *http.Request) {
	typ := r.PathValue("type")
	records, err := s.money.ListByType(r.Context(), typ)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoney, applog.OpList, "Failed to fetch money records",
			applog.FieldMoneyType, typ)
		return
	}
	writeSuccess(w, http.StatusOK, "data", records)
}

func (s *Server) handleMoneySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.money.SummaryByType(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoney, applog.OpSummary, "Failed to summarize money records")
		return
	}
	writeSuccess(w, http.StatusOK, "data", summary)
}

func (s *Server) handleMoneyInRange(w http.ResponseWriter, r *http.Request) {
	start, end := r.PathValue("start"), r.PathValue("end")
	records, err := s.money.ListByDateRange(r.Context(), start, end)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoney, applog.OpList, "Failed to fetch money records",
			"start_date", start, "end_date", end)
		return
	}
	writeSuccess(w, http.StatusOK, "data", records)
}

func (s *Server) handleCreateMoney(w http.ResponseWriter, r *http.Request) {
	in, problem := parseMoneyInput(r)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem, "")
		return
	}

	rec, err := s.money.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoney, applog.OpCreate, "Failed to record money record",
			applog.FieldMoneyType, in.Type)
		return
	}

	atomic.AddInt64(&s.appMetrics.moneyCreated, 1)
	writeSuccess(w, http.StatusCreated, "data", rec)
}

func (s *Server) handleGetMoney(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID, "")
		return
	}

	rec, found, err := s.money.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoney, applog.OpRead, "Failed to fetch money record",
			applog.FieldID, id)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, msgRecordNotFound, "")
		return
	}
	writeSuccess(w, http.StatusOK, "data", rec)
}

func (s *Server) handleUpdateMoney(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID, "")
		return
	}
	in, problem := parseMoneyInput(r)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem, "")
		return
	}

	res, err := s.money.Update(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoney, applog.OpUpdate, "Failed to update money record",
			applog.FieldID, id)
		return
	}
	writeSuccess(w, http.StatusOK, "data", res)
}

func (s *Server) handleDeleteMoney(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID, "")
		return
	}

	res, err := s.money.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoney, applog.OpDelete, "Failed to delete money record",
			applog.FieldID, id)
		return
	}
	writeSuccess(w, http.StatusOK, "data", res)
}
