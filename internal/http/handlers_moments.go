package http

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/AppleZ1995/CalendarAssistant/internal/core"
	applog "github.com/AppleZ1995/CalendarAssistant/internal/log"
)

const (
	msgTitleDateRequired = "Title and date are required"
	msgInvalidCost       = "Invalid cost"
	msgInvalidID         = "Invalid id"
	msgInvalidBody       = "Invalid request body"
	msgMomentNotFound    = "Moment not found"
)

// parseMomentInput reads a moment from the body. Omitted fields stay blank;
// the repository applies defaults.
func parseMomentInput(r *http.Request) (core.MomentInput, string) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.MomentInput{}, msgInvalidBody
	}

	in := core.MomentInput{
		Title:       p.Get("title"),
		Description: p.Get("description"),
		Date:        p.Get("date"),
		Time:        p.Get("time"),
		Category:    p.Get("category"),
		Currency:    p.Get("currency"),
	}
	if in.Validate() != nil {
		return core.MomentInput{}, msgTitleDateRequired
	}

	if raw := p.Get("cost"); strings.TrimSpace(raw) != "" {
		cost, err := core.ParseAmount(raw)
		if err != nil {
			return core.MomentInput{}, msgInvalidCost
		}
		in.Cost = cost
	}
	return in, ""
}

func (s *Server) handleCreateMoment(w http.ResponseWriter, r *http.Request) {
	in, problem := parseMomentInput(r)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem, "")
		return
	}

	m, err := s.moments.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpCreate, "Failed to record moment",
			applog.FieldDate, in.Date)
		return
	}

	atomic.AddInt64(&s.appMetrics.momentsCreated, 1)
	writeSuccess(w, http.StatusCreated, "moment", m)
}

func (s *Server) handleListMoments(w http.ResponseWriter, r *http.Request) {
	moments, err := s.moments.List(r.Context())
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpList, "Failed to fetch moments")
		return
	}
	writeSuccess(w, http.StatusOK, "moments", moments)
}

func (s *Server) handleMomentsByDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	moments, err := s.moments.ListByDate(r.Context(), date)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpList, "Failed to fetch moments",
			applog.FieldDate, date)
		return
	}
	writeSuccess(w, http.StatusOK, "moments", moments)
}

func (s *Server) handleMomentsByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	moments, err := s.moments.ListByCategory(r.Context(), category)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpList, "Failed to fetch moments",
			applog.FieldCategory, category)
		return
	}
	writeSuccess(w, http.StatusOK, "moments", moments)
}

func (s *Server) handleGetMoment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID, "")
		return
	}

	m, found, err := s.moments.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpRead, "Failed to fetch moment",
			applog.FieldID, id)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, msgMomentNotFound, "")
		return
	}
	writeSuccess(w, http.StatusOK, "moment", m)
}

// handleUpdateMoment overwrites every field. An unknown id is not an error:
// the result reports zero changes.
func (s *Server) handleUpdateMoment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID, "")
		return
	}
	in, problem := parseMomentInput(r)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem, "")
		return
	}

	res, err := s.moments.Update(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpUpdate, "Failed to update moment",
			applog.FieldID, id)
		return
	}
	writeSuccess(w, http.StatusOK, "result", res)
}

func (s *Server) handleDeleteMoment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidID, "")
		return
	}

	res, err := s.moments.Delete(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMoments, applog.OpDelete, "Failed to delete moment",
			applog.FieldID, id)
		return
	}
	writeSuccess(w, http.StatusOK, "result", res)
}
