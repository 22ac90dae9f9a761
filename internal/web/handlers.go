package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"planner/internal/ics"
	appLog "planner/internal/log"
	"planner/internal/model"
	"planner/internal/schedule"
	"planner/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			appLog.Error("health check failed", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// weekResponse is the JSON shape of GET /api/week.
type weekResponse struct {
	schedule.Week
	Partial    bool   `json:"partial"`
	FetchError string `json:"fetch_error,omitempty"`
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	win, err := s.weekParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}

	week := s.engine.Aggregate(r.Context(), win)
	resp := weekResponse{Week: week, Partial: week.Partial()}
	if week.FetchErrors != nil {
		resp.FetchError = week.FetchErrors.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWeekICS(w http.ResponseWriter, r *http.Request) {
	win, err := s.weekParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}

	week := s.engine.Aggregate(r.Context(), win)
	body := ics.Serialize([]schedule.Week{week}, ics.Options{Name: "Planner", Location: s.loc, Now: s.now()})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="planner-%s.ics"`, win.Monday))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	win, err := s.weekParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.WeeklyStats(r.Context(), win))
}

// slotRequest is the common date + clock range body.
type slotRequest struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (req slotRequest) parse() (model.Date, model.TimeRange, error) {
	d, err := model.ParseDate(req.Date)
	if err != nil {
		return model.Date{}, model.TimeRange{}, fmt.Errorf("invalid date %q", req.Date)
	}
	start, ok := schedule.ParseClock(req.Start)
	if !ok {
		return model.Date{}, model.TimeRange{}, fmt.Errorf("invalid start %q", req.Start)
	}
	end, ok := schedule.ParseClock(req.End)
	if !ok {
		return model.Date{}, model.TimeRange{}, fmt.Errorf("invalid end %q", req.End)
	}
	rng := model.TimeRange{Start: start, End: end}
	if !rng.Valid() {
		return model.Date{}, model.TimeRange{}, fmt.Errorf("end %s is not after start %s", req.End, req.Start)
	}
	return d, rng, nil
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	date, rng, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.engine.DetectConflicts(r.Context(), date, rng)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if c.Hard == nil {
		c.Hard = []model.CalendarEvent{}
	}
	if c.Soft == nil {
		c.Soft = []model.CalendarEvent{}
	}
	resp := conflictsResponse{Conflicts: c, Partial: c.Partial()}
	if c.FetchErrors != nil {
		resp.FetchError = c.FetchErrors.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// conflictsResponse is the JSON shape of POST /api/conflicts.
type conflictsResponse struct {
	schedule.Conflicts
	Partial    bool   `json:"partial"`
	FetchError string `json:"fetch_error,omitempty"`
}

type unavailabilityRequest struct {
	slotRequest
	Title       string `json:"title"`
	Description string `json:"description"`
	Acknowledge bool   `json:"acknowledge"`
}

type unavailabilityResponse struct {
	schedule.RescheduleResult
	Partial bool     `json:"partial"`
	Errors  []string `json:"errors,omitempty"`
}

type hardConflictResponse struct {
	Error     string                `json:"error"`
	Hard      []model.CalendarEvent `json:"hard"`
	Unchecked []model.SourceType    `json:"unchecked,omitempty"`
}

func (s *Server) handleUnavailability(w http.ResponseWriter, r *http.Request) {
	var req unavailabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	date, rng, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.engine.CreateUnavailability(r.Context(), schedule.UnavailabilityRequest{
		Date:            date,
		Range:           rng,
		Title:           req.Title,
		Description:     req.Description,
		AcknowledgeHard: req.Acknowledge,
	})

	var hard *schedule.HardConflictError
	var partial *schedule.PartialRescheduleError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, unavailabilityResponse{RescheduleResult: res})
	case errors.As(err, &hard):
		writeJSON(w, http.StatusConflict, hardConflictResponse{
			Error:     err.Error(),
			Hard:      hard.Conflicts,
			Unchecked: hard.Unchecked,
		})
	case errors.As(err, &partial):
		resp := unavailabilityResponse{RescheduleResult: res, Partial: true}
		for _, e := range partial.Errs {
			resp.Errors = append(resp.Errors, e.Error())
		}
		writeJSON(w, http.StatusOK, resp)
	default:
		appLog.Error("api unavailability failed", err, "date", date.String())
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) handleRelocate(w http.ResponseWriter, r *http.Request) {
	var cmd model.RelocationCommand
	if err := decodeJSON(w, r, &cmd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	err := s.engine.Relocate(r.Context(), cmd)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, schedule.ErrNotDraggable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, schedule.ErrPersistence):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		// NoOp and malformed commands.
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := s.engine.DeleteBlock(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("api delete block failed", err, "id", id)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
