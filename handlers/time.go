package handlers

import (
	"net/http"
	"strconv"
	"time"

	"jobflow/middleware"
	"jobflow/models"
	"jobflow/service"
	"jobflow/timetracking"
)

type TimeHandler struct {
	svc *service.TimeService
}

func NewTimeHandler(svc *service.TimeService) *TimeHandler {
	return &TimeHandler{svc: svc}
}

type clockInRequest struct {
	Description string `json:"description"`
}

func (h *TimeHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	var req clockInRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	res, err := h.svc.ClockIn(r.Context(), user, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type clockOutRequest struct {
	BreakMinutes int `json:"break_minutes"`
}

func (h *TimeHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	var req clockOutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil || req.BreakMinutes < 0 {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	res, err := h.svc.ClockOut(r.Context(), user, req.BreakMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TimeHandler) Entries(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	period, err := parsePeriod(r, h.svc.Now().Location(), h.svc.CurrentWeek())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.svc.Entries(r.Context(), user, period)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type validateBreakRequest struct {
	ClockIn      time.Time `json:"clock_in"`
	ClockOut     time.Time `json:"clock_out"`
	BreakMinutes int       `json:"break_minutes"`
}

// ValidateBreak checks a planned shift against the break rules without
// storing anything.
func (h *TimeHandler) ValidateBreak(w http.ResponseWriter, r *http.Request) {
	var req validateBreakRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.ClockOut.After(req.ClockIn) {
		writeError(w, http.StatusBadRequest, "clock_out must be after clock_in")
		return
	}

	entry := &models.TimeEntry{
		ClockIn:           req.ClockIn,
		ClockOut:          &req.ClockOut,
		TotalBreakMinutes: req.BreakMinutes,
		WorkType:          models.WorkRegular,
	}
	calc := h.svc.Calculator()
	writeJSON(w, http.StatusOK, map[string]any{
		"break":    calc.ValidateBreakRules(entry),
		"hours":    calc.CalculateDetailedWorkedHours(entry),
		"warnings": calc.ValidateShiftLimits(entry, nil),
	})
}

type balanceResponse struct {
	timetracking.TimeBalance
	AvailableCompensation float64 `json:"available_compensation"`
	Formatted             string  `json:"formatted_actual"`
}

func (h *TimeHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	period, err := parsePeriod(r, h.svc.Now().Location(), h.svc.CurrentWeek())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.svc.Balance(r.Context(), user, period)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	available, err := h.svc.AvailableCompensation(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		TimeBalance:           b,
		AvailableCompensation: available,
		Formatted:             timetracking.FormatDuration(b.ActualHours),
	})
}

// CheckCompensation checks ?hours against the balance cap. HR can pass
// ?user_id to check another employee.
func (h *TimeHandler) CheckCompensation(w http.ResponseWriter, r *http.Request) {
	hours, err := strconv.ParseFloat(r.URL.Query().Get("hours"), 64)
	if err != nil || hours < 0 {
		writeError(w, http.StatusBadRequest, "invalid hours")
		return
	}
	var userID uint64
	if v := r.URL.Query().Get("user_id"); v != "" {
		if userID, err = strconv.ParseUint(v, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
	}
	user, err := h.svc.CompensationSubject(r.Context(), middleware.GetUserFromContext(r.Context()), uint(userID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	check, err := h.svc.CheckCompensation(r.Context(), user, hours)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

type bulkCompensationRequest struct {
	Dates       []string                      `json:"dates"`
	HoursPerDay float64                       `json:"hours_per_day"`
	Type        timetracking.CompensationType `json:"type"`
	Reason      string                        `json:"reason"`
	TotalHours  float64                       `json:"total_hours"`
	// UserID books on behalf of another employee.
	UserID      uint                          `json:"user_id"`
}

// BulkCompensation requests time off against the compensation balance. A
// request the balance cannot cover is answered with 422 and the result.
func (h *TimeHandler) BulkCompensation(w http.ResponseWriter, r *http.Request) {
	var req bulkCompensationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.svc.CompensationSubject(r.Context(), middleware.GetUserFromContext(r.Context()), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	loc := h.svc.Now().Location()
	action := timetracking.BulkCompensationAction{
		HoursPerDay: req.HoursPerDay,
		Type:        req.Type,
		Reason:      req.Reason,
		TotalHours:  req.TotalHours,
	}
	for _, d := range req.Dates {
		date, err := time.ParseInLocation(dateLayout, d, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date "+d)
			return
		}
		action.Dates = append(action.Dates, date)
	}

	res, err := h.svc.RequestBulkCompensation(r.Context(), user, action)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (h *TimeHandler) Approvals(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	entries, err := h.svc.PendingApprovals(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *TimeHandler) Approve(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entry, err := h.svc.ApproveEntry(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *TimeHandler) Reject(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.RejectEntry(r.Context(), user, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
