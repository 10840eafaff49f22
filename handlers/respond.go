package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"jobflow/repository"
	"jobflow/service"
	"jobflow/timetracking"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service and repository errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrAlreadyClockedIn),
		errors.Is(err, service.ErrNotClockedIn),
		errors.Is(err, service.ErrNotPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parsePeriod reads ?start=&end= (YYYY-MM-DD, end inclusive) in loc. A
// missing range falls back to def.
func parsePeriod(r *http.Request, loc *time.Location, def timetracking.Period) (timetracking.Period, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" && endStr == "" {
		return def, nil
	}

	start, err := time.ParseInLocation(dateLayout, startStr, loc)
	if err != nil {
		return timetracking.Period{}, errors.New("invalid start date")
	}
	end, err := time.ParseInLocation(dateLayout, endStr, loc)
	if err != nil {
		return timetracking.Period{}, errors.New("invalid end date")
	}
	return timetracking.Period{Start: start, End: end.AddDate(0, 0, 1).Add(-time.Second)}, nil
}

func idParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
