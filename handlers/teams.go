package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"jobflow/models"
	"jobflow/permissions"
	"jobflow/repository"
)

// TeamHandler manages teams and their manager assignments.
type TeamHandler struct {
	users *repository.UserRepository
	log   *slog.Logger
}

func NewTeamHandler(repos *repository.Repositories, log *slog.Logger) *TeamHandler {
	return &TeamHandler{users: repos.Users, log: log}
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.users.ListTeams(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	assignments, err := h.users.TeamManagers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"teams":    teams,
		"managers": assignments,
	})
}

type createTeamRequest struct {
	Name string `json:"name"`
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "team name is required")
		return
	}
	team := &models.Team{Name: req.Name}
	if err := h.users.CreateTeam(r.Context(), team); err != nil {
		h.log.Error("failed to create team", "name", req.Name, "error", err)
		writeError(w, http.StatusConflict, "failed to create team")
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

type assignManagerRequest struct {
	UserID uint `json:"user_id"`
}

// AssignManager makes a manager-role user manager of the team in the URL.
func (h *TeamHandler) AssignManager(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req assignManagerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.users.FindTeam(r.Context(), teamID); err != nil {
		writeServiceError(w, err)
		return
	}
	manager, err := h.users.FindByID(r.Context(), req.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !manager.Can(permissions.ApproveTime) {
		writeError(w, http.StatusBadRequest, "user cannot manage a team")
		return
	}

	if err := h.users.AssignManager(r.Context(), manager.ID, teamID); err != nil {
		writeServiceError(w, err)
		return
	}
	h.log.Info("manager assigned", "user_id", manager.ID, "team_id", teamID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) RemoveManager(w http.ResponseWriter, r *http.Request) {
	teamID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req assignManagerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.users.RemoveManager(r.Context(), req.UserID, teamID); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.log.Error("failed to remove manager", "team_id", teamID, "error", err)
		}
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
