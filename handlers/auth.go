package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"jobflow/middleware"
	"jobflow/models"
	"jobflow/permissions"
	"jobflow/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	minPasswordLength = 5
)

type AuthHandler struct {
	users            *repository.UserRepository
	invites          *repository.InviteRepository
	auth             *middleware.Authenticator
	inviteExpiration time.Duration
	log              *slog.Logger
}

func NewAuthHandler(repos *repository.Repositories, auth *middleware.Authenticator, inviteExpiration time.Duration, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:            repos.Users,
		invites:          repos.Invites,
		auth:             auth,
		inviteExpiration: inviteExpiration,
		log:              log,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token              string       `json:"token"`
	User               *models.User `json:"user"`
	MustChangePassword bool         `json:"must_change_password"`
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.auth.GenerateToken(user)
	if err != nil {
		h.log.Error("failed to generate token", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	h.auth.SetTokenCookie(w, token)
	writeJSON(w, status, sessionResponse{Token: token, User: user, MustChangePassword: user.MustChangePassword})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.log.Error("login lookup failed", "error", err)
		}
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil || !user.Active {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.log.Info("user logged in", "user_id", user.ID)
	h.startSession(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user with the permissions of their role.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"permissions": permissions.For(user.Role),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Verify current password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 5 characters")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user.PasswordHash = string(hashedPassword)
	user.MustChangePassword = false
	if err := h.users.Save(r.Context(), user); err != nil {
		h.log.Error("failed to update password", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	// Regenerate token with updated user info
	h.startSession(w, http.StatusOK, user)
}

type registerRequest struct {
	Code            string `json:"code"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	invite, err := h.invites.FindByCode(r.Context(), req.Code)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invite code")
		return
	}
	if !invite.IsValid(time.Now()) {
		writeError(w, http.StatusBadRequest, "invite has expired or already been used")
		return
	}

	if len(req.Username) < minUsernameLength {
		writeError(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 5 characters")
		return
	}

	exists, err := h.users.UsernameExists(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	user := &models.User{
		Username:     req.Username,
		FullName:     invite.FullName,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         invite.Role,
		TeamID:       invite.TeamID,
		Active:       true,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		h.log.Error("failed to create user", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	// User set their own password during registration; the column default
	// is true, so it is cleared explicitly.
	user.MustChangePassword = false
	if err := h.users.Save(r.Context(), user); err != nil {
		h.log.Warn("failed to clear password change flag", "user_id", user.ID, "error", err)
	}

	if err := h.invites.MarkUsed(r.Context(), invite); err != nil {
		h.log.Warn("failed to mark invite used", "invite_id", invite.ID, "error", err)
	}

	h.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	h.startSession(w, http.StatusCreated, user)
}

type inviteRequest struct {
	FullName string           `json:"full_name"`
	Role     permissions.Role `json:"role"`
	TeamID   *uint            `json:"team_id"`
}

func (h *AuthHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !permissions.Valid(req.Role) {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if req.FullName == "" {
		writeError(w, http.StatusBadRequest, "full name is required")
		return
	}
	if req.TeamID != nil {
		if _, err := h.users.FindTeam(r.Context(), *req.TeamID); err != nil {
			writeError(w, http.StatusBadRequest, "unknown team")
			return
		}
	}

	code, err := models.GenerateInviteCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate invite code")
		return
	}

	invite := &models.Invite{
		Code:      code,
		FullName:  req.FullName,
		Role:      req.Role,
		TeamID:    req.TeamID,
		CreatedBy: user.ID,
		ExpiresAt: time.Now().Add(h.inviteExpiration),
	}
	if err := h.invites.Create(r.Context(), invite); err != nil {
		h.log.Error("failed to create invite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

func (h *AuthHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	invites, err := h.invites.ListByCreator(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invites)
}
