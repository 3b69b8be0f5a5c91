package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"studycards/internal/security"
	"studycards/internal/service"
)

type credentialsRequest struct {
	Identity   string `json:"identity"`
	Credential string `json:"credential"`
}

type loginResponse struct {
	Identity  string    `json:"identity"`
	CSRFToken string    `json:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	authService  *service.AuthService
	studyService *service.StudyService
	csrf         *security.CSRFGenerator
	logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, studyService *service.StudyService, csrf *security.CSRFGenerator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		studyService: studyService,
		csrf:         csrf,
		logger:       logger,
	}
}

// Register creates an account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidRequestBody})
		return
	}

	user, err := h.authService.Register(req.Identity, req.Credential)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"identity": user.Identity})
}

// Login authenticates and sets the session cookie. The response carries the
// CSRF token that mutating study requests must echo.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidRequestBody})
		return
	}

	session, user, err := h.authService.Login(req.Identity, req.Credential)
	if err != nil {
		respondWithDomainError(w, h.logger, err)
		return
	}

	token, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to generate csrf token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))
	writeJSON(w, http.StatusOK, loginResponse{
		Identity:  user.Identity,
		CSRFToken: token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout ends the login session and drops its study session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := security.SessionIDFromRequest(r); sessionID != "" {
		h.studyService.End(sessionID)
		if err := h.authService.Logout(sessionID); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}

// AdminLogin exchanges the supervisor credential for a bearer token
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidRequestBody})
		return
	}

	token, err := h.authService.AuthenticateAdmin(req.Identity, req.Credential)
	if err != nil {
		h.logger.Warn("admin login denied", zap.String("client", security.GetClientIP(r)))
		respondWithDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
