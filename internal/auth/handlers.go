package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pr-radar/internal/core"
)

// Handler provides authentication HTTP handlers
type Handler struct {
	service *Service
	logger  *core.Logger
}

// NewHandler creates a new authentication handler
func NewHandler(service *Service, logger *core.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginHandler exchanges the admin password for a session token
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.HandleError(w, core.NewValidationError("Invalid request body", err))
		return
	}

	if req.Password == "" {
		core.HandleError(w, core.NewValidationError("Password is required", nil))
		return
	}

	token, err := h.service.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			core.HandleError(w, core.NewUnauthorizedError("Invalid credentials", err))
		case errors.Is(err, ErrAuthDisabled):
			core.HandleError(w, core.NewValidationError("Admin login is not enabled", err))
		default:
			h.logger.Error("Authentication error", "error", err)
			core.HandleError(w, core.NewInternalError("Authentication failed", err))
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token.Plaintext,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		Expires:  token.Expiry,
	})

	core.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    token,
	})
}

// LogoutHandler revokes the caller's session token
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if token, ok := tokenFromRequest(r); ok {
		h.service.Logout(token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})

	core.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

// StatusHandler reports whether admin auth is on and the caller holds a valid token
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	authenticated := !h.service.Enabled()
	if token, ok := tokenFromRequest(r); ok && h.service.ValidateToken(token) == nil {
		authenticated = true
	}

	core.WriteJSON(w, http.StatusOK, map[string]any{
		"enabled":       h.service.Enabled(),
		"authenticated": authenticated,
	})
}
