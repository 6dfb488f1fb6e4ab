package auth

import (
	"net/http"
	"strings"

	"pr-radar/internal/core"
)

const tokenCookie = "auth_token"

// Middleware provides authentication middleware
type Middleware struct {
	service *Service
	logger  *core.Logger
}

// NewMiddleware creates new authentication middleware
func NewMiddleware(service *Service, logger *core.Logger) *Middleware {
	return &Middleware{
		service: service,
		logger:  logger,
	}
}

// RequireAdmin rejects requests without a valid admin token. The token is read
// from a Bearer Authorization header or the auth cookie.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.service.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Authorization")

		token, ok := tokenFromRequest(r)
		if !ok {
			m.authenticationRequiredResponse(w)
			return
		}

		if err := m.service.ValidateToken(token); err != nil {
			m.invalidAuthenticationTokenResponse(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		headerParts := strings.Split(header, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			return "", false
		}
		return headerParts[1], true
	}

	if cookie, err := r.Cookie(tokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// Response helpers
func (m *Middleware) invalidAuthenticationTokenResponse(w http.ResponseWriter) {
	core.WriteErrorResponse(w, http.StatusUnauthorized, core.NewUnauthorizedError(
		"Invalid authentication token", nil))
}

func (m *Middleware) authenticationRequiredResponse(w http.ResponseWriter) {
	core.WriteErrorResponse(w, http.StatusUnauthorized, core.NewUnauthorizedError(
		"Authentication required", nil))
}
