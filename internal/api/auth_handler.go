package api

import (
	"net/http"

	"github.com/emailai/backend/internal/auth"
)

// AuthHandler reports the caller's authentication state.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Status reports the authenticated email and whether a Gmail provider token
// was forwarded with the request. The route sits behind RequireAuth, so an
// unauthenticated caller never reaches it.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.GetUserEmailFromContext(r.Context())
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	_, hasProviderToken := auth.GetProviderTokenFromContext(r.Context())

	WriteJSONResponse(w, http.StatusOK, map[string]any{
		"authenticated":    true,
		"email":            email,
		"hasProviderToken": hasProviderToken,
	})
}
