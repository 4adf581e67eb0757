package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type contextKey string

// UserEmailKey is the context key used to store the authenticated user's email.
const UserEmailKey contextKey = "user_email"

// ProviderTokenKey is the context key used to store the Gmail provider token
// forwarded by the client in the X-Provider-Token header.
const ProviderTokenKey contextKey = "provider_token"

const validateTimeout = 5 * time.Second

// Authenticator validates bearer tokens against the external auth service.
type Authenticator struct {
	authServiceURL string
	httpClient     *http.Client
}

func NewAuthenticator(authServiceURL string) *Authenticator {
	return &Authenticator{
		authServiceURL: authServiceURL,
		httpClient:     &http.Client{Timeout: validateTimeout},
	}
}

// RequireAuth middleware checks for a valid bearer token in the Authorization
// header. It validates the token, stores the user's email in the request
// context for downstream handlers, and forwards the X-Provider-Token header
// into the context when present. Returns 401 Unauthorized as a JSON envelope
// if authentication fails.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if authHeader == "" {
			log.Println("Auth: No Authorization header present")
			writeUnauthorized(w)
			return
		}

		// Parse Authorization header: "Bearer <token>" (RFC 7235)
		// Use strings.Fields to handle multiple spaces and trim whitespace
		// Bearer scheme is case-insensitive per RFC 7235
		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
			log.Println("Auth: Invalid Authorization header format")
			writeUnauthorized(w)
			return
		}

		token := strings.TrimSpace(strings.Join(fields[1:], " "))
		if token == "" {
			log.Println("Auth: Empty token after Bearer")
			writeUnauthorized(w)
			return
		}

		userEmail, err := a.ValidateToken(r.Context(), token)
		if err != nil {
			log.Printf("Auth: Token validation failed: %v", err)
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserEmailKey, userEmail)
		if providerToken := r.Header.Get("X-Provider-Token"); providerToken != "" {
			ctx = context.WithValue(ctx, ProviderTokenKey, providerToken)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ValidateToken validates the token and returns the user's email.
// In test mode (EMAILAI_TEST_MODE=true), a token of the form
// "email:user@example.com" short-circuits validation and yields that email.
// Otherwise the token is checked against the auth service's /user endpoint.
func (a *Authenticator) ValidateToken(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(token) == "email:" {
		return "", fmt.Errorf("token is empty")
	}

	if os.Getenv("EMAILAI_TEST_MODE") == "true" {
		if email, ok := strings.CutPrefix(token, "email:"); ok && email != "" {
			return email, nil
		}
	}

	if a.authServiceURL == "" {
		return "", fmt.Errorf("auth service URL is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.authServiceURL+"/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var user struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if user.Email == "" {
		return "", fmt.Errorf("auth service returned no email")
	}

	return user.Email, nil
}

// GetUserEmailFromContext returns the user email from the context.
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}

// GetProviderTokenFromContext returns the Gmail provider token from the context.
func GetProviderTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ProviderTokenKey).(string)
	return token, ok
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "Authentication required",
	})
}
