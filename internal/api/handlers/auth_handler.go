package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alvifsandana/qms-be/internal/auth"
	"github.com/alvifsandana/qms-be/internal/services"
)

// AuthHandler handles login, logout and session retrieval.
type AuthHandler struct {
	userSvc    services.UserServiceProvider
	sessionSvc services.SessionServiceProvider
	eventSvc   services.EventServiceProvider
	appEnv     string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userSvc services.UserServiceProvider, sessionSvc services.SessionServiceProvider, eventSvc services.EventServiceProvider, appEnv string) *AuthHandler {
	return &AuthHandler{
		userSvc:    userSvc,
		sessionSvc: sessionSvc,
		eventSvc:   eventSvc,
		appEnv:     appEnv,
	}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials, issues a session row plus its JWT mirror,
// and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Username == "" || payload.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userSvc.Authenticate(payload.Username, payload.Password, r.RemoteAddr)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			log.Error().Err(err).Msg("Authentication lookup failed")
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		log.Warn().Str("username", payload.Username).Str("remote_addr", r.RemoteAddr).Msg("Failed authentication attempt")
		h.eventSvc.Record("auth.login.fail", "warn", "Failed login for "+payload.Username, nil)
		// Same message for every mismatch.
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	ip := services.NormalizeAddr(r.RemoteAddr)
	ua := r.UserAgent()
	session, err := h.sessionSvc.Create(user.ID, &ip, &ua)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to create session")
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	token, err := auth.GenerateJWT(user, session.Token, session.ExpiresAt)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    token,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.appEnv == "production",
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	h.eventSvc.Record("auth.login", "info", user.Username+" logged in", &user.ID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    user,
	})
}

// Logout deletes the session row, clears the cookie and sends the
// browser back to the site root.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.TokenCookie); err == nil {
		if claims, err := auth.ValidateJWT(cookie.Value); err == nil {
			if err := h.sessionSvc.Delete(claims.SessionToken); err != nil {
				log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to delete session on logout")
			}
			h.eventSvc.Record("auth.logout", "info", claims.Username+" logged out", &claims.UserID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
	http.SetCookie(w, &http.Cookie{
		Name:   auth.LastVisitedCookie,
		Value:  "",
		MaxAge: -1,
		Path:   "/",
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Me retrieves the currently authenticated user from the session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		respondError(w, http.StatusInternalServerError, "Could not retrieve user from session")
		return
	}

	user, err := h.userSvc.GetUserByID(claims.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("User from session not found in DB")
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
