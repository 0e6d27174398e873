package handlers

import (
	"log"
	"net/http"

	"satsjar/internal/models"
	"satsjar/internal/service"
)

// AuthHandler handles parent authentication endpoints
type AuthHandler struct {
	authService          *service.AuthService
	emailService         *service.EmailService
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	appBaseURL           string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, appBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		emailService:         emailService,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		appBaseURL:           appBaseURL,
	}
}

type parentResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	HasSavingsPIN bool   `json:"has_savings_pin"`
}

func toParentResponse(p *models.Parent) parentResponse {
	return parentResponse{
		ID:            p.ID,
		Email:         p.Email,
		Name:          p.Name,
		HasSavingsPIN: p.HasSavingsPIN(),
	}
}

type authResponse struct {
	Token  string         `json:"token"`
	Parent parentResponse `json:"parent"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	parent, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Welcome email failures are logged but never block registration
	if h.emailService != nil && h.emailService.IsEnabled() {
		if err := h.emailService.SendWelcomeEmail(r.Context(), parent.Email, parent.Name); err != nil {
			log.Printf("failed to send welcome email to %s: %v", parent.Email, err)
		}
	}

	token, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, Parent: toParentResponse(parent)})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	token, parent, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, Parent: toParentResponse(parent)})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	if parent == nil {
		respondWithError(w, http.StatusUnauthorized, "not authenticated", "", nil)
		return
	}
	respondJSON(w, http.StatusOK, toParentResponse(parent))
}

// SetSavingsPIN handles POST /api/auth/savings-pin
func (h *AuthHandler) SetSavingsPIN(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req struct {
		PIN        string `json:"pin"`
		CurrentPIN string `json:"current_pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	// Changing an existing PIN requires the current one
	if parent.HasSavingsPIN() {
		if err := h.authService.VerifySavingsPIN(parent.ID, req.CurrentPIN); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	if err := h.authService.SetSavingsPIN(parent.ID, req.PIN); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// VerifySavingsPIN handles POST /api/auth/savings-pin/verify
func (h *AuthHandler) VerifySavingsPIN(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req struct {
		PIN string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.VerifySavingsPIN(parent.ID, req.PIN); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// DeleteAccount handles DELETE /api/auth/account. Deleting the account also
// removes every child jar under it.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.DeleteAccount(parent.ID, req.Password); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ChangePassword handles POST /api/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(parent.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
