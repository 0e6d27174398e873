package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"satsjar/internal/idgen"
	"satsjar/internal/service"
	"satsjar/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("failed to encode response: %v", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondServiceError maps service errors to HTTP status codes. Anything
// unrecognized is treated as an internal error and its detail is only logged.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr validation.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, err.Error(), "", nil)
	case errors.Is(err, service.ErrDuplicateChildName),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrPINNotSet),
		errors.Is(err, idgen.ErrJarIDExhausted):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, service.ErrChildNotFound),
		errors.Is(err, service.ErrNotChildParent),
		errors.Is(err, service.ErrGoalNotFound),
		errors.Is(err, service.ErrNotGoalOwner),
		errors.Is(err, service.ErrLessonNotFound):
		respondWithError(w, http.StatusNotFound, "not found", "", nil)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrChildLoginFailed),
		errors.Is(err, service.ErrPINMismatch),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired):
		respondWithError(w, http.StatusUnauthorized, err.Error(), "", nil)
	default:
		respondWithError(w, http.StatusInternalServerError, "internal server error", "request failed", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return false
	}
	return true
}
