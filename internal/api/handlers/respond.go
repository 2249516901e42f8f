package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/infrastructure/observability"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// respondWithAppError maps domain error types onto HTTP status codes
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		log.Error().Err(err).Msg("unclassified error reached the handler")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeSchedulingConflict:
		observability.RecordSchedulingConflict(r.Context())
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeInvalidTransition:
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeInsufficientStock:
		observability.RecordStockInsufficient(r.Context())
		respondWithError(w, http.StatusConflict, appErr.Message)
	case apperrors.ErrorTypeBusy:
		respondWithError(w, http.StatusServiceUnavailable, appErr.Message)
	case apperrors.ErrorTypeExternal:
		respondWithError(w, http.StatusBadGateway, appErr.Message)
	default:
		log.Error().Err(appErr).Msg("internal error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
