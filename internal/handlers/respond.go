package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"legal-rag/internal/models"
	"legal-rag/internal/repositories"
)

type contextKey string

const ownerKey contextKey = "owner_id"

// OwnerMiddleware extracts the authenticated caller identity from the
// X-User-ID header. Authentication itself happens upstream; the core
// trusts the identity but still filters ownership on every read and
// write.
func OwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Header.Get("X-User-ID")
		if ownerID == "" {
			sendError(w, http.StatusUnauthorized, models.CodeProcessingError, "missing X-User-ID header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, ownerID)))
	})
}

// ownerID returns the caller identity set by OwnerMiddleware.
func ownerID(r *http.Request) string {
	id, _ := r.Context().Value(ownerKey).(string)
	return id
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, code models.ErrorCode, message string) {
	sendJSON(w, status, models.ErrorResponse{Error: message, Code: code})
}

// sendAppError maps a service error onto the wire: coded errors keep
// their code and a matching status; anything else becomes a generic,
// non-leaking internal error.
func sendAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		sendError(w, statusForCode(appErr.Code), appErr.Code, appErr.Message)
		return
	}

	var valErr *models.ValidationError
	if errors.As(err, &valErr) {
		sendError(w, http.StatusBadRequest, models.CodeProcessingError, valErr.Error())
		return
	}

	if repositories.IsNotFound(err) {
		sendError(w, http.StatusNotFound, models.CodeDocNotFound, "document not found")
		return
	}

	logger.Error("unhandled error", zap.Error(err))
	sendError(w, http.StatusInternalServerError, models.CodeProcessingError, "internal error")
}

func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.CodeDocNotFound:
		return http.StatusNotFound
	case models.CodeInvalidURL, models.CodeDomainNotAllowed,
		models.CodeQueryMissing, models.CodeQueryTooShort, models.CodeQueryTooLong,
		models.CodeClassificationMissing:
		return http.StatusBadRequest
	case models.CodeExtractionFailed:
		return http.StatusUnprocessableEntity
	case models.CodeRateLimit, models.CodeQuotaExceeded:
		return http.StatusTooManyRequests
	case models.CodeResponseError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
