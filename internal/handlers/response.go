package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/AnshRaj112/recuerdos-backend/internal/common"
	"github.com/AnshRaj112/recuerdos-backend/pkg/utils"
)

// Error kinds sent in the "error" field.
const (
	ErrorKindValidation  = "validation_error"
	ErrorKindNotFound    = "not_found"
	ErrorKindUnavailable = "store_unavailable"
	ErrorKindTimeout     = "timeout"
	ErrorKindUnknown     = "unknown"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

func writeValidation(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   ErrorKindValidation,
		Message: message,
		Field:   field,
	})
}

// writeError maps service errors to a status and a message that is safe to
// show. Anything unexpected is logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidation(w, ve.Field, ve.Message)
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   ErrorKindNotFound,
			Message: "Recuerdo no encontrado",
		})
	case errors.Is(err, common.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		log.Printf("⏱️  %s %s timed out (request_id=%s): %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{
			Error:   ErrorKindTimeout,
			Message: "La operación tardó demasiado. Intenta nuevamente",
		})
	case errors.Is(err, common.ErrStoreUnavailable):
		log.Printf("⚠️  %s %s store unavailable (request_id=%s): %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   ErrorKindUnavailable,
			Message: "El almacenamiento no está disponible. Intenta más tarde",
		})
	default:
		log.Printf("❌ %s %s failed (request_id=%s): %v", r.Method, r.URL.Path, middleware.GetReqID(r.Context()), err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   ErrorKindUnknown,
			Message: "Ocurrió un error inesperado",
		})
	}
}
