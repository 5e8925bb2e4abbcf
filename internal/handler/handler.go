package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies; checkout payloads are small.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError maps err onto a status code and the {"error","message"} body.
// Errors outside the domain taxonomy are reported as a generic internal error.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Int("status", http.StatusInternalServerError).Msg("handler error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrInternal.Code,
			Message: model.ErrInternal.Message,
		})
		return
	}

	status := statusFor(de.Code)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", de.Code).Int("status", status).Msg(de.Message)

	writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message})
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON,
		model.ErrCodeValidationFailed,
		model.ErrCodeCouponInactive,
		model.ErrCodeCouponExpired,
		model.ErrCodeCouponExhausted,
		model.ErrCodeCouponBelowMinimum:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised, model.ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	case model.ErrCodeVariantNotFound, model.ErrCodeOrderNotFound, model.ErrCodeCouponNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "request body could not be read")
	}
	return unmarshalBody(body, dst)
}

func unmarshalBody(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid value for field "+typeErr.Field)
		}
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}
