package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{name: "validation", err: model.Validationf("postal code must have 8 digits"), expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeValidationFailed, expectedMessage: "postal code must have 8 digits"},
		{name: "wrapped not found", err: fmt.Errorf("lookup: %w", model.ErrOrderNotFound), expectedStatus: http.StatusNotFound, expectedCode: model.ErrCodeOrderNotFound, expectedMessage: "order not found"},
		{name: "coupon rule", err: model.ErrCouponExhausted, expectedStatus: http.StatusBadRequest, expectedCode: model.ErrCodeCouponExhausted, expectedMessage: "coupon usage limit reached"},
		{name: "unauthorised", err: model.ErrUnauthorised, expectedStatus: http.StatusUnauthorized, expectedCode: model.ErrCodeUnauthorised, expectedMessage: "authentication required"},
		{name: "upstream", err: model.ErrUpstreamFailed, expectedStatus: http.StatusInternalServerError, expectedCode: model.ErrCodeUpstreamFailed, expectedMessage: "payment provider unavailable"},
		{name: "infrastructure error is hidden", err: errors.New("pq: password authentication failed"), expectedStatus: http.StatusInternalServerError, expectedCode: model.ErrCodeInternalError, expectedMessage: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			writeError(w, tt.err, zerolog.Nop())

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeError(t, w)
			assert.Equal(t, tt.expectedCode, body.Error)
			assert.Equal(t, tt.expectedMessage, body.Message)
		})
	}
}
