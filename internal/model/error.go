package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeVariantNotFound    = "VARIANT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeCouponNotFound     = "COUPON_NOT_FOUND"
	ErrCodeCouponInactive     = "COUPON_INACTIVE"
	ErrCodeCouponExpired      = "COUPON_EXPIRED"
	ErrCodeCouponExhausted    = "COUPON_EXHAUSTED"
	ErrCodeCouponBelowMinimum = "COUPON_BELOW_MINIMUM"
	ErrCodeInvalidSignature   = "INVALID_SIGNATURE"
	ErrCodeUpstreamFailed     = "UPSTREAM_FAILED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError is a business rule failure carrying a stable API code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that wrapped or re-messaged
// instances compare equal to the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Validationf returns a VALIDATION_FAILED error with a formatted message.
func Validationf(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeValidationFailed, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrValidationFailed = NewDomainError(ErrCodeValidationFailed, "request validation failed")
	ErrUnauthorised     = NewDomainError(ErrCodeUnauthorised, "authentication required")
	ErrVariantNotFound  = NewDomainError(ErrCodeVariantNotFound, "one or more products were not found")
	ErrOrderNotFound    = NewDomainError(ErrCodeOrderNotFound, "order not found")
	ErrCouponNotFound   = NewDomainError(ErrCodeCouponNotFound, "coupon not found")
	ErrCouponInactive   = NewDomainError(ErrCodeCouponInactive, "this coupon is inactive")
	ErrCouponExpired    = NewDomainError(ErrCodeCouponExpired, "coupon expired")
	ErrCouponExhausted  = NewDomainError(ErrCodeCouponExhausted, "coupon usage limit reached")
	ErrCouponBelowMin   = NewDomainError(ErrCodeCouponBelowMinimum, "subtotal below the coupon minimum")
	ErrInvalidSignature = NewDomainError(ErrCodeInvalidSignature, "invalid webhook signature")
	ErrUpstreamFailed   = NewDomainError(ErrCodeUpstreamFailed, "payment provider unavailable")
	ErrInternal         = NewDomainError(ErrCodeInternalError, "internal server error")
)

// AsDomainError extracts a *DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
