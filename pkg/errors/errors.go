package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound          = errors.New("resource not found")
	ErrBadRequest        = errors.New("bad request")
	ErrConflict          = errors.New("resource conflict")
	ErrInternal          = errors.New("internal server error")
	ErrValidation        = errors.New("validation error")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNegativeResult    = errors.New("stock would become negative")
	ErrNoSufficientLot   = errors.New("no lot with sufficient stock")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidFormat     = errors.New("invalid format")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Stock movement error constructors

func InvalidQuantity(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidQuantity,
		Code:       "INVALID_QUANTITY",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func InsufficientStock(lotID string) *AppError {
	return &AppError{
		Err:        ErrInsufficientStock,
		Code:       "INSUFFICIENT_STOCK",
		Message:    "insufficient stock in lot",
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{"lot_id": lotID},
	}
}

func NegativeResult(lotID string) *AppError {
	return &AppError{
		Err:        ErrNegativeResult,
		Code:       "NEGATIVE_RESULT",
		Message:    "adjustment would leave negative stock",
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{"lot_id": lotID},
	}
}

func NoSufficientLot(productID string) *AppError {
	return &AppError{
		Err:        ErrNoSufficientLot,
		Code:       "NO_SUFFICIENT_LOT",
		Message:    "no lot with sufficient stock",
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{"product_id": productID},
	}
}

func InvalidDate(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidDate,
		Code:       "INVALID_DATE",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// GTIN validation error constructors

func InvalidFormat(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidFormat,
		Code:       "INVALID_FORMAT",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func ChecksumMismatch(message string) *AppError {
	return &AppError{
		Err:        ErrChecksumMismatch,
		Code:       "CHECKSUM_MISMATCH",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
