package dto

import (
	"errors"
	"net/http"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/domain/sales"
	"github.com/crosslist/backend/internal/domain/shared"
)

// Error code constants, format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used for request validation failures
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeInvalidState is used when an operation is invalid for the
	// resource's current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Synchronization error codes
const (
	// ErrCodeSyncInFlight is used when another reconciliation holds the
	// product's lock
	ErrCodeSyncInFlight = "ERR_SYNC_IN_FLIGHT"
	// ErrCodePlatformUnknown is used when the platform code is not registered
	ErrCodePlatformUnknown = "ERR_PLATFORM_UNKNOWN"
	// ErrCodePlatformAuth is used when platform authentication failed
	ErrCodePlatformAuth = "ERR_PLATFORM_AUTH"
	// ErrCodePlatformUnavailable is used when the platform cannot be reached
	ErrCodePlatformUnavailable = "ERR_PLATFORM_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,
	ErrCodeInvalidState:  http.StatusUnprocessableEntity,

	ErrCodeSyncInFlight:        http.StatusConflict,
	ErrCodePlatformUnknown:     http.StatusBadRequest,
	ErrCodePlatformAuth:        http.StatusBadGateway,
	ErrCodePlatformUnavailable: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping maps domain error codes to API error codes
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeBadRequest,
	"INVALID_TITLE":        ErrCodeValidation,
	"INVALID_PRICE":        ErrCodeValidation,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConflict,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}

// MapError resolves any application error to an (API code, message)
// pair. Sentinel errors from the domain map to specific codes; anything
// unrecognized becomes an internal error with a generic message so
// storage details never leak to clients.
func MapError(err error) (code, message string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return NormalizeErrorCode(domainErr.Code), domainErr.Message
	}

	switch {
	case errors.Is(err, integration.ErrLedgerEntryNotFound),
		errors.Is(err, sales.ErrSaleNotFound):
		return ErrCodeNotFound, err.Error()
	case errors.Is(err, integration.ErrAlreadyListed):
		return ErrCodeAlreadyExists, err.Error()
	case errors.Is(err, integration.ErrSyncInProgress):
		return ErrCodeSyncInFlight, err.Error()
	case errors.Is(err, integration.ErrPlatformNotRegistered),
		errors.Is(err, integration.ErrInvalidPlatformCode):
		return ErrCodePlatformUnknown, err.Error()
	case errors.Is(err, integration.ErrAuthenticationFailed):
		return ErrCodePlatformAuth, err.Error()
	case errors.Is(err, integration.ErrPlatformUnavailable),
		errors.Is(err, integration.ErrAdapterTimeout):
		return ErrCodePlatformUnavailable, err.Error()
	default:
		return ErrCodeInternal, "An unexpected error occurred"
	}
}
