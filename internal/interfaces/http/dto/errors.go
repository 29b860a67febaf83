package dto

import "net/http"

// API error codes. Domain errors are normalized onto these before they
// leave the service, so clients only ever see this closed set.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"

	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeBusinessRule      = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
)

// GetHTTPStatus picks the response status for an API error code. Codes not
// in the table answer as 500 so unmapped failures never masquerade as
// client errors.
func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnauthorized, ErrCodeTokenExpired, ErrCodeTokenInvalid:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeInvalidState, ErrCodeBusinessRule, ErrCodeInsufficientStock:
		return http.StatusUnprocessableEntity
	case ErrCodeUnknown, ErrCodeInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping translates the codes raised by the domain layer
// into the API set above.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":         ErrCodeNotFound,
	"ITEM_NOT_FOUND":    ErrCodeNotFound,
	"PRODUCT_NOT_FOUND": ErrCodeNotFound,
	"ALREADY_EXISTS":    ErrCodeAlreadyExists,

	"INVALID_NAME":           ErrCodeValidation,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_PRICE":          ErrCodeValidation,
	"INVALID_STOCK":          ErrCodeValidation,
	"INVALID_QUANTITY":       ErrCodeValidation,
	"INVALID_PAYMENT":        ErrCodeValidation,
	"INVALID_PAYMENT_METHOD": ErrCodeValidation,
	"INVALID_CATEGORY":       ErrCodeValidation,
	"INVALID_PRODUCT":        ErrCodeValidation,

	"INVALID_STATE":      ErrCodeInvalidState,
	"NO_PRODUCT":         ErrCodeInvalidState,
	"INSUFFICIENT_STOCK": ErrCodeInsufficientStock,
}

// NormalizeErrorCode maps a domain code to its API code, passing through
// anything already normalized or unknown.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
