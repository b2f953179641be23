package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_015"
)

// Sentinel pseudo-codes used by GetCode / Wrap.
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Screening module error codes (orchestrator and check-item registry).
const (
	ErrCodeCheckUnknown       ErrorCode = "SCR_001"
	ErrCodeCheckDuplicate     ErrorCode = "SCR_002"
	ErrCodeCheckConfigInvalid ErrorCode = "SCR_003"
	ErrCodeScreeningNotFound  ErrorCode = "SCR_004"
	ErrCodeScreeningCancelled ErrorCode = "SCR_005"
)

// Probe module error codes (leaf and aggregate evaluation).
const (
	ErrCodeProbeParamMissing ErrorCode = "PRB_001"
	ErrCodeProbeDataInvalid  ErrorCode = "PRB_002"
	ErrCodeAggregationFailed ErrorCode = "PRB_003"
)

// Provider module error codes (upstream data sources).
const (
	ErrCodeProviderUnavailable ErrorCode = "PRV_001"
	ErrCodeProviderRateLimited ErrorCode = "PRV_002"
	ErrCodeProviderAuthFailed  ErrorCode = "PRV_003"
	ErrCodeProviderParseError  ErrorCode = "PRV_004"
)

// Resolver module error codes (bulk entity resolution).
const (
	ErrCodeResolverBatchFailed ErrorCode = "RSV_001"
	ErrCodeResolverDateInvalid ErrorCode = "RSV_002"
	ErrCodeDescriptionNotFound ErrorCode = "RSV_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeCheckUnknown:       http.StatusBadRequest,
	ErrCodeCheckDuplicate:     http.StatusConflict,
	ErrCodeCheckConfigInvalid: http.StatusInternalServerError,
	ErrCodeScreeningNotFound:  http.StatusNotFound,
	ErrCodeScreeningCancelled: http.StatusRequestTimeout,

	ErrCodeProbeParamMissing: http.StatusBadRequest,
	ErrCodeProbeDataInvalid:  http.StatusBadGateway,
	ErrCodeAggregationFailed: http.StatusInternalServerError,

	ErrCodeProviderUnavailable: http.StatusServiceUnavailable,
	ErrCodeProviderRateLimited: http.StatusTooManyRequests,
	ErrCodeProviderAuthFailed:  http.StatusBadGateway,
	ErrCodeProviderParseError:  http.StatusBadGateway,

	ErrCodeResolverBatchFailed: http.StatusInternalServerError,
	ErrCodeResolverDateInvalid: http.StatusBadRequest,
	ErrCodeDescriptionNotFound: http.StatusNotFound,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessageQueueError:  "message queue error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeCheckUnknown:       "check item not registered",
	ErrCodeCheckDuplicate:     "check item already registered",
	ErrCodeCheckConfigInvalid: "invalid check item configuration",
	ErrCodeScreeningNotFound:  "screening record not found",
	ErrCodeScreeningCancelled: "screening run cancelled",

	ErrCodeProbeParamMissing: "required check parameter missing",
	ErrCodeProbeDataInvalid:  "provider payload not usable for check",
	ErrCodeAggregationFailed: "failed to combine component results",

	ErrCodeProviderUnavailable: "data provider unavailable",
	ErrCodeProviderRateLimited: "data provider rate limited",
	ErrCodeProviderAuthFailed:  "data provider authentication failed",
	ErrCodeProviderParseError:  "failed to parse data provider response",

	ErrCodeResolverBatchFailed: "entity resolution batch failed",
	ErrCodeResolverDateInvalid: "unparseable review date",
	ErrCodeDescriptionNotFound: "risk description info not found",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
