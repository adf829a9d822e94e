// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"itineramio/internal/billing"
	"itineramio/internal/importer"
)

// Machine-readable codes carried next to the human detail.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeNotConfigured     = "NOT_CONFIGURED"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeInvalidMapping    = "INVALID_MAPPING"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeUseIssueEndpoint  = "USE_ISSUE_ENDPOINT"
	CodeAlreadyIssued     = "ALREADY_ISSUED"
	CodeAlreadyInvoiced   = "ALREADY_INVOICED"
	CodeEmptyLiquidation  = "EMPTY_LIQUIDATION"
	CodeNegativeResult    = "NEGATIVE_RESULT"
	CodeMalformedToken    = "MALFORMED_TOKEN"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL_ERROR"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg, Code: CodeBadRequest}
}

func WithCode(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Code: CodeValidation, Fields: fields}
}

// From maps a service error onto its HTTP status and response body.
// Unknown errors become an opaque 500; their text never reaches the client.
func From(err error) (int, any) {
	var (
		cfgErr        *billing.ConfigError
		transitionErr *billing.InvalidTransitionError
		negativeErr   *billing.NegativeResultError
	)
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity, &ValidationError{
			Detail: billing.ErrInvalidConfig.Error(),
			Code:   CodeInvalidConfig,
			Fields: cfgErr.Fields,
		}
	case errors.As(err, &transitionErr):
		return http.StatusConflict, WithCode(CodeInvalidTransition, transitionErr.Error())
	case errors.As(err, &negativeErr):
		return http.StatusUnprocessableEntity, WithCode(CodeNegativeResult, negativeErr.Error())
	case errors.Is(err, billing.ErrNotFound):
		return http.StatusNotFound, WithCode(CodeNotFound, err.Error())
	case errors.Is(err, billing.ErrNotConfigured), errors.Is(err, billing.ErrConfigMissing):
		return http.StatusUnprocessableEntity, WithCode(CodeNotConfigured, err.Error())
	case errors.Is(err, billing.ErrInvalidConfig):
		return http.StatusUnprocessableEntity, WithCode(CodeInvalidConfig, err.Error())
	case errors.Is(err, importer.ErrInvalidMapping):
		return http.StatusUnprocessableEntity, WithCode(CodeInvalidMapping, err.Error())
	case errors.Is(err, billing.ErrEmptyLiquidation):
		return http.StatusUnprocessableEntity, WithCode(CodeEmptyLiquidation, err.Error())
	case errors.Is(err, billing.ErrUseIssueEndpoint):
		return http.StatusConflict, WithCode(CodeUseIssueEndpoint, err.Error())
	case errors.Is(err, billing.ErrAlreadyIssued), errors.Is(err, billing.ErrNotIssuable):
		return http.StatusConflict, WithCode(CodeAlreadyIssued, err.Error())
	case errors.Is(err, billing.ErrAlreadyInvoiced):
		return http.StatusConflict, WithCode(CodeAlreadyInvoiced, err.Error())
	case errors.Is(err, billing.ErrMalformedToken):
		return http.StatusBadRequest, WithCode(CodeMalformedToken, err.Error())
	case errors.Is(err, billing.ErrAliasNotFound), errors.Is(err, billing.ErrAliasAmbiguous):
		return http.StatusUnprocessableEntity, WithCode(CodeValidation, err.Error())
	}
	return http.StatusInternalServerError, WithCode(CodeInternal, "Error interno del servidor")
}
