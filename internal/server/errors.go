package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	psdomain "github.com/smallbiznis/paysignal/internal/paymentsource/domain"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
	txdomain "github.com/smallbiznis/paysignal/internal/transaction/domain"
	"github.com/smallbiznis/paysignal/pkg/db/pagination"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrFeatureUnavailable = errors.New("feature_unavailable")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{{Field: field, Code: code, Message: message}},
	}
}

// domainValidation maps domain sentinels onto the field they concern.
var domainValidation = []struct {
	err   error
	field string
}{
	{tenantdomain.ErrInvalidEmail, "email"},
	{tenantdomain.ErrInvalidCompany, "company_name"},
	{tenantdomain.ErrInvalidPlan, "plan"},
	{tenantdomain.ErrInvalidGroup, "group_id"},
	{psdomain.ErrInvalidGroup, "group_id"},
	{psdomain.ErrInvalidIdentifier, "identifier"},
	{txdomain.ErrInvalidGroup, "group_id"},
	{txdomain.ErrInvalidDate, "date"},
	{pagination.ErrInvalidPageToken, "page_token"},
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}

	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	for _, v := range domainValidation {
		if errors.Is(err, v.err) {
			return http.StatusBadRequest, errorPayload{
				Type:    "validation_error",
				Message: "validation error",
				Errors:  []ValidationError{{Field: v.field, Code: v.err.Error(), Message: v.err.Error()}},
			}
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: "validation error"}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, tenantdomain.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}
	case errors.Is(err, ErrFeatureUnavailable):
		return http.StatusForbidden, errorPayload{Type: "feature_unavailable", Message: "feature not available on this plan"}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}
	case errors.Is(err, ErrConflict),
		errors.Is(err, tenantdomain.ErrEmailTaken),
		errors.Is(err, tenantdomain.ErrGroupTaken):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}
	case errors.Is(err, tenantdomain.ErrGroupLimit):
		return http.StatusForbidden, errorPayload{Type: "group_limit_reached", Message: "group limit reached for this plan"}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tenantdomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{Type: "rate_limited", Message: "rate limit exceeded"}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{Type: "service_unavailable", Message: "service unavailable"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

// classifyErrorForLog feeds the request logger's error_type and error_code.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal", payload.Type
	}
	return "client", payload.Type
}
