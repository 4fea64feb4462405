package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/grantgate/internal/authorization"
	gatedomain "github.com/smallbiznis/grantgate/internal/gate/domain"
	monetizationdomain "github.com/smallbiznis/grantgate/internal/monetization/domain"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	userdomain "github.com/smallbiznis/grantgate/internal/user/domain"
	"gorm.io/gorm"
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
	Type         string             `json:"type"`
	Message      string             `json:"message"`
	Errors       []ValidationError  `json:"errors,omitempty"`
	Reason       gatedomain.Reason  `json:"reason,omitempty"`
	UpsellAction string             `json:"upsell_action,omitempty"`
	Usage        *usagedomain.Usage `json:"usage,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
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
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	var blocked *gatedomain.BlockedError
	if errors.As(err, &blocked) {
		return http.StatusPaymentRequired, errorPayload{
			Type:         "access_blocked",
			Message:      blocked.Decision.Reason.Message(),
			Reason:       blocked.Decision.Reason,
			UpsellAction: blocked.Decision.UpsellAction,
			Usage:        blocked.Decision.Usage,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, userdomain.ErrAlreadyPurchased):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "feature already purchased",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, usagedomain.ErrStorageUnavailable),
		errors.Is(err, userdomain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "temporarily unavailable, please retry",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code logged with each request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	switch {
	case len(payload.Errors) > 0:
		code = payload.Errors[0].Code
	case payload.Reason != "":
		code = string(payload.Reason)
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, usagedomain.ErrInvalidUserID),
		errors.Is(err, usagedomain.ErrInvalidFeatureName),
		errors.Is(err, userdomain.ErrInvalidUserID),
		errors.Is(err, userdomain.ErrInvalidFeatureName),
		errors.Is(err, gatedomain.ErrInvalidRole),
		errors.Is(err, monetizationdomain.ErrUnknownModel),
		errors.Is(err, authorization.ErrInvalidObject),
		errors.Is(err, authorization.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, usagedomain.ErrInvalidUserID), errors.Is(err, userdomain.ErrInvalidUserID):
		return usagedomain.ErrInvalidUserID.Error()
	case errors.Is(err, usagedomain.ErrInvalidFeatureName), errors.Is(err, userdomain.ErrInvalidFeatureName):
		return usagedomain.ErrInvalidFeatureName.Error()
	case errors.Is(err, gatedomain.ErrInvalidRole):
		return gatedomain.ErrInvalidRole.Error()
	case errors.Is(err, monetizationdomain.ErrUnknownModel):
		return monetizationdomain.ErrUnknownModel.Error()
	case errors.Is(err, authorization.ErrInvalidObject):
		return authorization.ErrInvalidObject.Error()
	case errors.Is(err, authorization.ErrInvalidAction):
		return authorization.ErrInvalidAction.Error()
	default:
		return ErrInvalidRequest.Error()
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "unknown_monetization_model" {
		return "monetizationModel"
	}
	return ""
}
