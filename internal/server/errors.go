package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shulebooks/shulebooks/internal/allocation"
	attendancedomain "github.com/shulebooks/shulebooks/internal/attendance/domain"
	"github.com/shulebooks/shulebooks/internal/authorization"
	"github.com/shulebooks/shulebooks/internal/dashboard"
	"github.com/shulebooks/shulebooks/internal/feecalc"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	messagingdomain "github.com/shulebooks/shulebooks/internal/messaging/domain"
	paymentdomain "github.com/shulebooks/shulebooks/internal/payment/domain"
	staffdomain "github.com/shulebooks/shulebooks/internal/staff/domain"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
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
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
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
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
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
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isStudentValidationError(err),
		isFeeScheduleValidationError(err),
		isPaymentValidationError(err),
		isAttendanceValidationError(err),
		isStaffValidationError(err),
		isMessagingValidationError(err),
		isDashboardValidationError(err),
		isAllocationValidationError(err),
		isFeeCalcValidationError(err),
		isAuthorizationValidationError(err):
		return true
	default:
		return false
	}
}

func isAllocationValidationError(err error) bool {
	switch {
	case errors.Is(err, allocation.ErrNonPositiveAmount),
		errors.Is(err, allocation.ErrUnknownStrategy),
		errors.Is(err, allocation.ErrNegativeManualLine),
		errors.Is(err, allocation.ErrUnknownStructure):
		return true
	default:
		return false
	}
}

func isFeeCalcValidationError(err error) bool {
	switch {
	case errors.Is(err, feecalc.ErrNegativeBaseAmount),
		errors.Is(err, feecalc.ErrNegativePaymentAmount),
		errors.Is(err, feecalc.ErrMissingDueDate),
		errors.Is(err, feecalc.ErrMissingAsOf):
		return true
	default:
		return false
	}
}

func isDashboardValidationError(err error) bool {
	switch {
	case errors.Is(err, dashboard.ErrInvalidBranch),
		errors.Is(err, dashboard.ErrInvalidRange):
		return true
	default:
		return false
	}
}

func isAuthorizationValidationError(err error) bool {
	switch {
	case errors.Is(err, authorization.ErrInvalidActor),
		errors.Is(err, authorization.ErrInvalidBranch),
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
		errors.Is(err, studentdomain.ErrNotFound),
		errors.Is(err, feescheduledomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrStudentNotFound),
		errors.Is(err, attendancedomain.ErrStudentNotFound),
		errors.Is(err, staffdomain.ErrNotFound),
		errors.Is(err, messagingdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, studentdomain.ErrDuplicateAdmission),
		errors.Is(err, feescheduledomain.ErrDuplicateCode),
		errors.Is(err, feescheduledomain.ErrDuplicateStructure),
		errors.Is(err, feescheduledomain.ErrDuplicateDiscount),
		errors.Is(err, paymentdomain.ErrDuplicateKey),
		errors.Is(err, staffdomain.ErrDuplicateStaffNo),
		errors.Is(err, staffdomain.ErrDuplicateRun):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
