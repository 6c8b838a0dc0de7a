package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
	"github.com/smallbiznis/greenpack/internal/authorization"
	blogdomain "github.com/smallbiznis/greenpack/internal/blog/domain"
	dashboarddomain "github.com/smallbiznis/greenpack/internal/dashboard/domain"
	"github.com/smallbiznis/greenpack/internal/impact"
	inquirydomain "github.com/smallbiznis/greenpack/internal/inquiry/domain"
	"github.com/smallbiznis/greenpack/internal/leadcapture"
	productdomain "github.com/smallbiznis/greenpack/internal/product/domain"
	subscriberdomain "github.com/smallbiznis/greenpack/internal/subscriber/domain"
	sustainabilitydomain "github.com/smallbiznis/greenpack/internal/sustainability/domain"
	"github.com/smallbiznis/greenpack/internal/upload"
	"github.com/smallbiznis/greenpack/pkg/repository"
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
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
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

	var leadErr *leadcapture.ValidationError
	if errors.As(err, &leadErr) {
		items := make([]ValidationError, 0, len(leadErr.Errors))
		for _, fe := range leadErr.Errors {
			items = append(items, ValidationError{
				Field:   fe.Field,
				Code:    string(fe.Kind),
				Message: fe.Message(),
			})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  items,
		}
	}

	var impactErr *impact.ValidationError
	if errors.As(err, &impactErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   impactErr.Field,
					Code:    "invalid_value",
					Message: impactErr.Error(),
				},
			},
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

	var uploadErr *upload.UploadError
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
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
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, subscriberdomain.ErrAlreadySubscribed):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, upload.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "file_too_large",
			Message: "file too large",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.As(err, &uploadErr):
		return http.StatusBadGateway, errorPayload{
			Type:    "upload_failed",
			Message: "attachment upload failed",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, subscriberdomain.ErrAlreadySubscribed):
		return "already subscribed"
	case errors.Is(err, authdomain.ErrUserExists):
		return "user already exists"
	default:
		return "conflict"
	}
}

// classifyErrorForLog returns the error type and code written to the access log.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		var storageErr *repository.StorageError
		if errors.As(err, &storageErr) {
			return "storage_error", storageErr.Op
		}
		return payload.Type, http.StatusText(status)
	case len(payload.Errors) > 0:
		return payload.Type, payload.Errors[0].Code
	default:
		return payload.Type, payload.Type
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
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, leadcapture.ErrUnknownFormKind):
		return true
	case isAuthValidationError(err),
		isInquiryValidationError(err),
		isSubscriberValidationError(err),
		isProductValidationError(err),
		isSustainabilityValidationError(err),
		isBlogValidationError(err),
		isUploadValidationError(err),
		isAuditValidationError(err),
		errors.Is(err, dashboarddomain.ErrInvalidUser):
		return true
	default:
		return false
	}
}

func isAuthValidationError(err error) bool {
	return errors.Is(err, authdomain.ErrInvalidEmail) ||
		errors.Is(err, authdomain.ErrWeakPassword) ||
		errors.Is(err, authdomain.ErrInvalidRole)
}

func isInquiryValidationError(err error) bool {
	return errors.Is(err, inquirydomain.ErrInvalidID) ||
		errors.Is(err, inquirydomain.ErrInvalidStatus) ||
		errors.Is(err, inquirydomain.ErrInvalidAssignee) ||
		errors.Is(err, inquirydomain.ErrInvalidPageToken)
}

func isSubscriberValidationError(err error) bool {
	return errors.Is(err, subscriberdomain.ErrInvalidKind) ||
		errors.Is(err, subscriberdomain.ErrInvalidEmail) ||
		errors.Is(err, subscriberdomain.ErrInvalidPageToken)
}

func isProductValidationError(err error) bool {
	return errors.Is(err, productdomain.ErrInvalidName) ||
		errors.Is(err, productdomain.ErrInvalidPrice) ||
		errors.Is(err, productdomain.ErrInvalidQuantity) ||
		errors.Is(err, productdomain.ErrInvalidCategory) ||
		errors.Is(err, productdomain.ErrInvalidID)
}

func isSustainabilityValidationError(err error) bool {
	return errors.Is(err, sustainabilitydomain.ErrInvalidDate) ||
		errors.Is(err, sustainabilitydomain.ErrInvalidValue) ||
		errors.Is(err, sustainabilitydomain.ErrInvalidRange)
}

func isBlogValidationError(err error) bool {
	return errors.Is(err, blogdomain.ErrInvalidTitle) ||
		errors.Is(err, blogdomain.ErrInvalidContent) ||
		errors.Is(err, blogdomain.ErrInvalidAuthor) ||
		errors.Is(err, blogdomain.ErrInvalidID) ||
		errors.Is(err, blogdomain.ErrInvalidPageToken)
}

func isUploadValidationError(err error) bool {
	return errors.Is(err, upload.ErrEmptyFile) ||
		errors.Is(err, upload.ErrUnsupportedType)
}

func isAuditValidationError(err error) bool {
	return errors.Is(err, auditdomain.ErrInvalidPageToken) ||
		errors.Is(err, auditdomain.ErrInvalidTimeRange) ||
		errors.Is(err, auditdomain.ErrInvalidAction)
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, inquirydomain.ErrNotFound),
		errors.Is(err, subscriberdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, blogdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
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
	case "empty_file":
		return "file is empty"
	case "unsupported_file_type":
		return "file type is not supported"
	default:
		return "invalid value"
	}
}
