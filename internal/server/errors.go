package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	memberdomain "github.com/lubetrack/lubetrack/internal/member/domain"
	paymentdomain "github.com/lubetrack/lubetrack/internal/payment/domain"
	plandomain "github.com/lubetrack/lubetrack/internal/plan/domain"
	servicelogdomain "github.com/lubetrack/lubetrack/internal/servicelog/domain"
	subscriptiondomain "github.com/lubetrack/lubetrack/internal/subscription/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
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
	return ErrInvalidRequest
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "invalid signature",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isUnprocessableError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, tenantdomain.ErrInvalidTenant),
		errors.Is(err, subscriptiondomain.ErrInvalidQuantity),
		errors.Is(err, servicelogdomain.ErrInvalidRecord),
		errors.Is(err, memberdomain.ErrInvalidMember),
		errors.Is(err, paymentdomain.ErrInvalidProvider),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, servicelogdomain.ErrRecordNotFound),
		errors.Is(err, memberdomain.ErrMemberNotFound),
		errors.Is(err, paymentdomain.ErrSessionNotFound),
		errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, tenantdomain.ErrSlugTaken),
		errors.Is(err, tenantdomain.ErrVersionConflict),
		errors.Is(err, tenantdomain.ErrUpdateFailed):
		return true
	default:
		return false
	}
}

// Unprocessable: the request was well formed but the subscription state does
// not allow the operation.
func isUnprocessableError(err error) bool {
	switch {
	case errors.Is(err, subscriptiondomain.ErrNoEntitlement),
		errors.Is(err, subscriptiondomain.ErrServiceLimitExceeded),
		errors.Is(err, subscriptiondomain.ErrUserLimitExceeded),
		errors.Is(err, subscriptiondomain.ErrNotServicePlan),
		errors.Is(err, subscriptiondomain.ErrTenantNotActive),
		errors.Is(err, subscriptiondomain.ErrPaymentNotApproved),
		errors.Is(err, subscriptiondomain.ErrUnknownPlan):
		return true
	default:
		return false
	}
}
