package server

import (
	"errors"
	"net/http"

	academicsdomain "github.com/admitworks/matricula/internal/academics/domain"
	candidatedomain "github.com/admitworks/matricula/internal/candidate/domain"
	feedomain "github.com/admitworks/matricula/internal/feeschedule/domain"
	paymentdomain "github.com/admitworks/matricula/internal/payment/domain"
	"github.com/gin-gonic/gin"
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
	ErrInternal       = errors.New("internal_error")
)

// ErrorHandlingMiddleware maps domain errors pushed via AbortWithError to
// a single JSON error shape. Handlers never write error bodies themselves.
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

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, paymentdomain.ErrIdempotencyConflict):
		return http.StatusConflict, errorPayload{
			Type:    "idempotency_conflict",
			Message: "a different request already used this idempotency key",
		}
	case errors.Is(err, paymentdomain.ErrAmountMismatch):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "amount_mismatch",
			Message: "amount does not match the fee schedule",
		}
	case errors.Is(err, paymentdomain.ErrCurrencyMismatch):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "currency_mismatch",
			Message: "currency does not match the fee schedule",
		}
	case errors.Is(err, paymentdomain.ErrUnsupportedPurpose):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unsupported_purpose",
			Message: "no fee is configured for this purpose",
		}
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "invalid_signature",
			Message: "webhook signature verification failed",
		}
	case errors.Is(err, paymentdomain.ErrInvalidState),
		errors.Is(err, paymentdomain.ErrInvalidTransition):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state",
			Message: "the payment is not in a state that allows this operation",
		}
	case errors.Is(err, paymentdomain.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "provider_unavailable",
			Message: "payment provider unavailable",
		}
	case errors.Is(err, paymentdomain.ErrUnknownProvider):
		return http.StatusNotFound, errorPayload{
			Type:    "unknown_provider",
			Message: "unknown payment provider",
		}
	case errors.Is(err, candidatedomain.ErrDuplicate),
		errors.Is(err, academicsdomain.ErrDuplicate):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "resource already exists",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "invalid request",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, candidatedomain.ErrNotFound),
		errors.Is(err, feedomain.ErrNotFound),
		errors.Is(err, academicsdomain.ErrNotFound):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, paymentdomain.ErrInvalidRequest),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, candidatedomain.ErrInvalidRequest),
		errors.Is(err, feedomain.ErrInvalidRequest),
		errors.Is(err, academicsdomain.ErrInvalidRequest):
		return true
	default:
		return false
	}
}

// classifyErrorForLog labels request log lines without leaking internals.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", ""
	}
}
