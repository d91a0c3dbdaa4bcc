package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	paymentdomain "github.com/admitworks/matricula/internal/payment/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandlePaymentWebhook acknowledges provider callbacks. Anything the
// gateway could fix by retrying keeps its error status; everything else
// returns 200 so the provider stops redelivering.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err = s.webhookSvc.HandleWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, paymentdomain.ErrPaymentNotFound):
		// A webhook for a transaction we never initiated. Logged by the
		// service; acknowledge so the provider does not retry forever.
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrUnknownProvider),
		errors.Is(err, paymentdomain.ErrInvalidPayload):
		AbortWithError(c, err)
	default:
		s.log.Error("webhook processing", zap.String("provider", provider), zap.Error(err))
		AbortWithError(c, ErrInternal)
	}
}
