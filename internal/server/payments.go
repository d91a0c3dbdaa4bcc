package server

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	auditdomain "github.com/admitworks/matricula/internal/audit/domain"
	paymentdomain "github.com/admitworks/matricula/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) HandleInitiatePayment(c *gin.Context) {
	var cmd paymentdomain.InitiateCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if key := strings.TrimSpace(c.GetHeader("Idempotency-Key")); key != "" {
		cmd.IdempotencyKey = key
	}

	resp, err := s.paymentSvc.Initiate(c.Request.Context(), cmd)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

func (s *Server) HandlePaymentStatus(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	txn, err := s.paymentSvc.Status(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) HandlePaymentEvents(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if _, err := s.paymentSvc.Status(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	events, err := s.listEvents(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) HandleVerifyPayment(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	txn, err := s.paymentSvc.Verify(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) HandleRefundPayment(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var body struct {
		Reason string `json:"reason"`
		Actor  string `json:"actor"`
	}
	// Reason and actor are optional; an empty body is fine.
	_ = c.ShouldBindJSON(&body)

	txn, err := s.paymentSvc.Refund(c.Request.Context(), id, body.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor := body.Actor
	if actor == "" {
		actor = "operator"
	}
	s.auditSvc.Record(c.Request.Context(), auditdomain.RecordCommand{
		Actor:    actor,
		Action:   "payment.refund",
		Entity:   "payment",
		EntityID: id.String(),
		Metadata: map[string]string{"reason": body.Reason},
	})

	c.JSON(http.StatusOK, txn)
}

func (s *Server) HandlePaymentReceipt(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	receiptRef, err := s.receiptSvc.Generate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if c.Query("download") == "true" {
		path := filepath.Join(s.cfg.ReceiptDir, receiptRef+".pdf")
		c.FileAttachment(path, receiptRef+".pdf")
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt_ref": receiptRef})
}

func (s *Server) HandleListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": s.registry.Status()})
}

func (s *Server) listEvents(ctx context.Context, id snowflake.ID) ([]*paymentdomain.Event, error) {
	return s.paymentRepo.ListEvents(ctx, s.db, id)
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
