package server

import (
	"net/http"
	"strings"

	feedomain "github.com/admitworks/matricula/internal/feeschedule/domain"
	paymentdomain "github.com/admitworks/matricula/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) HandleCreateFeeSchedule(c *gin.Context) {
	var cmd feedomain.UpsertCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	schedule, err := s.feeSvc.Create(c.Request.Context(), cmd)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (s *Server) HandleUpdateFeeSchedule(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var cmd feedomain.UpsertCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	schedule, err := s.feeSvc.Update(c.Request.Context(), id, cmd)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (s *Server) HandleListFeeSchedules(c *gin.Context) {
	filter := feedomain.ListFilter{
		Purpose: c.Query("purpose"),
		Session: c.Query("session"),
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	schedules, err := s.feeSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee_schedules": schedules})
}

// HandleFeeQuote resolves the amount a candidate would be charged without
// initiating a payment.
func (s *Server) HandleFeeQuote(c *gin.Context) {
	purpose, ok := paymentdomain.ParsePurpose(c.Query("purpose"))
	if !ok {
		AbortWithError(c, paymentdomain.ErrUnsupportedPurpose)
		return
	}
	session := strings.TrimSpace(c.Query("session"))
	if session == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	filter := feedomain.MatchFilter{
		Purpose: string(purpose),
		Session: session,
		Level:   c.Query("level"),
	}
	if raw := c.Query("department_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.DepartmentID = &id
	}

	schedule, err := s.feeSvc.AmountFor(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}
