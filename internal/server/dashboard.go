package server

import (
	"net/http"
	"strconv"
	"strings"

	auditdomain "github.com/admitworks/matricula/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) HandleDashboardSummary(c *gin.Context) {
	session := strings.TrimSpace(c.Query("session"))
	if session == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	summary, err := s.dashboardSvc.Summary(c.Request.Context(), session)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) HandleListAuditLogs(c *gin.Context) {
	filter := auditdomain.ListFilter{
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		Actor:    c.Query("actor"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.Limit = limit
	}

	logs, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": logs})
}
