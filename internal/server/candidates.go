package server

import (
	"net/http"
	"strings"

	candidatedomain "github.com/admitworks/matricula/internal/candidate/domain"
	"github.com/admitworks/matricula/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

func (s *Server) HandleRegisterCandidate(c *gin.Context) {
	var cmd candidatedomain.RegisterCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	candidate, err := s.candidateSvc.Register(c.Request.Context(), cmd)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, candidate)
}

func (s *Server) HandleGetCandidate(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("id"))

	if id, err := parseID(raw); err == nil {
		candidate, err := s.candidateSvc.GetByID(c.Request.Context(), id)
		if err == nil {
			c.JSON(http.StatusOK, candidate)
			return
		}
		if err != candidatedomain.ErrNotFound {
			AbortWithError(c, err)
			return
		}
	}

	// Fall back to registration-number lookup for human-friendly URLs.
	candidate, err := s.candidateSvc.GetByRegNumber(c.Request.Context(), raw)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

func (s *Server) HandleListCandidates(c *gin.Context) {
	filter := candidatedomain.ListCandidateFilter{
		Session:   c.Query("session"),
		RegNumber: c.Query("reg_number"),
	}
	if raw := c.Query("department_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.DepartmentID = &id
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	candidates, err := s.candidateSvc.List(c.Request.Context(), filter, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}
