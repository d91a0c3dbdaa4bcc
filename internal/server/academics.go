package server

import (
	"net/http"

	academicsdomain "github.com/admitworks/matricula/internal/academics/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) HandleCreateFaculty(c *gin.Context) {
	var cmd academicsdomain.CreateFacultyCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	faculty, err := s.academicsSvc.CreateFaculty(c.Request.Context(), cmd)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, faculty)
}

func (s *Server) HandleListFaculties(c *gin.Context) {
	faculties, err := s.academicsSvc.ListFaculties(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"faculties": faculties})
}

func (s *Server) HandleCreateDepartment(c *gin.Context) {
	var cmd academicsdomain.CreateDepartmentCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	department, err := s.academicsSvc.CreateDepartment(c.Request.Context(), cmd)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, department)
}

func (s *Server) HandleListDepartments(c *gin.Context) {
	facultyID, err := optionalID(c.Query("faculty_id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	departments, err := s.academicsSvc.ListDepartments(c.Request.Context(), facultyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

func (s *Server) HandleCreateProgramme(c *gin.Context) {
	var cmd academicsdomain.CreateProgrammeCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	programme, err := s.academicsSvc.CreateProgramme(c.Request.Context(), cmd)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, programme)
}

func (s *Server) HandleListProgrammes(c *gin.Context) {
	departmentID, err := optionalID(c.Query("department_id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	programmes, err := s.academicsSvc.ListProgrammes(c.Request.Context(), departmentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"programmes": programmes})
}

func optionalID(raw string) (*snowflake.ID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
