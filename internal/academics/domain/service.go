package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("academic_unit_not_found")
	ErrInvalidRequest = errors.New("invalid_academic_unit")
	ErrDuplicate      = errors.New("academic_unit_exists")
)

type Repository interface {
	InsertFaculty(ctx context.Context, db *gorm.DB, faculty *Faculty) error
	ListFaculties(ctx context.Context, db *gorm.DB) ([]*Faculty, error)

	InsertDepartment(ctx context.Context, db *gorm.DB, department *Department) error
	FindDepartment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Department, error)
	ListDepartments(ctx context.Context, db *gorm.DB, facultyID *snowflake.ID) ([]*Department, error)

	InsertProgramme(ctx context.Context, db *gorm.DB, programme *Programme) error
	ListProgrammes(ctx context.Context, db *gorm.DB, departmentID *snowflake.ID) ([]*Programme, error)
}

type CreateFacultyCommand struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type CreateDepartmentCommand struct {
	FacultyID snowflake.ID `json:"faculty_id,string"`
	Name      string       `json:"name"`
	Code      string       `json:"code"`
}

type CreateProgrammeCommand struct {
	DepartmentID snowflake.ID `json:"department_id,string"`
	Name         string       `json:"name"`
	Degree       string       `json:"degree"`
	DurationYrs  int          `json:"duration_years"`
}

type Service interface {
	CreateFaculty(ctx context.Context, cmd CreateFacultyCommand) (*Faculty, error)
	ListFaculties(ctx context.Context) ([]*Faculty, error)

	CreateDepartment(ctx context.Context, cmd CreateDepartmentCommand) (*Department, error)
	ListDepartments(ctx context.Context, facultyID *snowflake.ID) ([]*Department, error)

	CreateProgramme(ctx context.Context, cmd CreateProgrammeCommand) (*Programme, error)
	ListProgrammes(ctx context.Context, departmentID *snowflake.ID) ([]*Programme, error)
}
