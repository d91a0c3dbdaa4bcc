package domain

import (
	"context"
	"errors"

	"github.com/admitworks/matricula/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound       = errors.New("candidate_not_found")
	ErrInvalidRequest = errors.New("invalid_candidate")
	ErrDuplicate      = errors.New("candidate_exists")
)

type RegisterCommand struct {
	RegNumber    string        `json:"reg_number"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	DepartmentID *snowflake.ID `json:"department_id,string"`
	ProgrammeID  *snowflake.ID `json:"programme_id,string"`
	Session      string        `json:"session"`
	Level        string        `json:"level"`
}

type Service interface {
	Register(ctx context.Context, cmd RegisterCommand) (*Candidate, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Candidate, error)
	GetByRegNumber(ctx context.Context, regNumber string) (*Candidate, error)
	List(ctx context.Context, filter ListCandidateFilter, page pagination.Pagination) ([]*Candidate, error)
}
