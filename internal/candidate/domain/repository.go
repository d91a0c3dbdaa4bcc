package domain

import (
	"context"

	"github.com/admitworks/matricula/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListCandidateFilter struct {
	Session      string
	DepartmentID *snowflake.ID
	RegNumber    string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, candidate *Candidate) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Candidate, error)
	FindByRegNumber(ctx context.Context, db *gorm.DB, regNumber string) (*Candidate, error)
	Update(ctx context.Context, db *gorm.DB, candidate *Candidate) error
	List(ctx context.Context, db *gorm.DB, filter ListCandidateFilter, page pagination.Pagination) ([]*Candidate, error)
}
