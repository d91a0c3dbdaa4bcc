package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type MatchFilter struct {
	Purpose      string
	Session      string
	DepartmentID *snowflake.ID
	Level        string
}

type ListFilter struct {
	Purpose string
	Session string
	Active  *bool
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, schedule *FeeSchedule) error
	Update(ctx context.Context, db *gorm.DB, schedule *FeeSchedule) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FeeSchedule, error)
	FindMatches(ctx context.Context, db *gorm.DB, filter MatchFilter) ([]*FeeSchedule, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*FeeSchedule, error)
}
