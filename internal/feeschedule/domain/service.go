package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound       = errors.New("fee_schedule_not_found")
	ErrInvalidRequest = errors.New("invalid_fee_schedule")
)

type UpsertCommand struct {
	Purpose      string        `json:"purpose"`
	Session      string        `json:"session"`
	DepartmentID *snowflake.ID `json:"department_id,string"`
	Level        string        `json:"level"`
	Amount       int64         `json:"amount"`
	Currency     string        `json:"currency"`
	Active       *bool         `json:"active"`
}

type Service interface {
	Create(ctx context.Context, cmd UpsertCommand) (*FeeSchedule, error)
	Update(ctx context.Context, id snowflake.ID, cmd UpsertCommand) (*FeeSchedule, error)
	Get(ctx context.Context, id snowflake.ID) (*FeeSchedule, error)
	List(ctx context.Context, filter ListFilter) ([]*FeeSchedule, error)

	// AmountFor resolves the fee a candidate owes for a purpose in a
	// session. The most specific active row wins.
	AmountFor(ctx context.Context, filter MatchFilter) (*FeeSchedule, error)
}
