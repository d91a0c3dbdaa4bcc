package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FeeSchedule maps a payment purpose to the amount a candidate owes.
// DepartmentID and Level are optional narrowing dimensions; a row with
// both set beats a row with one, which beats the session-wide default.
type FeeSchedule struct {
	ID           snowflake.ID  `json:"id" gorm:"primaryKey"`
	Purpose      string        `json:"purpose" gorm:"type:text;not null"`
	Session      string        `json:"session" gorm:"type:text;not null"`
	DepartmentID *snowflake.ID `json:"department_id"`
	Level        string        `json:"level" gorm:"type:text"`
	Amount       int64         `json:"amount" gorm:"not null"`
	Currency     string        `json:"currency" gorm:"type:text;not null"`
	Active       bool          `json:"active" gorm:"not null"`
	CreatedAt    time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"not null"`
}

func (FeeSchedule) TableName() string { return "fee_schedules" }
