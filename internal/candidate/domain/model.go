package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Candidate struct {
	ID           snowflake.ID  `json:"id" gorm:"primaryKey"`
	RegNumber    string        `json:"reg_number" gorm:"type:text;not null"`
	FirstName    string        `json:"first_name" gorm:"type:text;not null"`
	LastName     string        `json:"last_name" gorm:"type:text;not null"`
	Email        string        `json:"email" gorm:"type:text;not null"`
	Phone        string        `json:"phone" gorm:"type:text"`
	DepartmentID *snowflake.ID `json:"department_id"`
	ProgrammeID  *snowflake.ID `json:"programme_id"`
	Session      string        `json:"session" gorm:"type:text;not null"`
	Level        string        `json:"level" gorm:"type:text"`
	CreatedAt    time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"not null"`
}

func (Candidate) TableName() string { return "candidates" }
