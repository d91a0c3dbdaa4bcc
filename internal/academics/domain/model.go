package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Faculty struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Code      string       `json:"code" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (Faculty) TableName() string { return "faculties" }

type Department struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	FacultyID snowflake.ID `json:"faculty_id" gorm:"not null;index"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Code      string       `json:"code" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null"`
}

func (Department) TableName() string { return "departments" }

type Programme struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	DepartmentID snowflake.ID `json:"department_id" gorm:"not null;index"`
	Name         string       `json:"name" gorm:"type:text;not null"`
	Degree       string       `json:"degree" gorm:"type:text"`
	DurationYrs  int          `json:"duration_years"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null"`
}

func (Programme) TableName() string { return "programmes" }
