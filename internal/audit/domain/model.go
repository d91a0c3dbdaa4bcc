package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records who did what to which entity. Rows are append-only.
type AuditLog struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey"`
	Actor     string         `json:"actor" gorm:"type:text;not null"`
	Action    string         `json:"action" gorm:"type:text;not null"`
	Entity    string         `json:"entity" gorm:"type:text;not null"`
	EntityID  string         `json:"entity_id" gorm:"type:text"`
	Metadata  datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	Entity   string
	EntityID string
	Actor    string
	Limit    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, log *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

type RecordCommand struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Metadata map[string]string
}

type Service interface {
	Record(ctx context.Context, cmd RecordCommand)
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
