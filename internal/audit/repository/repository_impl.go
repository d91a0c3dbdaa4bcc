package repository

import (
	"context"

	"github.com/admitworks/matricula/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, log *domain.AuditLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_logs (id, actor, action, entity, entity_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.Actor, log.Action, log.Entity, log.EntityID, log.Metadata, log.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	stmt := db.WithContext(ctx).Model(&domain.AuditLog{})
	if filter.Entity != "" {
		stmt = stmt.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != "" {
		stmt = stmt.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Actor != "" {
		stmt = stmt.Where("actor = ?", filter.Actor)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	err := stmt.Order("id desc").Limit(limit).Find(&logs).Error
	return logs, err
}
