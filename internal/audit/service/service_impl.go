package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/admitworks/matricula/internal/audit/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Record writes an audit row. Failures are logged, never surfaced; audit
// must not fail the operation it describes.
func (s *service) Record(ctx context.Context, cmd domain.RecordCommand) {
	var metadata []byte
	if len(cmd.Metadata) > 0 {
		metadata, _ = json.Marshal(cmd.Metadata)
	}

	entry := &domain.AuditLog{
		ID:        s.genID.Generate(),
		Actor:     cmd.Actor,
		Action:    cmd.Action,
		Entity:    cmd.Entity,
		EntityID:  cmd.EntityID,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("audit record",
			zap.String("action", cmd.Action),
			zap.String("entity", cmd.Entity),
			zap.Error(err),
		)
	}
}

func (s *service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}
