package service

import (
	"context"
	"time"

	"github.com/admitworks/matricula/internal/config"
	"github.com/admitworks/matricula/internal/feeschedule/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
}

type service struct {
	cfg   config.Config
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &service{
		cfg:   p.Config,
		db:    p.DB,
		log:   p.Log.Named("feeschedule.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *service) Create(ctx context.Context, cmd domain.UpsertCommand) (*domain.FeeSchedule, error) {
	if cmd.Purpose == "" || cmd.Session == "" || cmd.Amount <= 0 {
		return nil, domain.ErrInvalidRequest
	}

	currency := cmd.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}

	now := time.Now().UTC()
	schedule := &domain.FeeSchedule{
		ID:           s.genID.Generate(),
		Purpose:      cmd.Purpose,
		Session:      cmd.Session,
		DepartmentID: cmd.DepartmentID,
		Level:        cmd.Level,
		Amount:       cmd.Amount,
		Currency:     currency,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, schedule); err != nil {
		s.log.Error("create fee schedule", zap.String("purpose", cmd.Purpose), zap.Error(err))
		return nil, err
	}
	return schedule, nil
}

func (s *service) Update(ctx context.Context, id snowflake.ID, cmd domain.UpsertCommand) (*domain.FeeSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, domain.ErrNotFound
	}

	if cmd.Purpose != "" {
		schedule.Purpose = cmd.Purpose
	}
	if cmd.Session != "" {
		schedule.Session = cmd.Session
	}
	if cmd.DepartmentID != nil {
		schedule.DepartmentID = cmd.DepartmentID
	}
	if cmd.Level != "" {
		schedule.Level = cmd.Level
	}
	if cmd.Amount > 0 {
		schedule.Amount = cmd.Amount
	}
	if cmd.Currency != "" {
		schedule.Currency = cmd.Currency
	}
	if cmd.Active != nil {
		schedule.Active = *cmd.Active
	}
	schedule.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *service) Get(ctx context.Context, id snowflake.ID) (*domain.FeeSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, domain.ErrNotFound
	}
	return schedule, nil
}

func (s *service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.FeeSchedule, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *service) AmountFor(ctx context.Context, filter domain.MatchFilter) (*domain.FeeSchedule, error) {
	matches, err := s.repo.FindMatches(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, domain.ErrNotFound
	}

	var best *domain.FeeSchedule
	bestRank := -1
	for _, m := range matches {
		rank := 0
		if m.DepartmentID != nil {
			rank += 2
		}
		if m.Level != "" {
			rank++
		}
		if rank > bestRank {
			best = m
			bestRank = rank
		}
	}
	return best, nil
}
