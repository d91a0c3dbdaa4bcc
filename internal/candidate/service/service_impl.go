package service

import (
	"context"
	"strings"
	"time"

	"github.com/admitworks/matricula/internal/candidate/domain"
	"github.com/admitworks/matricula/pkg/db"
	"github.com/admitworks/matricula/pkg/db/pagination"
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
		log:   p.Log.Named("candidate.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *service) Register(ctx context.Context, cmd domain.RegisterCommand) (*domain.Candidate, error) {
	cmd.RegNumber = strings.TrimSpace(cmd.RegNumber)
	cmd.Email = strings.TrimSpace(strings.ToLower(cmd.Email))
	if cmd.RegNumber == "" || cmd.FirstName == "" || cmd.LastName == "" || cmd.Email == "" || cmd.Session == "" {
		return nil, domain.ErrInvalidRequest
	}

	now := time.Now().UTC()
	candidate := &domain.Candidate{
		ID:           s.genID.Generate(),
		RegNumber:    cmd.RegNumber,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		Email:        cmd.Email,
		Phone:        cmd.Phone,
		DepartmentID: cmd.DepartmentID,
		ProgrammeID:  cmd.ProgrammeID,
		Session:      cmd.Session,
		Level:        cmd.Level,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, candidate); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicate
		}
		s.log.Error("register candidate", zap.String("reg_number", cmd.RegNumber), zap.Error(err))
		return nil, err
	}

	return candidate, nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Candidate, error) {
	candidate, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, domain.ErrNotFound
	}
	return candidate, nil
}

func (s *service) GetByRegNumber(ctx context.Context, regNumber string) (*domain.Candidate, error) {
	candidate, err := s.repo.FindByRegNumber(ctx, s.db, strings.TrimSpace(regNumber))
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, domain.ErrNotFound
	}
	return candidate, nil
}

func (s *service) List(ctx context.Context, filter domain.ListCandidateFilter, page pagination.Pagination) ([]*domain.Candidate, error) {
	return s.repo.List(ctx, s.db, filter, page)
}
