package service

import (
	"context"
	"strings"
	"time"

	"github.com/admitworks/matricula/internal/academics/domain"
	"github.com/admitworks/matricula/pkg/db"
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
		log:   p.Log.Named("academics.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *service) CreateFaculty(ctx context.Context, cmd domain.CreateFacultyCommand) (*domain.Faculty, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Code = strings.ToUpper(strings.TrimSpace(cmd.Code))
	if cmd.Name == "" || cmd.Code == "" {
		return nil, domain.ErrInvalidRequest
	}

	now := time.Now().UTC()
	faculty := &domain.Faculty{
		ID:        s.genID.Generate(),
		Name:      cmd.Name,
		Code:      cmd.Code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertFaculty(ctx, s.db, faculty); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}
	return faculty, nil
}

func (s *service) ListFaculties(ctx context.Context) ([]*domain.Faculty, error) {
	return s.repo.ListFaculties(ctx, s.db)
}

func (s *service) CreateDepartment(ctx context.Context, cmd domain.CreateDepartmentCommand) (*domain.Department, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Code = strings.ToUpper(strings.TrimSpace(cmd.Code))
	if cmd.FacultyID == 0 || cmd.Name == "" || cmd.Code == "" {
		return nil, domain.ErrInvalidRequest
	}

	now := time.Now().UTC()
	department := &domain.Department{
		ID:        s.genID.Generate(),
		FacultyID: cmd.FacultyID,
		Name:      cmd.Name,
		Code:      cmd.Code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertDepartment(ctx, s.db, department); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}
	return department, nil
}

func (s *service) ListDepartments(ctx context.Context, facultyID *snowflake.ID) ([]*domain.Department, error) {
	return s.repo.ListDepartments(ctx, s.db, facultyID)
}

func (s *service) CreateProgramme(ctx context.Context, cmd domain.CreateProgrammeCommand) (*domain.Programme, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.DepartmentID == 0 || cmd.Name == "" {
		return nil, domain.ErrInvalidRequest
	}

	department, err := s.repo.FindDepartment(ctx, s.db, cmd.DepartmentID)
	if err != nil {
		return nil, err
	}
	if department == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now().UTC()
	programme := &domain.Programme{
		ID:           s.genID.Generate(),
		DepartmentID: cmd.DepartmentID,
		Name:         cmd.Name,
		Degree:       cmd.Degree,
		DurationYrs:  cmd.DurationYrs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertProgramme(ctx, s.db, programme); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, err
	}
	return programme, nil
}

func (s *service) ListProgrammes(ctx context.Context, departmentID *snowflake.ID) ([]*domain.Programme, error) {
	return s.repo.ListProgrammes(ctx, s.db, departmentID)
}
