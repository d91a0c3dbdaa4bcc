package repository

import (
	"context"

	"github.com/admitworks/matricula/internal/candidate/domain"
	"github.com/admitworks/matricula/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, candidate *domain.Candidate) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO candidates (
			id, reg_number, first_name, last_name, email, phone,
			department_id, programme_id, session, level, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		candidate.ID,
		candidate.RegNumber,
		candidate.FirstName,
		candidate.LastName,
		candidate.Email,
		candidate.Phone,
		candidate.DepartmentID,
		candidate.ProgrammeID,
		candidate.Session,
		candidate.Level,
		candidate.CreatedAt,
		candidate.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Candidate, error) {
	var candidate domain.Candidate
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM candidates WHERE id = ? LIMIT 1`,
		id,
	).Scan(&candidate).Error
	if err != nil {
		return nil, err
	}
	if candidate.ID == 0 {
		return nil, nil
	}
	return &candidate, nil
}

func (r *repo) FindByRegNumber(ctx context.Context, db *gorm.DB, regNumber string) (*domain.Candidate, error) {
	var candidate domain.Candidate
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM candidates WHERE reg_number = ? LIMIT 1`,
		regNumber,
	).Scan(&candidate).Error
	if err != nil {
		return nil, err
	}
	if candidate.ID == 0 {
		return nil, nil
	}
	return &candidate, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, candidate *domain.Candidate) error {
	return db.WithContext(ctx).Exec(
		`UPDATE candidates
		 SET first_name = ?, last_name = ?, email = ?, phone = ?,
		     department_id = ?, programme_id = ?, session = ?, level = ?, updated_at = ?
		 WHERE id = ?`,
		candidate.FirstName,
		candidate.LastName,
		candidate.Email,
		candidate.Phone,
		candidate.DepartmentID,
		candidate.ProgrammeID,
		candidate.Session,
		candidate.Level,
		candidate.UpdatedAt,
		candidate.ID,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCandidateFilter, page pagination.Pagination) ([]*domain.Candidate, error) {
	var candidates []*domain.Candidate
	stmt := db.WithContext(ctx).Model(&domain.Candidate{})
	if filter.Session != "" {
		stmt = stmt.Where("session = ?", filter.Session)
	}
	if filter.DepartmentID != nil {
		stmt = stmt.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.RegNumber != "" {
		stmt = stmt.Where("reg_number = ?", filter.RegNumber)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err == nil && cursor.ID != "" {
			stmt = stmt.Where("id < ?", cursor.ID)
		}
	}
	size := page.PageSize
	if size <= 0 {
		size = 20
	}
	err := stmt.
		Order("id desc").
		Limit(size).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
