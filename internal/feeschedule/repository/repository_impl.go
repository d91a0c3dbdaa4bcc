package repository

import (
	"context"

	"github.com/admitworks/matricula/internal/feeschedule/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, schedule *domain.FeeSchedule) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fee_schedules (
			id, purpose, session, department_id, level, amount, currency, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		schedule.ID,
		schedule.Purpose,
		schedule.Session,
		schedule.DepartmentID,
		schedule.Level,
		schedule.Amount,
		schedule.Currency,
		schedule.Active,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, schedule *domain.FeeSchedule) error {
	return db.WithContext(ctx).Exec(
		`UPDATE fee_schedules
		 SET purpose = ?, session = ?, department_id = ?, level = ?,
		     amount = ?, currency = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		schedule.Purpose,
		schedule.Session,
		schedule.DepartmentID,
		schedule.Level,
		schedule.Amount,
		schedule.Currency,
		schedule.Active,
		schedule.UpdatedAt,
		schedule.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.FeeSchedule, error) {
	var schedule domain.FeeSchedule
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM fee_schedules WHERE id = ? LIMIT 1`,
		id,
	).Scan(&schedule).Error
	if err != nil {
		return nil, err
	}
	if schedule.ID == 0 {
		return nil, nil
	}
	return &schedule, nil
}

// FindMatches returns every active row that could apply to the filter.
// A row matches when its department and level are either unset or equal
// to the candidate's. Ranking happens in the service.
func (r *repo) FindMatches(ctx context.Context, db *gorm.DB, filter domain.MatchFilter) ([]*domain.FeeSchedule, error) {
	var schedules []*domain.FeeSchedule
	stmt := db.WithContext(ctx).
		Model(&domain.FeeSchedule{}).
		Where("purpose = ? AND session = ? AND active = ?", filter.Purpose, filter.Session, true)

	if filter.DepartmentID != nil {
		stmt = stmt.Where("department_id IS NULL OR department_id = ?", *filter.DepartmentID)
	} else {
		stmt = stmt.Where("department_id IS NULL")
	}
	if filter.Level != "" {
		stmt = stmt.Where("level = '' OR level = ?", filter.Level)
	} else {
		stmt = stmt.Where("level = ''")
	}

	if err := stmt.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.FeeSchedule, error) {
	var schedules []*domain.FeeSchedule
	stmt := db.WithContext(ctx).Model(&domain.FeeSchedule{})
	if filter.Purpose != "" {
		stmt = stmt.Where("purpose = ?", filter.Purpose)
	}
	if filter.Session != "" {
		stmt = stmt.Where("session = ?", filter.Session)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	if err := stmt.Order("id desc").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
