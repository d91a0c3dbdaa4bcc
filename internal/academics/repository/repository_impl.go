package repository

import (
	"context"

	"github.com/admitworks/matricula/internal/academics/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertFaculty(ctx context.Context, db *gorm.DB, faculty *domain.Faculty) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO faculties (id, name, code, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		faculty.ID, faculty.Name, faculty.Code, faculty.CreatedAt, faculty.UpdatedAt,
	).Error
}

func (r *repo) ListFaculties(ctx context.Context, db *gorm.DB) ([]*domain.Faculty, error) {
	var faculties []*domain.Faculty
	err := db.WithContext(ctx).Model(&domain.Faculty{}).Order("name asc").Find(&faculties).Error
	return faculties, err
}

func (r *repo) InsertDepartment(ctx context.Context, db *gorm.DB, department *domain.Department) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO departments (id, faculty_id, name, code, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		department.ID, department.FacultyID, department.Name, department.Code,
		department.CreatedAt, department.UpdatedAt,
	).Error
}

func (r *repo) FindDepartment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Department, error) {
	var department domain.Department
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM departments WHERE id = ? LIMIT 1`,
		id,
	).Scan(&department).Error
	if err != nil {
		return nil, err
	}
	if department.ID == 0 {
		return nil, nil
	}
	return &department, nil
}

func (r *repo) ListDepartments(ctx context.Context, db *gorm.DB, facultyID *snowflake.ID) ([]*domain.Department, error) {
	var departments []*domain.Department
	stmt := db.WithContext(ctx).Model(&domain.Department{})
	if facultyID != nil {
		stmt = stmt.Where("faculty_id = ?", *facultyID)
	}
	err := stmt.Order("name asc").Find(&departments).Error
	return departments, err
}

func (r *repo) InsertProgramme(ctx context.Context, db *gorm.DB, programme *domain.Programme) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO programmes (id, department_id, name, degree, duration_years, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		programme.ID, programme.DepartmentID, programme.Name, programme.Degree,
		programme.DurationYrs, programme.CreatedAt, programme.UpdatedAt,
	).Error
}

func (r *repo) ListProgrammes(ctx context.Context, db *gorm.DB, departmentID *snowflake.ID) ([]*domain.Programme, error) {
	var programmes []*domain.Programme
	stmt := db.WithContext(ctx).Model(&domain.Programme{})
	if departmentID != nil {
		stmt = stmt.Where("department_id = ?", *departmentID)
	}
	err := stmt.Order("name asc").Find(&programmes).Error
	return programmes, err
}
