package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
)

// DepartmentRepository data access for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, department *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, department *model.Department) error
	Delete(ctx context.Context, id string) error
}

type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo creates the GORM-backed department repository.
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, department *model.Department) error {
	return r.db.WithContext(ctx).Create(department).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var department model.Department
	err := r.db.WithContext(ctx).
		Preload("Hod").
		Where("department_id = ?", id).
		First(&department).Error
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	var departments []model.Department
	err := r.db.WithContext(ctx).
		Preload("Hod").
		Order("name ASC").
		Find(&departments).Error
	return departments, err
}

func (r *departmentRepo) Update(ctx context.Context, department *model.Department) error {
	return r.db.WithContext(ctx).Save(department).Error
}

func (r *departmentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("department_id = ?", id).
		Delete(&model.Department{}).Error
}
