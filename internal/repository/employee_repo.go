package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
)

// EmployeeRepository data access for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	GetByEmail(ctx context.Context, email string) (*model.Employee, error)
	List(ctx context.Context) ([]model.Employee, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Employee, error)
	// ListByDepartmentAndRole returns department members of one role,
	// optionally excluding a set of IDs (the resolver excludes mentors).
	ListByDepartmentAndRole(ctx context.Context, departmentID, role string, excludeIDs []string) ([]model.Employee, error)
	ListByRole(ctx context.Context, role string) ([]model.Employee, error)
	CountByDepartmentAndRole(ctx context.Context, departmentID, role string) (int64, error)
	Update(ctx context.Context, employee *model.Employee) error
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo creates the GORM-backed employee repository.
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var employee model.Employee
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("employee_id = ?", id).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepo) GetByEmail(ctx context.Context, email string) (*model.Employee, error) {
	var employee model.Employee
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("email = ?", email).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepo) List(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).
		Preload("Department").
		Order("name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var employees []model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id IN ?", ids).
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) ListByDepartmentAndRole(ctx context.Context, departmentID, role string, excludeIDs []string) ([]model.Employee, error) {
	var employees []model.Employee
	q := r.db.WithContext(ctx).
		Where("department_id = ? AND role = ?", departmentID, role)
	if len(excludeIDs) > 0 {
		q = q.Where("employee_id NOT IN ?", excludeIDs)
	}
	err := q.Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) ListByRole(ctx context.Context, role string) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("role = ?", role).
		Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) CountByDepartmentAndRole(ctx context.Context, departmentID, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Employee{}).
		Where("department_id = ? AND role = ?", departmentID, role).
		Count(&count).Error
	return count, err
}

func (r *employeeRepo) Update(ctx context.Context, employee *model.Employee) error {
	return r.db.WithContext(ctx).Save(employee).Error
}
