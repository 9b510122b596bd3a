package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
)

// ClassRepository data access for classes and their mentor assignments.
type ClassRepository interface {
	Create(ctx context.Context, class *model.Class) error
	GetByID(ctx context.Context, id string) (*model.Class, error)
	List(ctx context.Context) ([]model.Class, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]model.Class, error)
	Update(ctx context.Context, class *model.Class) error
	// SetMentors replaces the class's mentor set.
	SetMentors(ctx context.Context, classID string, mentorIDs []string) error
	// GetMentorClass returns the class an employee mentors, if any.
	GetMentorClass(ctx context.Context, employeeID string) (*model.Class, error)
	Delete(ctx context.Context, id string) error
}

type classRepo struct {
	db *gorm.DB
}

// NewClassRepo creates the GORM-backed class repository.
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) Create(ctx context.Context, class *model.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepo) GetByID(ctx context.Context, id string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Mentors").
		Where("class_id = ?", id).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepo) List(ctx context.Context) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Mentors").
		Order("name ASC").
		Find(&classes).Error
	return classes, err
}

func (r *classRepo) ListByDepartment(ctx context.Context, departmentID string) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Order("name ASC").
		Find(&classes).Error
	return classes, err
}

func (r *classRepo) Update(ctx context.Context, class *model.Class) error {
	return r.db.WithContext(ctx).
		Omit("Mentors").
		Save(class).Error
}

func (r *classRepo) SetMentors(ctx context.Context, classID string, mentorIDs []string) error {
	mentors := make([]model.Employee, 0, len(mentorIDs))
	for _, id := range mentorIDs {
		mentors = append(mentors, model.Employee{EmployeeID: id})
	}
	return r.db.WithContext(ctx).
		Model(&model.Class{ClassID: classID}).
		Association("Mentors").
		Replace(mentors)
}

func (r *classRepo) GetMentorClass(ctx context.Context, employeeID string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Preload("Department").
		Joins("JOIN class_mentors ON class_mentors.class_id = classes.class_id").
		Where("class_mentors.employee_id = ?", employeeID).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("class_id = ?", id).
		Delete(&model.Class{}).Error
}
