package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
)

// StudentRepository data access for students.
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	// GetByIDWithClass loads the student together with class, mentors and
	// department, the shape the target resolver needs.
	GetByIDWithClass(ctx context.Context, id string) (*model.Student, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	CountByClass(ctx context.Context, classID string) (int64, error)
	CountByDepartment(ctx context.Context, departmentID string) (int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo creates the GORM-backed student repository.
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("Class").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByIDWithClass(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("Class").
		Preload("Class.Mentors").
		Preload("Class.Department").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("Class").
		Preload("Class.Department").
		Where("email = ?", email).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) List(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Preload("Class").
		Order("roll_number ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepo) CountByClass(ctx context.Context, classID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).
		Where("class_id = ?", classID).
		Count(&count).Error
	return count, err
}

func (r *studentRepo) CountByDepartment(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).
		Joins("JOIN classes ON classes.class_id = students.class_id").
		Where("classes.department_id = ?", departmentID).
		Count(&count).Error
	return count, err
}
