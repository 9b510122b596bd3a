package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/dto"
	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/internal/repository"
)

// StudentService read-side views for the student app.
type StudentService interface {
	Profile(ctx context.Context, studentID string) (*dto.StudentProfileResponse, error)
	// ApplyDetails pre-fills the application form: identity, parent contacts,
	// the attendance snapshot and the latest allowed return time.
	ApplyDetails(ctx context.Context, studentID string) (*dto.ApplyDetailsResponse, error)
}

type studentService struct {
	repo         *repository.Repository
	dayEndCutoff string
}

// NewStudentService creates the student read service.
func NewStudentService(repo *repository.Repository, dayEndCutoff string) StudentService {
	return &studentService{repo: repo, dayEndCutoff: dayEndCutoff}
}

func (s *studentService) Profile(ctx context.Context, studentID string) (*dto.StudentProfileResponse, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentProfileResponse{
		ID:                   student.StudentID,
		Name:                 student.Name,
		Email:                student.Email,
		RollNumber:           student.RollNumber,
		Phone:                student.Phone,
		AttendancePercentage: student.AttendancePercentage,
	}
	if student.Class != nil {
		resp.Class = student.Class.Name
		if student.Class.Department != nil {
			resp.Department = student.Class.Department.Name
		}
	}
	return resp, nil
}

func (s *studentService) ApplyDetails(ctx context.Context, studentID string) (*dto.ApplyDetailsResponse, error) {
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ApplyDetailsResponse{
		Name:                 student.Name,
		RollNumber:           student.RollNumber,
		ParentName:           student.ParentName,
		PrimaryParentPhone:   student.PrimaryParentPhone,
		SecondaryParentPhone: student.SecondaryParentPhone,
		AttendancePercentage: student.AttendancePercentage,
		DayEndCutoff:         s.dayEndCutoff,
	}
	if student.Class != nil {
		resp.Class = student.Class.Name
	}
	return resp, nil
}

func (s *studentService) loadStudent(ctx context.Context, studentID string) (*model.Student, error) {
	student, err := s.repo.Student.GetByIDWithClass(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}
