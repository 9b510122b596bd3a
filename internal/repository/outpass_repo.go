package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
	"github.com/visweshnarni/qptestbackend/pkg/apperrors"
)

// OutpassRepository data access for outpass records. Records are created and
// mutated, never deleted: the table is the audit trail.
type OutpassRepository interface {
	Create(ctx context.Context, outpass *model.Outpass) error
	GetByID(ctx context.Context, id string) (*model.Outpass, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Outpass, error)
	// GetActiveByStudent returns the student's most recent non-terminal (or
	// approved-but-unexited) pass, if any.
	GetActiveByStudent(ctx context.Context, studentID string) (*model.Outpass, error)
	// ListPendingByDepartment returns passes in the given status whose
	// student belongs to the department, newest first.
	ListPendingByDepartment(ctx context.Context, status, departmentID string, limit int) ([]model.Outpass, error)
	// CountByStatusAndDepartment counts passes in a status scoped to a
	// department. Every guard and sweep goes through here rather than any
	// cached figure.
	CountByStatusAndDepartment(ctx context.Context, status, departmentID string) (int64, error)
	CountNotifiedPending(ctx context.Context, employeeID string) (int64, error)
	CountDecidedByFaculty(ctx context.Context, facultyID, status string) (int64, error)
	CountDecidedByHodSince(ctx context.Context, hodID, status string, since time.Time) (int64, error)
	ListDecidedByEmployee(ctx context.Context, employeeID string) ([]model.Outpass, error)
	ListEmergencyPending(ctx context.Context, statuses []string, departmentID string, limit int) ([]model.Outpass, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]model.Outpass, error)

	// TransitionStatus performs the atomic guarded status update: the row is
	// mutated only if its persisted status still equals fromStatus. The
	// guard check and the write are a single UPDATE, so of concurrent
	// transitions on one pass exactly one succeeds; the rest get
	// apperrors.ErrStatusConflict.
	TransitionStatus(ctx context.Context, id, fromStatus string, updates map[string]interface{}) error
}

type outpassRepo struct {
	db *gorm.DB
}

// NewOutpassRepo creates the GORM-backed outpass repository.
func NewOutpassRepo(db *gorm.DB) OutpassRepository {
	return &outpassRepo{db: db}
}

func (r *outpassRepo) Create(ctx context.Context, outpass *model.Outpass) error {
	return r.db.WithContext(ctx).Create(outpass).Error
}

func (r *outpassRepo) GetByID(ctx context.Context, id string) (*model.Outpass, error) {
	var outpass model.Outpass
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.Class").
		Preload("Student.Class.Department").
		Preload("FacultyApprover").
		Preload("HodApprover").
		Where("outpass_id = ?", id).
		First(&outpass).Error
	if err != nil {
		return nil, err
	}
	return &outpass, nil
}

func (r *outpassRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Outpass, error) {
	var outpasses []model.Outpass
	err := r.db.WithContext(ctx).
		Preload("FacultyApprover").
		Preload("HodApprover").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&outpasses).Error
	return outpasses, err
}

func (r *outpassRepo) GetActiveByStudent(ctx context.Context, studentID string) (*model.Outpass, error) {
	var outpass model.Outpass
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status IN ?", studentID,
			[]string{model.StatusPendingFaculty, model.StatusPendingHod, model.StatusApproved, model.StatusExited}).
		Order("created_at DESC").
		First(&outpass).Error
	if err != nil {
		return nil, err
	}
	return &outpass, nil
}

// departmentScope joins out to the student's class so passes can be filtered
// by department.
func departmentScope(db *gorm.DB, departmentID string) *gorm.DB {
	return db.
		Joins("JOIN students ON students.student_id = outpasses.student_id").
		Joins("JOIN classes ON classes.class_id = students.class_id").
		Where("classes.department_id = ?", departmentID)
}

func (r *outpassRepo) ListPendingByDepartment(ctx context.Context, status, departmentID string, limit int) ([]model.Outpass, error) {
	var outpasses []model.Outpass
	q := departmentScope(r.db.WithContext(ctx).Model(&model.Outpass{}), departmentID).
		Preload("Student").
		Preload("Student.Class").
		Preload("Student.Class.Department").
		Preload("FacultyApprover").
		Where("outpasses.status = ?", status).
		Order("outpasses.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&outpasses).Error
	return outpasses, err
}

func (r *outpassRepo) CountByStatusAndDepartment(ctx context.Context, status, departmentID string) (int64, error) {
	var count int64
	err := departmentScope(r.db.WithContext(ctx).Model(&model.Outpass{}), departmentID).
		Where("outpasses.status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *outpassRepo) CountNotifiedPending(ctx context.Context, employeeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Outpass{}).
		Where("status = ? AND ? = ANY(notified_faculty)", model.StatusPendingFaculty, employeeID).
		Count(&count).Error
	return count, err
}

func (r *outpassRepo) CountDecidedByFaculty(ctx context.Context, facultyID, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Outpass{}).
		Where("faculty_approver_id = ? AND status = ?", facultyID, status).
		Count(&count).Error
	return count, err
}

func (r *outpassRepo) CountDecidedByHodSince(ctx context.Context, hodID, status string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Outpass{}).
		Where("hod_approver_id = ? AND status = ? AND updated_at >= ?", hodID, status, since).
		Count(&count).Error
	return count, err
}

func (r *outpassRepo) ListDecidedByEmployee(ctx context.Context, employeeID string) ([]model.Outpass, error) {
	var outpasses []model.Outpass
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.Class").
		Where("faculty_approver_id = ? OR hod_approver_id = ?", employeeID, employeeID).
		Order("created_at DESC").
		Find(&outpasses).Error
	return outpasses, err
}

func (r *outpassRepo) ListEmergencyPending(ctx context.Context, statuses []string, departmentID string, limit int) ([]model.Outpass, error) {
	var outpasses []model.Outpass
	q := departmentScope(r.db.WithContext(ctx).Model(&model.Outpass{}), departmentID).
		Preload("Student").
		Preload("Student.Class").
		Where("outpasses.reason_category ILIKE ? AND outpasses.status IN ?", "emergency", statuses).
		Order("outpasses.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&outpasses).Error
	return outpasses, err
}

func (r *outpassRepo) ListByDepartment(ctx context.Context, departmentID string) ([]model.Outpass, error) {
	var outpasses []model.Outpass
	err := departmentScope(r.db.WithContext(ctx).Model(&model.Outpass{}), departmentID).
		Preload("Student").
		Preload("Student.Class").
		Preload("FacultyApprover").
		Preload("HodApprover").
		Order("outpasses.created_at DESC").
		Find(&outpasses).Error
	return outpasses, err
}

func (r *outpassRepo) TransitionStatus(ctx context.Context, id, fromStatus string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.Outpass{}).
		Where("outpass_id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrStatusConflict
	}
	return nil
}
