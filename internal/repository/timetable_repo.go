package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/visweshnarni/qptestbackend/internal/model"
)

// TimetableRepository data access for timetable slots. Slots only encode
// teaching availability; they never imply ownership of a class.
type TimetableRepository interface {
	Create(ctx context.Context, slot *model.TimetableSlot) error
	BatchCreate(ctx context.Context, slots []model.TimetableSlot) error
	ListByEmployee(ctx context.Context, employeeID string) ([]model.TimetableSlot, error)
	// ListBusyEmployeeIDs returns which of the given employees have a slot
	// on dayOfWeek overlapping [startHHMM, endHHMM). Half-open overlap:
	// slot.start < end AND slot.end > start. Times are local wall-clock
	// "HH:MM" strings, which compare correctly as text.
	ListBusyEmployeeIDs(ctx context.Context, employeeIDs []string, dayOfWeek int, startHHMM, endHHMM string) ([]string, error)
	DeleteByEmployee(ctx context.Context, employeeID string) error
	Delete(ctx context.Context, id string) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo creates the GORM-backed timetable repository.
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) Create(ctx context.Context, slot *model.TimetableSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *timetableRepo) BatchCreate(ctx context.Context, slots []model.TimetableSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *timetableRepo) ListByEmployee(ctx context.Context, employeeID string) ([]model.TimetableSlot, error) {
	var slots []model.TimetableSlot
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error
	return slots, err
}

func (r *timetableRepo) ListBusyEmployeeIDs(ctx context.Context, employeeIDs []string, dayOfWeek int, startHHMM, endHHMM string) ([]string, error) {
	if len(employeeIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.TimetableSlot{}).
		Distinct("employee_id").
		Where("employee_id IN ? AND day_of_week = ? AND start_time < ? AND end_time > ?",
			employeeIDs, dayOfWeek, endHHMM, startHHMM).
		Pluck("employee_id", &ids).Error
	return ids, err
}

func (r *timetableRepo) DeleteByEmployee(ctx context.Context, employeeID string) error {
	return r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Delete(&model.TimetableSlot{}).Error
}

func (r *timetableRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("slot_id = ?", id).
		Delete(&model.TimetableSlot{}).Error
}
