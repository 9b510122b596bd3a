package repository

import "gorm.io/gorm"

// Repository aggregates every data-access interface.
type Repository struct {
	Outpass    OutpassRepository
	Student    StudentRepository
	Employee   EmployeeRepository
	Class      ClassRepository
	Department DepartmentRepository
	Timetable  TimetableRepository
}

// NewRepository wires the GORM-backed implementations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Outpass:    NewOutpassRepo(db),
		Student:    NewStudentRepo(db),
		Employee:   NewEmployeeRepo(db),
		Class:      NewClassRepo(db),
		Department: NewDepartmentRepo(db),
		Timetable:  NewTimetableRepo(db),
	}
}
