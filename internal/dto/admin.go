package dto

// CreateDepartmentRequest new department.
type CreateDepartmentRequest struct {
	Name  string `json:"name" binding:"required"`
	HodID string `json:"hod_id"`
}

// CreateClassRequest new class with its mentor set.
type CreateClassRequest struct {
	Name         string   `json:"name"          binding:"required"`
	Year         int      `json:"year"          binding:"required"`
	DepartmentID string   `json:"department_id" binding:"required"`
	MentorIDs    []string `json:"mentor_ids"`
}

// SetMentorsRequest replaces a class's mentors.
type SetMentorsRequest struct {
	MentorIDs []string `json:"mentor_ids" binding:"required"`
}

// CreateEmployeeRequest new staff account.
type CreateEmployeeRequest struct {
	Name         string `json:"name"          binding:"required"`
	Email        string `json:"email"         binding:"required,email"`
	Password     string `json:"password"      binding:"required,min=8"`
	EmployeeCode string `json:"employee_code" binding:"required"`
	Phone        string `json:"phone"         binding:"required"`
	DepartmentID string `json:"department_id" binding:"required"`
	Role         string `json:"role"          binding:"required,oneof=faculty hod security"`
}

// CreateStudentRequest new student account.
type CreateStudentRequest struct {
	Name                 string  `json:"name"                 binding:"required"`
	Email                string  `json:"email"                binding:"required,email"`
	Password             string  `json:"password"             binding:"required,min=8"`
	RollNumber           string  `json:"roll_number"          binding:"required"`
	Phone                string  `json:"phone"                binding:"required"`
	ParentName           string  `json:"parent_name"          binding:"required"`
	PrimaryParentPhone   string  `json:"primary_parent_phone" binding:"required"`
	SecondaryParentPhone string  `json:"secondary_parent_phone"`
	ClassID              string  `json:"class_id"             binding:"required"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// CreateTimetableSlotRequest one teaching slot.
type CreateTimetableSlotRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	ClassID    string `json:"class_id"    binding:"required"`
	DayOfWeek  int    `json:"day_of_week" binding:"min=0,max=6"`
	StartTime  string `json:"start_time"  binding:"required"` // "HH:MM"
	EndTime    string `json:"end_time"    binding:"required"` // "HH:MM"
}

// ImportTimetableRequest replaces an employee's slots from an ICS calendar.
type ImportTimetableRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	ClassID    string `json:"class_id"    binding:"required"`
	ICSContent string `json:"ics_content"`
	ICSURL     string `json:"ics_url"`
}
