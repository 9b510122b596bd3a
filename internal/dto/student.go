package dto

// StudentProfileResponse the student's own profile view.
type StudentProfileResponse struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	RollNumber           string  `json:"roll_number"`
	Phone                string  `json:"phone"`
	Class                string  `json:"class,omitempty"`
	Department           string  `json:"department,omitempty"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

// ApplyDetailsResponse pre-fills the outpass application form.
type ApplyDetailsResponse struct {
	Name                 string  `json:"name"`
	RollNumber           string  `json:"roll_number"`
	Class                string  `json:"class,omitempty"`
	ParentName           string  `json:"parent_name"`
	PrimaryParentPhone   string  `json:"primary_parent_phone"`
	SecondaryParentPhone string  `json:"secondary_parent_phone,omitempty"`
	AttendancePercentage float64 `json:"attendance_percentage"`
	DayEndCutoff         string  `json:"day_end_cutoff"` // latest allowed return, "HH:MM"
}
