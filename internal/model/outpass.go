package model

import "time"

// Outpass lifecycle statuses.
const (
	StatusPendingFaculty = "pending_faculty"
	StatusPendingHod     = "pending_hod"
	StatusApproved       = "approved"
	StatusRejected       = "rejected"
	StatusCancelled      = "cancelled"
	StatusExited         = "exited"
)

// IsTerminalStatus reports whether a status admits no further workflow
// transitions (checkpoint verification excepted).
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled, StatusExited:
		return true
	}
	return false
}

// Outpass a student's request to leave campus during a bounded window.
//
// Rows are never deleted: the record is the audit trail. Each approver
// reference is set at most once, by the transition that consumes the
// corresponding pending status. NotifiedFaculty is populated exactly once at
// creation and never mutated afterwards.
type Outpass struct {
	OutpassID             string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"outpass_id"`
	StudentID             string    `gorm:"type:uuid;not null"                             json:"student_id"`
	ReasonCategory        string    `gorm:"type:varchar(50);not null"                      json:"reason_category"`
	Reason                string    `gorm:"type:text;not null"                             json:"reason"`
	DateFrom              time.Time `gorm:"not null"                                       json:"date_from"`
	DateTo                time.Time `gorm:"not null"                                       json:"date_to"`
	AlternateContact      string    `gorm:"type:varchar(20)"                               json:"alternate_contact,omitempty"`
	SupportingDocumentURL string    `gorm:"type:text"                                      json:"supporting_document_url,omitempty"`
	AttendanceAtApply     float64   `gorm:"type:numeric(5,2);not null"                     json:"attendance_at_apply"`
	Status                string    `gorm:"type:varchar(20);not null;default:'pending_faculty'" json:"status"`

	FacultyApproverID *string `gorm:"type:uuid" json:"faculty_approver_id,omitempty"`
	HodApproverID     *string `gorm:"type:uuid" json:"hod_approver_id,omitempty"`

	ParentContactVerified bool       `gorm:"not null;default:false" json:"parent_contact_verified"`
	ParentVerifiedBy      *string    `gorm:"type:uuid"              json:"parent_verified_by,omitempty"`
	ParentVerifiedAt      *time.Time `json:"parent_verified_at,omitempty"`

	RejectionReason string    `gorm:"type:text"                       json:"rejection_reason,omitempty"`
	NotifiedFaculty UUIDArray `gorm:"type:uuid[];not null;default:'{}'" json:"notified_faculty"`

	ExitVerifiedBy   *string    `gorm:"type:uuid" json:"exit_verified_by,omitempty"`
	ExitVerifiedAt   *time.Time `json:"exit_verified_at,omitempty"`
	ReturnVerifiedBy *string    `gorm:"type:uuid" json:"return_verified_by,omitempty"`
	ReturnVerifiedAt *time.Time `json:"return_verified_at,omitempty"`

	BaseModel

	Student         *Student  `gorm:"foreignKey:StudentID;references:StudentID"          json:"student,omitempty"`
	FacultyApprover *Employee `gorm:"foreignKey:FacultyApproverID;references:EmployeeID" json:"faculty_approver,omitempty"`
	HodApprover     *Employee `gorm:"foreignKey:HodApproverID;references:EmployeeID"     json:"hod_approver,omitempty"`
}

func (Outpass) TableName() string { return "outpasses" }
