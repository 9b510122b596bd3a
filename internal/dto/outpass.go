package dto

import "time"

// ApplyOutpassRequest a student's new outpass application. The supporting
// document arrives as a separate multipart part, not in this payload.
type ApplyOutpassRequest struct {
	ReasonCategory   string    `json:"reason_category" form:"reason_category" binding:"required"`
	Reason           string    `json:"reason"          form:"reason"          binding:"required"`
	DateFrom         time.Time `json:"date_from"       form:"date_from"       binding:"required"`
	DateTo           time.Time `json:"date_to"         form:"date_to"         binding:"required"`
	AlternateContact string    `json:"alternate_contact" form:"alternate_contact"`
}

// DecisionRequest an approver's verdict on a pending outpass.
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	// Reason is recorded on rejection; ignored on approval.
	Reason string `json:"reason"`
	// ParentVerified lets faculty explicitly flag a manual parent-contact
	// check, recorded even alongside a rejection. Approval implies it.
	ParentVerified bool `json:"parent_verified"`
}

// OutpassResponse full outpass view.
type OutpassResponse struct {
	ID                    string     `json:"id"`
	Student               *StudentSummary `json:"student,omitempty"`
	ReasonCategory        string     `json:"reason_category"`
	Reason                string     `json:"reason"`
	DateFrom              time.Time  `json:"date_from"`
	DateTo                time.Time  `json:"date_to"`
	ExitTime              string     `json:"exit_time"`   // local wall clock
	ReturnTime            string     `json:"return_time"` // local wall clock
	AlternateContact      string     `json:"alternate_contact,omitempty"`
	SupportingDocumentURL string     `json:"supporting_document_url,omitempty"`
	AttendanceAtApply     float64    `json:"attendance_at_apply"`
	Status                string     `json:"status"`
	FacultyApprover       string     `json:"faculty_approver,omitempty"`
	HodApprover           string     `json:"hod_approver,omitempty"`
	ParentContactVerified bool       `json:"parent_contact_verified"`
	RejectionReason       string     `json:"rejection_reason,omitempty"`
	ExitVerifiedAt        *time.Time `json:"exit_verified_at,omitempty"`
	ReturnVerifiedAt      *time.Time `json:"return_verified_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// StudentSummary the student fields approvers see on a request.
type StudentSummary struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	RollNumber         string  `json:"roll_number"`
	Class              string  `json:"class,omitempty"`
	Department         string  `json:"department,omitempty"`
	ParentName         string  `json:"parent_name,omitempty"`
	PrimaryParentPhone string  `json:"primary_parent_phone,omitempty"`
	Attendance         float64 `json:"attendance_percentage"`
}
