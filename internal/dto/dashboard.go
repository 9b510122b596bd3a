package dto

// FacultyDashboardResponse aggregate view for faculty and mentors.
type FacultyDashboardResponse struct {
	FacultyDetails FacultyDetails    `json:"faculty_details"`
	Stats          FacultyStats      `json:"stats"`
	RecentPending  []OutpassResponse `json:"recent_pending_requests"`
	UrgentAlerts   []UrgentAlert     `json:"urgent_alerts"`
}

// FacultyDetails profile block on the faculty dashboard.
type FacultyDetails struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Department        string `json:"department"`
	Role              string `json:"role"`
	IsMentor          bool   `json:"is_mentor"`
	MentorClass       string `json:"mentor_class,omitempty"`
	ClassStudentCount int64  `json:"class_student_count"`
	DeptStudentCount  int64  `json:"dept_student_count"`
}

// FacultyStats outpass counters for one faculty member.
type FacultyStats struct {
	PendingRequests  int64 `json:"pending_requests"`
	ApprovedRequests int64 `json:"approved_requests"`
	RejectedRequests int64 `json:"rejected_requests"`
}

// HodDashboardResponse aggregate view for an HOD.
type HodDashboardResponse struct {
	HodDetails    HodDetails        `json:"hod_details"`
	Stats         HodStats          `json:"stats"`
	RecentPending []OutpassResponse `json:"recent_pending_approvals"`
	UrgentAlerts  []UrgentAlert     `json:"urgent_alerts"`
}

// HodDetails profile block on the HOD dashboard.
type HodDetails struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Department    string `json:"department"`
	Role          string `json:"role"`
	TotalFaculty  int64  `json:"total_faculty"`
	TotalStudents int64  `json:"total_students"`
}

// HodStats outpass counters for one HOD.
type HodStats struct {
	PendingApprovals int64 `json:"pending_approvals"`
	ApprovedToday    int64 `json:"approved_today"`
	RejectedToday    int64 `json:"rejected_today"`
}

// UrgentAlert an emergency-category request surfaced on dashboards.
type UrgentAlert struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
	Class     string `json:"class,omitempty"`
	CreatedAt string `json:"created_at"`
}
