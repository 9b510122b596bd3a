package model

// Employee roles.
const (
	RoleFaculty  = "faculty"
	RoleHod      = "hod"
	RoleSecurity = "security"
)

// Actor roles that are not employees.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Employee a staff member. Phone is required; it feeds the voice channel.
type Employee struct {
	EmployeeID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;unique"              json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	EmployeeCode string `gorm:"type:varchar(20);not null;unique"               json:"employee_code"`
	Phone        string `gorm:"type:varchar(20);not null"                      json:"phone"`
	DepartmentID string `gorm:"type:uuid;not null"                             json:"department_id"`
	Role         string `gorm:"type:varchar(20);not null"                      json:"role"` // faculty | hod | security
	BaseModel

	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

func (Employee) TableName() string { return "employees" }
