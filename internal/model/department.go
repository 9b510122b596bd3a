package model

// Department an academic department; HodID points at its head once assigned.
type Department struct {
	DepartmentID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Name         string  `gorm:"type:varchar(100);not null;unique"              json:"name"`
	HodID        *string `gorm:"type:uuid"                                      json:"hod_id,omitempty"`
	BaseModel

	Hod *Employee `gorm:"foreignKey:HodID;references:EmployeeID" json:"hod,omitempty"`
}

func (Department) TableName() string { return "departments" }
