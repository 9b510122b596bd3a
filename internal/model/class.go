package model

// Class a student cohort. Mentors are the faculty permanently attached to
// the class; they are notified about every outpass regardless of timetable.
type Class struct {
	ClassID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Year         int    `gorm:"type:smallint;not null"                         json:"year"`
	DepartmentID string `gorm:"type:uuid;not null"                             json:"department_id"`
	BaseModel

	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID"                                                                       json:"department,omitempty"`
	Mentors    []Employee  `gorm:"many2many:class_mentors;foreignKey:ClassID;joinForeignKey:ClassID;references:EmployeeID;joinReferences:EmployeeID" json:"mentors,omitempty"`
}

func (Class) TableName() string { return "classes" }
