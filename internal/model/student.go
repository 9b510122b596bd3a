package model

// Student an enrolled student. The primary parent phone is mandatory; the
// faculty approver attests it was reachable before forwarding a request.
type Student struct {
	StudentID            string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	Name                 string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email                string  `gorm:"type:varchar(255);not null;unique"              json:"email"`
	PasswordHash         string  `gorm:"type:varchar(255);not null"                     json:"-"`
	RollNumber           string  `gorm:"type:varchar(20);not null;unique"               json:"roll_number"`
	Phone                string  `gorm:"type:varchar(20);not null"                      json:"phone"`
	ParentName           string  `gorm:"type:varchar(100);not null"                     json:"parent_name"`
	PrimaryParentPhone   string  `gorm:"type:varchar(20);not null"                      json:"primary_parent_phone"`
	SecondaryParentPhone string  `gorm:"type:varchar(20)"                               json:"secondary_parent_phone,omitempty"`
	ClassID              string  `gorm:"type:uuid;not null"                             json:"class_id"`
	AttendancePercentage float64 `gorm:"type:numeric(5,2);not null;default:100"         json:"attendance_percentage"`
	BaseModel

	Class *Class `gorm:"foreignKey:ClassID;references:ClassID" json:"class,omitempty"`
}

func (Student) TableName() string { return "students" }
