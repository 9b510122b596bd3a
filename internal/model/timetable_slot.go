package model

// TimetableSlot one teaching engagement per weekday. Times are local
// wall-clock "HH:MM" strings in the institution timezone, not UTC instants,
// so availability checks compare formatted clock strings. DayOfWeek follows
// time.Weekday: 0 = Sunday.
type TimetableSlot struct {
	SlotID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"slot_id"`
	EmployeeID string `gorm:"type:uuid;not null"                             json:"employee_id"`
	ClassID    string `gorm:"type:uuid;not null"                             json:"class_id"`
	DayOfWeek  int    `gorm:"type:smallint;not null"                         json:"day_of_week"`
	StartTime  string `gorm:"type:varchar(5);not null"                       json:"start_time"` // "09:00"
	EndTime    string `gorm:"type:varchar(5);not null"                       json:"end_time"`   // "10:00"
	BaseModel

	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
	Class    *Class    `gorm:"foreignKey:ClassID;references:ClassID"       json:"class,omitempty"`
}

func (TimetableSlot) TableName() string { return "timetable_slots" }
