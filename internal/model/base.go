package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// ── PostgreSQL uuid[] custom type ──

// UUIDArray maps a PostgreSQL uuid[] column, implementing the GORM
// Scanner/Valuer interfaces.
type UUIDArray []string

// Scan parses the {a,b,c} text PostgreSQL returns into a string slice.
func (a *UUIDArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("UUIDArray.Scan: unsupported type %T", src)
	}
	s = strings.Trim(s, "{}")
	if s == "" {
		*a = UUIDArray{}
		return nil
	}
	parts := strings.Split(s, ",")
	arr := make(UUIDArray, 0, len(parts))
	for _, p := range parts {
		arr = append(arr, strings.Trim(strings.TrimSpace(p), `"`))
	}
	*a = arr
	return nil
}

// Value serializes the slice into {a,b,c} text.
func (a UUIDArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// Contains reports whether id is in the array.
func (a UUIDArray) Contains(id string) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// BaseModel common audit columns embedded by every entity.
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
