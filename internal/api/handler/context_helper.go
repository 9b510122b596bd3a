package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/pkg/response"
)

// MustGetUserID extracts user_id from the Gin context. Writes a 401 and
// returns false when the auth middleware did not inject it; callers return
// immediately on ok=false.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetRole extracts role from the Gin context.
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetDepartmentID extracts department_id from the Gin context. An empty
// value is legal for roles without a department.
func MustGetDepartmentID(c *gin.Context) (string, bool) {
	v, exists := c.Get("department_id")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// tokenIdentity extracts the presented token's ID and expiry for logout.
func tokenIdentity(c *gin.Context) (string, time.Time, bool) {
	jtiVal, ok := c.Get("token_jti")
	if !ok {
		return "", time.Time{}, false
	}
	jti, ok := jtiVal.(string)
	if !ok || jti == "" {
		return "", time.Time{}, false
	}
	expVal, ok := c.Get("token_exp")
	if !ok {
		return "", time.Time{}, false
	}
	exp, ok := expVal.(time.Time)
	if !ok {
		return "", time.Time{}, false
	}
	return jti, exp, true
}
