package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/visweshnarni/qptestbackend/pkg/jwt"
	"github.com/visweshnarni/qptestbackend/pkg/redis"
	"github.com/visweshnarni/qptestbackend/pkg/response"
)

// JWTAuth extracts and verifies the access token from
// Authorization: Bearer <token>. rdb may be nil; revocation checks are then
// skipped and tokens stay valid until expiry.
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "token invalid or expired")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "token type invalid")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			// A blacklist lookup failure fails open: blocking every request
			// on a Redis outage is worse than honoring a token that was
			// short-lived to begin with.
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("department_id", claims.DepartmentID)
		// Logout needs these to blacklist the presented token.
		c.Set("token_jti", claims.ID)
		if claims.ExpiresAt != nil {
			c.Set("token_exp", claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth allows the request only when the authenticated role is one of
// allowedRoles.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		userRole := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "insufficient role")
		c.Abort()
	}
}
