package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roombooking/internal/pkg/jwt"
	"roombooking/internal/pkg/response"
)

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}
		if !allowed[role] {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffOnly admits staff and admins.
func StaffOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleStaff, jwt.RoleAdmin)
}

func IsStaff(role string) bool {
	return role == jwt.RoleStaff || role == jwt.RoleAdmin
}
