package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"boltnexus/utils"
)

// Context keys set by AuthMiddleware
const (
	ContextStaffID = "staff_id"
	ContextEmail   = "email"
	ContextRole    = "role"
)

// AuthMiddleware validates staff tokens and extracts the caller's identity
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := utils.ParseStaffToken(secret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		staffID, _ := claims.StaffID()

		c.Set(ContextStaffID, staffID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RoleAuthMiddleware validates user roles
func RoleAuthMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		userRole, _ := role.(string)
		for _, r := range roles {
			if r == userRole {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
	}
}

func TechnicianAuthMiddleware() gin.HandlerFunc {
	return RoleAuthMiddleware(utils.RoleAdmin, utils.RoleTechnician)
}

// StaffID returns the authenticated technician or admin id, if any
func StaffID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextStaffID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
