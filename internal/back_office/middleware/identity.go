package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/microfin-loan-office/internal/domain/loan"
)

const (
	// UserIDHeader carries the acting user's ID, set by the auth proxy
	UserIDHeader = "X-User-ID"

	// UserRoleHeader carries the acting user's role, set by the auth proxy
	UserRoleHeader = "X-User-Role"

	// UserIDKey is the key used to store the user ID in the context
	UserIDKey = "user_id"

	// UserRoleKey is the key used to store the user role in the context
	UserRoleKey = "user_role"
)

// Identity middleware extracts the acting user's ID and role from request
// headers. Requests without a parseable user ID are rejected; an absent or
// unknown role falls through as-is and is gated downstream by the lifecycle
// rules, which only unlock mutating actions for ADMIN.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		idHeader := c.GetHeader(UserIDHeader)
		userID, err := uuid.Parse(idHeader)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing or invalid " + UserIDHeader + " header",
				},
			})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, loan.Role(c.GetHeader(UserRoleHeader)))

		c.Next()
	}
}

// GetUserID retrieves the acting user's ID from the gin context
func GetUserID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(UserIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetUserRole retrieves the acting user's role from the gin context
func GetUserRole(c *gin.Context) loan.Role {
	if v, exists := c.Get(UserRoleKey); exists {
		if role, ok := v.(loan.Role); ok {
			return role
		}
	}
	return ""
}
