package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole guards a route group behind one of the allowed roles. The
// role arrives as a header set by the auth gateway; session issuance and
// verification live outside this service.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.GetHeader("X-User-Role")] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "FORBIDDEN", "error": "insufficient role"})
			return
		}
		c.Next()
	}
}
