package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin s'utilise après AuthRequired.
func RequireAdmin(c *gin.Context) {
	if !IsAdmin(c) {
		abort(c, http.StatusForbidden, "admin access required")
		return
	}
	c.Next()
}
