package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/appointment-api/pkg/httputil"
)

// ErrorExposure lets error responses carry internal detail. Enable outside production only.
func ErrorExposure(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(httputil.ContextExposeErrors, expose)
		c.Next()
	}
}
