package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pullpipe/errors"
	"github.com/kbukum/pullpipe/logger"
)

// Recovery returns a Gin middleware that recovers from handler panics, logs
// the stack and answers with an INTERNAL_ERROR body when nothing was written
// yet.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if v := recover(); v != nil {
				log.Error("Panic recovered", map[string]any{
					logger.FieldError: fmt.Sprintf("%v", v),
					"stack":           string(debug.Stack()),
					logger.FieldPath:  c.Request.URL.Path,
					"method":          c.Request.Method,
					"client_ip":       c.ClientIP(),
				})
				if c.Writer.Written() {
					c.Abort()
					return
				}
				appErr := apperrors.Internal(fmt.Errorf("panic: %v", v))
				c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			}
		}()
		c.Next()
	}
}
