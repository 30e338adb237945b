package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/agendalink/gateway/pkg/errors"
)

// ErrorHandler logs every error attached to the context. Handlers have
// already written the response by the time this runs; if one bailed
// without writing, the last error's kind decides the status.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if appErr, ok := errors.AsAppError(lastErr.Err); ok {
			c.JSON(appErr.StatusCode(), gin.H{"status": "error", "message": appErr.Error()})
			return
		}
		c.JSON(500, gin.H{"status": "error", "message": "internal error"})
	}
}
