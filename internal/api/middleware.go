package api

import (
	"time"

	"github.com/gin-gonic/gin"
)

func requestLogger(h *Handlers) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("%s %s -> %d in %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
