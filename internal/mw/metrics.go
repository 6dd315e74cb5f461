package mw

import (
	"time"

	"github.com/gin-gonic/gin"

	"loco-dispatcher/internal/metrics"
)

// Metrics records request counts and latency by matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(started))
	}
}
