package server

import (
	// Go Internal Packages
	"net/http"
	"time"

	// External Packages
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", fields...)
		case c.Request.URL.Path == "/metrics":
			logger.Debug("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// recovery turns a panicking handler into the usual failure envelope.
func recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("handler panicked", zap.Any("panic", rec), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
