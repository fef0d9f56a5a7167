package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"job_messaging/pkg/logger"
)

// RequestLogger пишет access-лог через общий структурный логгер,
// чтобы записи запросов не выбивались из остального вывода сервиса
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("Request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}
