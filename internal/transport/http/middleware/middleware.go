package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradeboard/internal/logger"
	"tradeboard/internal/metrics"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
)

// RequestID 透传或生成请求 ID，并写回响应头。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID 取出当前请求 ID，没有时返回空串。
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// AccessLog 记录每个请求并累加路由维度的计数。m 可以为 nil。
func AccessLog(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveRequest(route, status)
		logger.Debugf("[http] %s %s %d %s rid=%s", c.Request.Method, route, status, time.Since(started), GetRequestID(c))
	}
}
