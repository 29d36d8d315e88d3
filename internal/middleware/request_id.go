package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"memshaheb_backend/pkg/logger"
)

const maxRequestIDLen = 128

// RequestID 透传或生成请求 ID，并写回响应头
func RequestID(header string) gin.HandlerFunc {
	if header == "" {
		header = "X-Request-ID"
	}
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(header))
		if id == "" || len(id) > maxRequestIDLen {
			id = strings.ReplaceAll(uuid.NewString(), "-", "")
		}
		c.Set(logger.ContextKeyRequestID, id)
		c.Header(header, id)
		c.Next()
	}
}
