package middleware

import (
	"context"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	headerXRealIP       = "X-Real-IP"
	headerXForwardedFor = "X-Forwarded-For"
	headerXClientIP     = "X-Client-IP"
)

// GetClientIP 从 Gin Context 中获取客户端真实 IP
// 优先级：X-Real-IP > X-Forwarded-For > X-Client-IP > RemoteAddr
func GetClientIP(c *gin.Context) string {
	if ip := c.GetHeader(headerXRealIP); ip != "" {
		return strings.TrimSpace(ip)
	}

	if xff := c.GetHeader(headerXForwardedFor); xff != "" {
		// 取第一个 IP（原始客户端）
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if ip := c.GetHeader(headerXClientIP); ip != "" {
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	return c.ClientIP()
}

// GetClientIPSafe 安全获取 IP（包含验证）
func GetClientIPSafe(c *gin.Context) (string, bool) {
	ip := GetClientIP(c)
	if ip == "" {
		return "", false
	}
	if net.ParseIP(ip) == nil {
		return "", false
	}
	return ip, true
}

// ClientIPMiddleware 注入 IP 到 Context
func ClientIPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := GetClientIP(c)

		// 注入到 Gin Context
		c.Set("client_ip", ip)

		// 注入到 request context（传递给下游）
		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, "client_ip", ip) //nolint:staticcheck
		*c.Request = *c.Request.WithContext(ctx)

		c.Next()
	}
}
