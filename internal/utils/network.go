package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP returns the address recorded in the audit trail. X-Real-IP wins when it is
// public, then the first public hop of X-Forwarded-For, then gin's own view.
func ClientIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); isPublicIP(ip) {
		return ip
	}
	for _, hop := range strings.Split(c.GetHeader("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(hop); isPublicIP(ip) {
			return ip
		}
	}
	return c.ClientIP()
}

// UserAgent returns the request's User-Agent header
func UserAgent(c *gin.Context) string {
	return strings.TrimSpace(c.Request.UserAgent())
}

func isPublicIP(raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return false
	}
	return !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() && !ip.IsLinkLocalUnicast()
}
