package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vogiaan1904/dealview-tracker/internal/service"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
	"github.com/vogiaan1904/dealview-tracker/pkg/response"
)

const (
	requestIDHeader = "X-Request-ID"
	adminSubjectKey = "admin_subject"
)

// RequestLogger tags the request context logger with a request id and logs
// every finished request at a level derived from its status.
func RequestLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		ctx := logger.WithFields(c.Request.Context(), l, "request_id", requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			l.Errorf(ctx, "HTTP %s %s - status: %d, latency: %s", c.Request.Method, c.Request.URL.Path, status, latency)
		case status >= 400:
			l.Warnf(ctx, "HTTP %s %s - status: %d, latency: %s", c.Request.Method, c.Request.URL.Path, status, latency)
		default:
			l.Debugf(ctx, "HTTP %s %s - status: %d, latency: %s", c.Request.Method, c.Request.URL.Path, status, latency)
		}
	}
}

// RequireAdmin accepts only requests carrying a valid admin bearer token.
func RequireAdmin(authSvc service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Error(c, errMissingToken)
			return
		}

		claims, err := authSvc.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			response.Error(c, errTokenInvalid)
			return
		}

		c.Set(adminSubjectKey, claims.Subject)
		c.Next()
	}
}
