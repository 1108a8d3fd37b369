package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
)

const actorKey = "actor"

// metricsMiddleware records request counts and latency per route template.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()
		code := strconv.Itoa(status)
		durationMs := float64(time.Since(start).Microseconds()) / 1000

		metrics.RecordHTTPRequest(endpoint, c.Request.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, c.Request.Method, code, durationMs)
		if status >= statusBadRequest {
			metrics.RecordErrorByComponent("http", errorType(status))
		}
	}
}

// errorType returns a standardized error type based on HTTP status code.
func errorType(status int) string {
	switch {
	case status == statusGatewayTimeout:
		return "timeout"
	case status >= statusInternalError:
		return "server_error"
	case status == statusUnauthorized, status == statusForbidden:
		return "auth"
	case status == statusNotFound:
		return "not_found"
	case status >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug(c.Request.Context(), "http",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		)
	}
}

// authMiddleware resolves the bearer token into an actor. Requests without
// a valid session stop here with 401.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		actor, err := s.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Set(actorKey, &actor)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	const op = "api.bearerToken"
	if header == "" {
		return "", apperr.NewKind(op, apperr.ErrUnauthorized, "authorization header is missing")
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", apperr.NewKind(op, apperr.ErrUnauthorized, "invalid authorization header")
	}
	return fields[1], nil
}

// actorFrom returns the actor set by authMiddleware, or nil.
func actorFrom(c *gin.Context) *authz.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	a, _ := v.(*authz.Actor)
	return a
}
