// Package api exposes the pipeline use-cases over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	service "github.com/okian/talentflow/internal/app"
	"github.com/okian/talentflow/internal/domain/authz"
	"github.com/okian/talentflow/pkg/logger"
)

// ActorResolver turns a bearer token into the acting user.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (authz.Actor, error)
}

// Server wires HTTP routes to the pipeline service.
type Server struct {
	svc      *service.Service
	resolver ActorResolver
	log      logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a Server.
func NewServer(svc *service.Service, resolver ActorResolver, opts ...Option) *Server {
	s := &Server{svc: svc, resolver: resolver, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), metricsMiddleware())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", handleMetrics())

	v1 := r.Group("/api/v1")
	v1.Use(s.authMiddleware())
	{
		v1.GET("/me", s.handleMe)

		v1.GET("/candidates", s.listCandidates)
		v1.POST("/candidates", s.createCandidate)
		v1.GET("/candidates/:id", s.getCandidate)
		v1.PATCH("/candidates/:id", s.updateCandidate)
		v1.DELETE("/candidates/:id", s.deleteCandidate)
		v1.PUT("/candidates/:id/stage", s.updateStage)
		v1.POST("/candidates/:id/rounds", s.scheduleRound)
		v1.GET("/candidates/:id/rounds/next", s.nextPendingRound)
		v1.POST("/candidates/:id/rounds/:round/feedback", s.submitFeedback)
		v1.GET("/candidates/:id/feedback", s.feedbackSummary)
		v1.POST("/candidates/:id/rejection", s.rejectCandidate)

		v1.GET("/pipeline/summary", s.pipelineSummary)
		v1.GET("/pipeline/stalled", s.stalledCandidates)

		v1.GET("/jobs", s.listJobs)
		v1.POST("/jobs", s.createJob)
		v1.GET("/jobs/:id", s.getJob)
		v1.PATCH("/jobs/:id", s.updateJob)
		v1.DELETE("/jobs/:id", s.deleteJob)

		v1.GET("/users", s.listUsers)
		v1.POST("/users", s.createUser)
		v1.PATCH("/users/:id", s.updateUser)
		v1.GET("/interviewers", s.listInterviewers)

		v1.GET("/rejections", s.listRejections)
		v1.GET("/sync-logs", s.listSyncLogs)
		v1.POST("/sync-logs/retry-failed", s.resyncFailed)
		v1.POST("/sync-logs/:id/retry", s.forceResync)
	}
	return r
}
