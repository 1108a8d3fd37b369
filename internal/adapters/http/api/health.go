package api

import (
	"github.com/gin-gonic/gin"
	"github.com/okian/talentflow/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthResponse struct {
	Status      string `json:"status"`
	SyncEnabled bool   `json:"syncEnabled"`
	SyncQueue   int    `json:"syncQueue"`
	SyncWorkers int    `json:"syncWorkers"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(c *gin.Context) {
	st := s.svc.Stats(c.Request.Context())
	status := "ok"
	if !st.Started {
		status = "starting"
	}
	ok(c, healthResponse{
		Status:      status,
		SyncEnabled: st.SyncEnabled,
		SyncQueue:   st.QueueLength,
		SyncWorkers: st.Workers,
	})
}

// handleMetrics serves the custom Prometheus registry.
func handleMetrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}
