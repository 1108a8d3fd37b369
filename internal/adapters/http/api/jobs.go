package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	service "github.com/okian/talentflow/internal/app"
)

func (s *Server) listJobs(c *gin.Context) {
	out, err := s.svc.ListJobs(c.Request.Context(), actorFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) createJob(c *gin.Context) {
	var in service.JobInput
	if err := bindJSON(c, "api.createJob", &in); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.CreateJob(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, out)
}

func (s *Server) getJob(c *gin.Context) {
	out, err := s.svc.GetJob(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) updateJob(c *gin.Context) {
	var patch service.JobPatch
	if err := bindJSON(c, "api.updateJob", &patch); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.UpdateJob(c.Request.Context(), actorFrom(c), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) deleteJob(c *gin.Context) {
	if err := s.svc.DeleteJob(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
