package api

import (
	"github.com/gin-gonic/gin"
	service "github.com/okian/talentflow/internal/app"
)

// handleMe returns the resolved actor.
func (s *Server) handleMe(c *gin.Context) {
	ok(c, actorFrom(c))
}

func (s *Server) listUsers(c *gin.Context) {
	out, err := s.svc.ListUsers(c.Request.Context(), actorFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) createUser(c *gin.Context) {
	var in service.UserInput
	if err := bindJSON(c, "api.createUser", &in); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.CreateUser(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, out)
}

func (s *Server) updateUser(c *gin.Context) {
	var patch service.UserPatch
	if err := bindJSON(c, "api.updateUser", &patch); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.UpdateUser(c.Request.Context(), actorFrom(c), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) listInterviewers(c *gin.Context) {
	out, err := s.svc.ListInterviewers(c.Request.Context(), actorFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) listSyncLogs(c *gin.Context) {
	out, err := s.svc.ListSyncLogs(c.Request.Context(), actorFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) forceResync(c *gin.Context) {
	out, err := s.svc.ForceResync(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) resyncFailed(c *gin.Context) {
	out, err := s.svc.ResyncFailed(c.Request.Context(), actorFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}
