package api

import (
	"github.com/gin-gonic/gin"
	service "github.com/okian/talentflow/internal/app"
	"github.com/okian/talentflow/internal/domain/interview"
	"github.com/okian/talentflow/internal/domain/rejection"
)

func (s *Server) scheduleRound(c *gin.Context) {
	var in service.RoundInput
	if err := bindJSON(c, "api.scheduleRound", &in); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.ScheduleRound(c.Request.Context(), actorFrom(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, out)
}

func (s *Server) submitFeedback(c *gin.Context) {
	round, err := roundParam(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var in interview.FeedbackInput
	if err := bindJSON(c, "api.submitFeedback", &in); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.SubmitFeedback(c.Request.Context(), actorFrom(c), c.Param("id"), round, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

// nextPendingRound answers null when the caller has nothing to review.
func (s *Server) nextPendingRound(c *gin.Context) {
	out, err := s.svc.NextPendingRound(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) feedbackSummary(c *gin.Context) {
	out, err := s.svc.FeedbackSummary(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) rejectCandidate(c *gin.Context) {
	var in rejection.Input
	if err := bindJSON(c, "api.rejectCandidate", &in); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.RejectCandidate(c.Request.Context(), actorFrom(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) listRejections(c *gin.Context) {
	out, err := s.svc.ListRejections(c.Request.Context(), actorFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}
