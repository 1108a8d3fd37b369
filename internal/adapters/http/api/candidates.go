package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	service "github.com/okian/talentflow/internal/app"
	"github.com/okian/talentflow/internal/domain/model"
)

const defaultStalledAfter = 7 * 24 * time.Hour

// bindJSON decodes the request body into v.
func bindJSON(c *gin.Context, op string, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return badRequest(op, "body", fmt.Errorf("%w: %v", ErrBadRequest, err))
	}
	return nil
}

func candidateFilter(c *gin.Context) (service.CandidateFilter, error) {
	f := service.CandidateFilter{JobID: c.Query("jobId")}
	if raw := c.Query("stage"); raw != "" {
		stage, err := model.ParseStage(strings.ToUpper(raw))
		if err != nil {
			return f, err
		}
		f.Stage = stage
	}
	return f, nil
}

// listCandidates handles GET /candidates. view=lean returns summaries.
func (s *Server) listCandidates(c *gin.Context) {
	f, err := candidateFilter(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if c.Query("view") == "lean" {
		out, err := s.svc.ListCandidateSummaries(ctx, actorFrom(c), f)
		if err != nil {
			s.fail(c, err)
			return
		}
		ok(c, out)
		return
	}
	out, err := s.svc.ListCandidates(ctx, actorFrom(c), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

// createCandidate handles POST /candidates. A multipart body carries the
// form as JSON in the "candidate" field and an optional "resume" file.
func (s *Server) createCandidate(c *gin.Context) {
	const op = "api.createCandidate"
	var (
		in     service.CandidateInput
		upload *service.Upload
	)

	if c.ContentType() == "multipart/form-data" {
		if raw := c.PostForm("candidate"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &in); err != nil {
				s.fail(c, badRequest(op, "candidate", fmt.Errorf("%w: %v", ErrBadRequest, err)))
				return
			}
		}
		fh, err := c.FormFile("resume")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			s.fail(c, badRequest(op, "resume", fmt.Errorf("%w: %v", ErrBadRequest, err)))
			return
		default:
			f, err := fh.Open()
			if err != nil {
				s.fail(c, badRequest(op, "resume", fmt.Errorf("%w: %v", ErrBadRequest, err)))
				return
			}
			defer f.Close()
			upload = &service.Upload{Filename: fh.Filename, Body: f}
		}
	} else if err := bindJSON(c, op, &in); err != nil {
		s.fail(c, err)
		return
	}

	out, err := s.svc.CreateCandidate(c.Request.Context(), actorFrom(c), in, upload)
	if err != nil {
		s.fail(c, err)
		return
	}
	created(c, out)
}

func (s *Server) getCandidate(c *gin.Context) {
	out, err := s.svc.GetCandidate(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) updateCandidate(c *gin.Context) {
	var patch service.CandidatePatch
	if err := bindJSON(c, "api.updateCandidate", &patch); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.UpdateCandidate(c.Request.Context(), actorFrom(c), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) deleteCandidate(c *gin.Context) {
	if err := s.svc.DeleteCandidate(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type stageRequest struct {
	Stage model.Stage `json:"stage"`
}

func (s *Server) updateStage(c *gin.Context) {
	var req stageRequest
	if err := bindJSON(c, "api.updateStage", &req); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.svc.UpdateStage(c.Request.Context(), actorFrom(c), c.Param("id"), req.Stage)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func (s *Server) pipelineSummary(c *gin.Context) {
	out, err := s.svc.PipelineSummary(c.Request.Context(), actorFrom(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

// stalledCandidates handles GET /pipeline/stalled?olderThan=72h.
func (s *Server) stalledCandidates(c *gin.Context) {
	limit := defaultStalledAfter
	if raw := c.Query("olderThan"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			s.fail(c, badRequest("api.stalledCandidates", "olderThan", fmt.Errorf("%w: %v", ErrBadParam, err)))
			return
		}
		limit = d
	}
	out, err := s.svc.StalledCandidates(c.Request.Context(), actorFrom(c), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, out)
}

func roundParam(c *gin.Context) (int, error) {
	n, err := strconv.Atoi(c.Param("round"))
	if err != nil || n < 1 {
		return 0, badRequest("api.roundParam", "round", fmt.Errorf("%w: round must be a positive integer", ErrBadParam))
	}
	return n, nil
}
