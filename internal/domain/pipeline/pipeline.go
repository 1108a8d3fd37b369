// Package pipeline validates stage changes and summarizes the board.
//
// Any recognized stage is reachable from any other. Recruiters use backward
// moves to revert mis-clicks, so no ordering graph is imposed here; moves
// against pipeline order are only marked so callers can log them.
package pipeline

import (
	"sort"
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
	"github.com/okian/talentflow/internal/domain/model"
)

// Change is an accepted stage move.
type Change struct {
	From model.Stage
	To   model.Stage
	// Noop is set when To equals From. Callers skip the write and keep
	// StageUpdatedAt untouched.
	Noop bool
	// Backward is set when both stages are on the APPLIED..HIRED track and
	// To comes before From, or when a WITHDRAWN candidate is reactivated.
	Backward bool
}

// progress returns the position of s on the APPLIED..HIRED track, or -1.
func progress(s model.Stage) int {
	for i, st := range model.Stages {
		if st == s && st != model.StageRejected && st != model.StageWithdrawn {
			return i
		}
	}
	return -1
}

func backward(from, to model.Stage) bool {
	if from == model.StageWithdrawn {
		return to != model.StageWithdrawn
	}
	f, t := progress(from), progress(to)
	return f >= 0 && t >= 0 && t < f
}

// ValidateStageChange checks a requested move. Only ADMIN and RECRUITER may
// call it; the caller authorizes.
func ValidateStageChange(c model.Candidate, requested model.Stage) (Change, error) {
	if !requested.Valid() {
		return Change{}, apperr.Validation("pipeline.ValidateStageChange", map[string]string{
			"stage": "unknown value \"" + string(requested) + "\"",
		})
	}
	if requested == model.StageRejected && c.CurrentStage != model.StageRejected {
		return Change{}, apperr.Validation("pipeline.ValidateStageChange", map[string]string{
			"stage": "use the rejection workflow to reject a candidate",
		})
	}
	if c.CurrentStage == model.StageRejected && requested != model.StageRejected {
		return Change{}, apperr.NewKind("pipeline.ValidateStageChange", apperr.ErrConflict,
			"candidate %s is rejected", c.ID)
	}
	return Change{
		From:     c.CurrentStage,
		To:       requested,
		Noop:     c.CurrentStage == requested,
		Backward: backward(c.CurrentStage, requested),
	}, nil
}

// Apply writes change into c and stamps StageUpdatedAt.
func Apply(c *model.Candidate, change Change, now time.Time) {
	if change.Noop {
		return
	}
	c.CurrentStage = change.To
	c.StageUpdatedAt = now
	c.UpdatedAt = now
}

// StageStat aggregates the candidates in one stage.
type StageStat struct {
	Stage        model.Stage   `json:"stage"`
	Count        int           `json:"count"`
	AverageDwell time.Duration `json:"averageDwell"`
	OldestDwell  time.Duration `json:"oldestDwell"`
}

// Summary is the dashboard view of the whole pipeline.
type Summary struct {
	Total       int         `json:"total"`
	Active      int         `json:"active"`
	Stages      []StageStat `json:"stages"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// Summarize counts candidates per stage and their dwell times.
// Soft-deleted candidates are skipped.
func Summarize(candidates []model.Candidate, now time.Time) Summary {
	type acc struct {
		count  int
		total  time.Duration
		oldest time.Duration
	}
	byStage := make(map[model.Stage]*acc, len(model.Stages))
	sum := Summary{GeneratedAt: now}

	for _, c := range candidates {
		if c.Deleted() {
			continue
		}
		sum.Total++
		if !c.CurrentStage.Terminal() {
			sum.Active++
		}
		a := byStage[c.CurrentStage]
		if a == nil {
			a = &acc{}
			byStage[c.CurrentStage] = a
		}
		d := c.Dwell(now)
		a.count++
		a.total += d
		if d > a.oldest {
			a.oldest = d
		}
	}

	for _, s := range model.Stages {
		st := StageStat{Stage: s}
		if a := byStage[s]; a != nil {
			st.Count = a.count
			st.AverageDwell = a.total / time.Duration(a.count)
			st.OldestDwell = a.oldest
		}
		sum.Stages = append(sum.Stages, st)
	}
	return sum
}

// Stalled returns active candidates whose dwell exceeds limit, longest first.
func Stalled(candidates []model.Candidate, now time.Time, limit time.Duration) []model.CandidateSummary {
	out := make([]model.CandidateSummary, 0)
	for _, c := range candidates {
		if c.Deleted() || c.CurrentStage.Terminal() || c.Dwell(now) <= limit {
			continue
		}
		out = append(out, c.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StageUpdatedAt.Before(out[j].StageUpdatedAt)
	})
	return out
}
