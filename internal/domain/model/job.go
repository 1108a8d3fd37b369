package model

import (
	"fmt"
	"time"

	"github.com/okian/talentflow/internal/domain/apperr"
)

// PlanStep is one entry of a job's interview plan. Exactly one of RoundType
// and OutcomeStage is set, matching Kind.
type PlanStep struct {
	Kind         StepKind  `json:"kind"`
	RoundType    RoundType `json:"roundType,omitempty"`
	OutcomeStage Stage     `json:"outcomeStage,omitempty"`
}

// RoundStep builds a ROUND step.
func RoundStep(rt RoundType) PlanStep {
	return PlanStep{Kind: StepRound, RoundType: rt}
}

// OutcomeStep builds an OUTCOME step.
func OutcomeStep(stage Stage) PlanStep {
	return PlanStep{Kind: StepOutcome, OutcomeStage: stage}
}

// Validate checks the step shape.
func (s PlanStep) Validate() error {
	switch {
	case s.RoundType != "" && s.OutcomeStage != "":
		return fmt.Errorf("step carries both roundType and outcomeStage")
	case s.RoundType == "" && s.OutcomeStage == "":
		return fmt.Errorf("step carries neither roundType nor outcomeStage")
	}
	switch s.Kind {
	case StepRound:
		if !s.RoundType.Valid() {
			return fmt.Errorf("ROUND step needs a known roundType, got %q", s.RoundType)
		}
	case StepOutcome:
		if !s.OutcomeStage.Valid() {
			return fmt.Errorf("OUTCOME step needs a known outcomeStage, got %q", s.OutcomeStage)
		}
		if !s.OutcomeStage.Terminal() && s.OutcomeStage != StageOffer {
			return fmt.Errorf("OUTCOME step needs an outcome stage, got %s", s.OutcomeStage)
		}
	default:
		return fmt.Errorf("unknown step kind %q", s.Kind)
	}
	return nil
}

// Job is a hiring requisition.
type Job struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Department           string     `json:"department,omitempty"`
	Description          string     `json:"description,omitempty"`
	CoreResponsibilities []string   `json:"coreResponsibilities,omitempty"`
	RequiredSkills       []string   `json:"requiredSkills,omitempty"`
	InterviewPlan        []PlanStep `json:"interviewPlan"`
	MinExperience        int        `json:"minExperience"`
	MaxExperience        int        `json:"maxExperience"`
	Status               JobStatus  `json:"status"`
	CreatedByID          string     `json:"createdById"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// GetID returns the job id.
func (j Job) GetID() string { return j.ID }

// Validate checks the job definition.
func (j Job) Validate() error {
	fields := map[string]string{}
	if j.Title == "" {
		fields["title"] = "required"
	}
	if len(j.InterviewPlan) == 0 {
		fields["interviewPlan"] = "must have at least one step"
	}
	for i, s := range j.InterviewPlan {
		if err := s.Validate(); err != nil {
			fields[fmt.Sprintf("interviewPlan[%d]", i)] = err.Error()
		}
	}
	if j.MinExperience < 0 {
		fields["minExperience"] = "must not be negative"
	}
	if j.MaxExperience < j.MinExperience {
		fields["maxExperience"] = "must not be below minExperience"
	}
	if !j.Status.Valid() {
		fields["status"] = "unknown value " + quote(string(j.Status))
	}
	if len(fields) > 0 {
		return apperr.Validation("model.Job", fields)
	}
	return nil
}
