package model

import (
	"github.com/okian/talentflow/internal/domain/apperr"
)

// Stage is a pipeline position.
type Stage string

// Pipeline stages.
const (
	StageApplied      Stage = "APPLIED"
	StageScreening    Stage = "SCREENING"
	StageTechnicalL1  Stage = "TECHNICAL_L1"
	StageTechnicalL2  Stage = "TECHNICAL_L2"
	StageSystemDesign Stage = "SYSTEM_DESIGN"
	StageHR           Stage = "HR"
	StageOffer        Stage = "OFFER"
	StageHired        Stage = "HIRED"
	StageRejected     Stage = "REJECTED"
	StageWithdrawn    Stage = "WITHDRAWN"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageApplied, StageScreening, StageTechnicalL1, StageTechnicalL2,
	StageSystemDesign, StageHR, StageOffer, StageHired, StageRejected, StageWithdrawn,
}

// Valid reports whether s is a recognized stage.
func (s Stage) Valid() bool { return contains(Stages, s) }

// Terminal reports whether s ends the pipeline.
func (s Stage) Terminal() bool {
	return s == StageHired || s == StageRejected || s == StageWithdrawn
}

// ParseStage converts raw input into a Stage.
func ParseStage(raw string) (Stage, error) {
	return parse(raw, Stages, "stage")
}

// RoundType identifies the kind of interview round.
type RoundType string

// Round types.
const (
	RoundScreening    RoundType = "SCREENING"
	RoundTechnicalL1  RoundType = "TECHNICAL_L1"
	RoundTechnicalL2  RoundType = "TECHNICAL_L2"
	RoundSystemDesign RoundType = "SYSTEM_DESIGN"
	RoundHR           RoundType = "HR"
	RoundManagerial   RoundType = "MANAGERIAL"
	RoundCultureFit   RoundType = "CULTURE_FIT"
)

// RoundTypes lists every round type.
var RoundTypes = []RoundType{
	RoundScreening, RoundTechnicalL1, RoundTechnicalL2, RoundSystemDesign,
	RoundHR, RoundManagerial, RoundCultureFit,
}

func (r RoundType) Valid() bool { return contains(RoundTypes, r) }

// ParseRoundType converts raw input into a RoundType.
func ParseRoundType(raw string) (RoundType, error) {
	return parse(raw, RoundTypes, "roundType")
}

// Role is a user's organizational role.
type Role string

// Roles.
const (
	RoleAdmin         Role = "ADMIN"
	RoleRecruiter     Role = "RECRUITER"
	RoleHiringManager Role = "HIRING_MANAGER"
	RoleInterviewer   Role = "INTERVIEWER"
)

// Roles lists every role.
var Roles = []Role{RoleAdmin, RoleRecruiter, RoleHiringManager, RoleInterviewer}

func (r Role) Valid() bool { return contains(Roles, r) }

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	return parse(raw, Roles, "role")
}

// Recommendation is an interviewer's hiring verdict.
type Recommendation string

// Recommendations, strongest first.
const (
	StrongYes Recommendation = "STRONG_YES"
	Yes       Recommendation = "YES"
	No        Recommendation = "NO"
	StrongNo  Recommendation = "STRONG_NO"
)

// Recommendations lists every recommendation.
var Recommendations = []Recommendation{StrongYes, Yes, No, StrongNo}

func (r Recommendation) Valid() bool { return contains(Recommendations, r) }

// Positive reports whether r leans towards hiring.
func (r Recommendation) Positive() bool { return r == StrongYes || r == Yes }

// ParseRecommendation converts raw input into a Recommendation.
func ParseRecommendation(raw string) (Recommendation, error) {
	return parse(raw, Recommendations, "recommendation")
}

// RejectionCategory classifies why a candidate was rejected.
type RejectionCategory string

// Rejection categories.
const (
	RejectTechnicalGap       RejectionCategory = "TECHNICAL_GAP"
	RejectCommunication      RejectionCategory = "COMMUNICATION"
	RejectCultureFit         RejectionCategory = "CULTURE_FIT"
	RejectExperienceMismatch RejectionCategory = "EXPERIENCE_MISMATCH"
	RejectCompensation       RejectionCategory = "COMPENSATION"
	RejectPositionFilled     RejectionCategory = "POSITION_FILLED"
	RejectNoShow             RejectionCategory = "NO_SHOW"
	RejectOther              RejectionCategory = "OTHER"
)

// RejectionCategories lists every rejection category.
var RejectionCategories = []RejectionCategory{
	RejectTechnicalGap, RejectCommunication, RejectCultureFit, RejectExperienceMismatch,
	RejectCompensation, RejectPositionFilled, RejectNoShow, RejectOther,
}

func (c RejectionCategory) Valid() bool { return contains(RejectionCategories, c) }

// ParseRejectionCategory converts raw input into a RejectionCategory.
func ParseRejectionCategory(raw string) (RejectionCategory, error) {
	return parse(raw, RejectionCategories, "category")
}

// JobStatus is a requisition's hiring status.
type JobStatus string

// Job statuses.
const (
	JobOpen   JobStatus = "OPEN"
	JobOnHold JobStatus = "ON_HOLD"
	JobClosed JobStatus = "CLOSED"
)

// JobStatuses lists every job status.
var JobStatuses = []JobStatus{JobOpen, JobOnHold, JobClosed}

func (s JobStatus) Valid() bool { return contains(JobStatuses, s) }

// ParseJobStatus converts raw input into a JobStatus.
func ParseJobStatus(raw string) (JobStatus, error) {
	return parse(raw, JobStatuses, "status")
}

// StepKind distinguishes interview plan steps.
type StepKind string

// Plan step kinds.
const (
	StepRound   StepKind = "ROUND"
	StepOutcome StepKind = "OUTCOME"
)

// SyncStatus is the result of a spreadsheet sync attempt.
type SyncStatus string

// Sync statuses.
const (
	SyncSuccess SyncStatus = "SUCCESS"
	SyncFailed  SyncStatus = "FAILED"
	SyncPending SyncStatus = "PENDING"
)

func contains[T ~string](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func parse[T ~string](raw string, set []T, field string) (T, error) {
	v := T(raw)
	if !contains(set, v) {
		var zero T
		return zero, apperr.Validation("model.Parse", map[string]string{
			field: "unknown value " + quote(raw),
		})
	}
	return v, nil
}

func quote(s string) string { return `"` + s + `"` }
