// Package workflow defines the file review pipeline. The Status enum is the
// single source of truth; the pipeline stage a file sits in is derived from
// it, so the two persisted columns can never drift apart.
package workflow

import "errors"

// Workflow errors
var (
	ErrInvalidAction = errors.New("invalid review action")
	ErrInvalidStage  = errors.New("file is not in the expected review stage")
	ErrInvalidRole   = errors.New("role cannot review files")
)

// Status is the business status of a file.
type Status string

const (
	StatusUploaded             Status = "uploaded"
	StatusTeamLeaderApproved   Status = "team_leader_approved"
	StatusFinalApproved        Status = "final_approved"
	StatusRejectedByTeamLeader Status = "rejected_by_team_leader"
	StatusRejectedByAdmin      Status = "rejected_by_admin"
)

// Stage is the position of a file in the review pipeline.
type Stage string

const (
	StagePendingTeamLeader    Stage = "pending_team_leader"
	StagePendingAdmin         Stage = "pending_admin"
	StagePublishedToPublic    Stage = "published_to_public"
	StageRejectedByTeamLeader Stage = "rejected_by_team_leader"
	StageRejectedByAdmin      Stage = "rejected_by_admin"
)

// Action is a review decision.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ReviewerRole identifies which pipeline stage an actor reviews.
type ReviewerRole string

const (
	ReviewerTeamLeader ReviewerRole = "TEAM_LEADER"
	ReviewerAdmin      ReviewerRole = "ADMIN"
)

// Stage returns the pipeline stage implied by a status.
func (s Status) Stage() Stage {
	switch s {
	case StatusUploaded:
		return StagePendingTeamLeader
	case StatusTeamLeaderApproved:
		return StagePendingAdmin
	case StatusFinalApproved:
		return StagePublishedToPublic
	case StatusRejectedByTeamLeader:
		return StageRejectedByTeamLeader
	case StatusRejectedByAdmin:
		return StageRejectedByAdmin
	}
	return ""
}

// IsRejection reports whether the status is a rejection outcome.
func (s Status) IsRejection() bool {
	return s == StatusRejectedByTeamLeader || s == StatusRejectedByAdmin
}

// Terminal reports whether no further review action can be applied.
func (s Status) Terminal() bool {
	return s == StatusFinalApproved || s.IsRejection()
}

// ParseAction validates a client-supplied action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionReject:
		return Action(s), nil
	}
	return "", ErrInvalidAction
}

// ExpectedStage returns the stage a reviewer role acts on.
func (r ReviewerRole) ExpectedStage() (Stage, error) {
	switch r {
	case ReviewerTeamLeader:
		return StagePendingTeamLeader, nil
	case ReviewerAdmin:
		return StagePendingAdmin, nil
	}
	return "", ErrInvalidRole
}

// Transition is the outcome of a review action.
type Transition struct {
	FromStage Stage
	Status    Status
	Stage     Stage
}

// transitions maps (role, action) to the resulting status. Stages derive
// from the status, so this table is the whole pipeline.
var transitions = map[ReviewerRole]map[Action]Status{
	ReviewerTeamLeader: {
		ActionApprove: StatusTeamLeaderApproved,
		ActionReject:  StatusRejectedByTeamLeader,
	},
	ReviewerAdmin: {
		ActionApprove: StatusFinalApproved,
		ActionReject:  StatusRejectedByAdmin,
	},
}

// Apply computes the transition a reviewer's action performs on a file
// currently in the given stage. The file must sit exactly in the stage the
// role reviews; anything else is ErrInvalidStage.
func Apply(current Stage, role ReviewerRole, action Action) (Transition, error) {
	expected, err := role.ExpectedStage()
	if err != nil {
		return Transition{}, err
	}
	if current != expected {
		return Transition{}, ErrInvalidStage
	}

	next, ok := transitions[role][action]
	if !ok {
		return Transition{}, ErrInvalidAction
	}

	return Transition{
		FromStage: current,
		Status:    next,
		Stage:     next.Stage(),
	}, nil
}
