package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyTransitionTable(t *testing.T) {
	tests := []struct {
		name       string
		stage      Stage
		role       ReviewerRole
		action     Action
		wantStatus Status
		wantStage  Stage
	}{
		{
			name:       "team leader approve",
			stage:      StagePendingTeamLeader,
			role:       ReviewerTeamLeader,
			action:     ActionApprove,
			wantStatus: StatusTeamLeaderApproved,
			wantStage:  StagePendingAdmin,
		},
		{
			name:       "team leader reject",
			stage:      StagePendingTeamLeader,
			role:       ReviewerTeamLeader,
			action:     ActionReject,
			wantStatus: StatusRejectedByTeamLeader,
			wantStage:  StageRejectedByTeamLeader,
		},
		{
			name:       "admin approve",
			stage:      StagePendingAdmin,
			role:       ReviewerAdmin,
			action:     ActionApprove,
			wantStatus: StatusFinalApproved,
			wantStage:  StagePublishedToPublic,
		},
		{
			name:       "admin reject",
			stage:      StagePendingAdmin,
			role:       ReviewerAdmin,
			action:     ActionReject,
			wantStatus: StatusRejectedByAdmin,
			wantStage:  StageRejectedByAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Apply(tt.stage, tt.role, tt.action)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, tr.Status)
			require.Equal(t, tt.wantStage, tr.Stage)
			require.Equal(t, tt.stage, tr.FromStage)
			// the new stage must always be the one the new status implies
			require.Equal(t, tr.Status.Stage(), tr.Stage)
		})
	}
}

func TestApplyRejectsWrongStage(t *testing.T) {
	// team leader cannot act once the file moved past their stage
	for _, stage := range []Stage{StagePendingAdmin, StagePublishedToPublic, StageRejectedByTeamLeader, StageRejectedByAdmin} {
		_, err := Apply(stage, ReviewerTeamLeader, ActionApprove)
		require.ErrorIs(t, err, ErrInvalidStage, "stage %s", stage)
	}

	// admin review is strict as well: only pending_admin is reviewable
	for _, stage := range []Stage{StagePendingTeamLeader, StagePublishedToPublic, StageRejectedByAdmin} {
		_, err := Apply(stage, ReviewerAdmin, ActionReject)
		require.ErrorIs(t, err, ErrInvalidStage, "stage %s", stage)
	}
}

func TestApplyRejectsUnknownActionAndRole(t *testing.T) {
	_, err := Apply(StagePendingTeamLeader, ReviewerTeamLeader, Action("publish"))
	require.ErrorIs(t, err, ErrInvalidAction)

	_, err = Apply(StagePendingTeamLeader, ReviewerRole("USER"), ActionApprove)
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("approve")
	require.NoError(t, err)
	require.Equal(t, ActionApprove, a)

	a, err = ParseAction("reject")
	require.NoError(t, err)
	require.Equal(t, ActionReject, a)

	_, err = ParseAction("Approve")
	require.ErrorIs(t, err, ErrInvalidAction)
	_, err = ParseAction("")
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestStatusStageDerivation(t *testing.T) {
	require.Equal(t, StagePendingTeamLeader, StatusUploaded.Stage())
	require.Equal(t, StagePendingAdmin, StatusTeamLeaderApproved.Stage())
	require.Equal(t, StagePublishedToPublic, StatusFinalApproved.Stage())
	require.Equal(t, StageRejectedByTeamLeader, StatusRejectedByTeamLeader.Stage())
	require.Equal(t, StageRejectedByAdmin, StatusRejectedByAdmin.Stage())
}

func TestTerminalAndRejection(t *testing.T) {
	require.True(t, StatusFinalApproved.Terminal())
	require.True(t, StatusRejectedByTeamLeader.Terminal())
	require.True(t, StatusRejectedByAdmin.Terminal())
	require.False(t, StatusUploaded.Terminal())
	require.False(t, StatusTeamLeaderApproved.Terminal())

	require.True(t, StatusRejectedByAdmin.IsRejection())
	require.False(t, StatusFinalApproved.IsRejection())
}
