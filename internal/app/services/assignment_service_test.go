package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
)

var assignmentColumnNames = []string{
	"id", "title", "description", "assigned_to", "assigned_by", "team",
	"status", "priority", "due_date", "created_at", "updated_at",
}

// assignmentRows builds one mock result row for an assignment in team
// alpha, assigned by user 7 to user 3.
func assignmentRows(id int64) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(assignmentColumnNames).AddRow(
		id, "Redline the layout", "", int64(3), int64(7), "alpha",
		models.AssignmentTodo, models.PriorityNormal, nil, now, now,
	)
}

func newAssignmentServiceForTest(t *testing.T, mock pgxmock.PgxPoolIface) AssignmentService {
	t.Helper()
	return NewAssignmentService(
		mock,
		repositories.NewAssignmentRepository(mock),
		repositories.NewUserRepository(mock),
		repositories.NewNotificationRepository(mock),
		nil,
		zerolog.Nop(),
	)
}

func TestAssignmentGetByIDAccess(t *testing.T) {
	tests := []struct {
		name    string
		actor   *models.User
		wantErr error
	}{
		{
			name:  "assignee sees own assignment",
			actor: &models.User{ID: 3, Username: "alice", RoleType: models.RoleUser, Team: "alpha"},
		},
		{
			name:    "uninvolved user is refused",
			actor:   &models.User{ID: 4, Username: "bob", RoleType: models.RoleUser, Team: "alpha"},
			wantErr: apperrors.ErrPermissionDenied,
		},
		{
			name:  "team leader sees team assignment",
			actor: &models.User{ID: 7, Username: "lead", RoleType: models.RoleTeamLeader, Team: "alpha"},
		},
		{
			name:    "leader of another team is refused",
			actor:   &models.User{ID: 8, Username: "other", RoleType: models.RoleTeamLeader, Team: "beta"},
			wantErr: apperrors.ErrPermissionDenied,
		},
		{
			name:  "admin sees everything",
			actor: &models.User{ID: 9, Username: "boss", RoleType: models.RoleAdmin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			svc := newAssignmentServiceForTest(t, mock)

			mock.ExpectQuery("FROM assignments WHERE id").
				WithArgs(int64(11)).
				WillReturnRows(assignmentRows(11))

			assignment, err := svc.GetByID(context.Background(), 11, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(11), assignment.ID)
		})
	}
}

func TestAssignmentGetCommentsRequiresInvolvement(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newAssignmentServiceForTest(t, mock)
	stranger := &models.User{ID: 4, Username: "bob", RoleType: models.RoleUser, Team: "beta"}

	// The comments are never queried for an uninvolved user
	mock.ExpectQuery("FROM assignments WHERE id").
		WithArgs(int64(11)).
		WillReturnRows(assignmentRows(11))

	_, err = svc.GetComments(context.Background(), 11, stranger)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
