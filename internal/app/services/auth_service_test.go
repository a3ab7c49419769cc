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
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/auth"
)

func newAuthServiceForTest(t *testing.T, mock pgxmock.PgxPoolIface) AuthService {
	t.Helper()
	return NewAuthService(
		repositories.NewUserRepository(mock),
		repositories.NewTokenRepository(mock),
		nil,
		zerolog.Nop(),
	)
}

// aliceRow builds one mock user row carrying the given password hash.
func aliceRow(hash string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userColumnNames).AddRow(
		int64(3), "alice", "alice@kmtifms.local", hash, "Alice", models.RoleUser, "alpha",
		true, nil, now, now,
	)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	svc := newAuthServiceForTest(t, mock)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(aliceRow(hash))

	err = svc.ChangePassword(context.Background(), 3, &dto.ChangePasswordRequest{
		CurrentPassword: "not my password",
		NewPassword:     "fresh password",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// Nothing was written
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	svc := newAuthServiceForTest(t, mock)

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(aliceRow(hash))
	mock.ExpectExec("UPDATE users SET password").
		WithArgs(pgxmock.AnyArg(), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	err = svc.ChangePassword(context.Background(), 3, &dto.ChangePasswordRequest{
		CurrentPassword: "correct horse",
		NewPassword:     "fresh password",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeExpiredTokens(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newAuthServiceForTest(t, mock)

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := svc.PurgeExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
