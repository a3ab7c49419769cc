package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	appModels "github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	appRepos "github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/dberrors"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@kmtifms.local"
	defaultAdminPassword = "Admin123!"
	defaultTeamName      = "General"
)

// CreateDefaultData creates the default team and admin account if they
// don't exist. Errors are collected rather than aborting startup.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)
	teamRepo := appRepos.NewTeamRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data (admin account and team)...")
	var finalErr error

	// --- Default Team --- //
	team := &appModels.Team{Name: defaultTeamName, Description: "Default team for new accounts"}
	if err := teamRepo.Create(ctx, team); err != nil && !dberrors.IsUniqueViolation(err) {
		lgr.Error().Err(err).Msg("Error creating default team")
		finalErr = errors.Join(finalErr, err)
	}

	// --- Default Admin User --- //
	exists, err := userRepo.UsernameExists(ctx, defaultAdminUsername)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return errors.Join(finalErr, err)
	}
	if exists {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return finalErr
	}

	lgr.Info().Msg("Creating default admin user...")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return errors.Join(finalErr, err)
	}

	admin := &appModels.User{
		Username: defaultAdminUsername,
		Email:    defaultAdminEmail,
		Password: string(hashedPassword),
		FullName: "System Administrator",
		RoleType: appModels.RoleAdmin,
		IsActive: true,
	}

	if err := userRepo.Create(ctx, admin); err != nil {
		if dberrors.IsUniqueViolation(err) {
			lgr.Info().Msg("Admin user already exists, skipping creation")
		} else {
			lgr.Error().Err(err).Msg("Error creating admin user")
			finalErr = errors.Join(finalErr, err)
		}
	} else {
		lgr.Info().Int64("adminID", admin.ID).Msg("Default admin user created successfully")
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
