package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/dberrors"
)

// TeamService defines the interface for team management operations
type TeamService interface {
	Create(ctx context.Context, req *dto.CreateTeamRequest) (*models.Team, error)
	GetByID(ctx context.Context, id int64) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, id int64, req *dto.UpdateTeamRequest) (*models.Team, error)
	Delete(ctx context.Context, id int64) error
}

// teamServiceImpl implements TeamService
type teamServiceImpl struct {
	teamRepo *repositories.TeamRepository
	userRepo *repositories.UserRepository
	logger   zerolog.Logger
}

// NewTeamService creates a new TeamService
func NewTeamService(teamRepo *repositories.TeamRepository, userRepo *repositories.UserRepository, logger zerolog.Logger) TeamService {
	return &teamServiceImpl{
		teamRepo: teamRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create creates a team. The leader, when given, must exist.
func (s *teamServiceImpl) Create(ctx context.Context, req *dto.CreateTeamRequest) (*models.Team, error) {
	if req.LeaderID != nil {
		if _, err := s.userRepo.GetByID(ctx, *req.LeaderID); err != nil {
			return nil, err
		}
	}

	team := &models.Team{
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    req.LeaderID,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.ErrTeamAlreadyExists
		}
		return nil, err
	}

	s.logger.Info().Str("name", team.Name).Msg("Team created")
	return team, nil
}

// GetByID retrieves a team by ID
func (s *teamServiceImpl) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	return s.teamRepo.GetByID(ctx, id)
}

// List retrieves all teams
func (s *teamServiceImpl) List(ctx context.Context) ([]models.Team, error) {
	return s.teamRepo.GetAll(ctx)
}

// Update patches a team's attributes
func (s *teamServiceImpl) Update(ctx context.Context, id int64, req *dto.UpdateTeamRequest) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.Description != nil {
		team.Description = *req.Description
	}
	if req.LeaderID != nil {
		if _, err := s.userRepo.GetByID(ctx, *req.LeaderID); err != nil {
			return nil, err
		}
		team.LeaderID = req.LeaderID
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return nil, apperrors.ErrTeamAlreadyExists
		}
		return nil, err
	}

	return team, nil
}

// Delete removes a team
func (s *teamServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("teamID", id).Msg("Team deleted")
	return nil
}
