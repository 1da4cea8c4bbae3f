package service

import (
	"context"

	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/repository"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// TeamService exposes the read-only team directory.
type TeamService struct {
	teams repository.TeamRepository
}

// NewTeamService creates the service.
func NewTeamService(teams repository.TeamRepository) *TeamService {
	return &TeamService{teams: teams}
}

// ListTeams returns every team ordered by name.
func (s *TeamService) ListTeams(ctx context.Context) ([]domain.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if teams == nil {
		return []domain.Team{}, nil
	}
	return teams, nil
}
