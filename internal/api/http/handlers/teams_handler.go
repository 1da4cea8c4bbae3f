package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kdh92417/team-tasks/internal/api/dto"
	"github.com/kdh92417/team-tasks/internal/service"
)

// TeamsHandler exposes the team directory.
type TeamsHandler struct {
	service *service.TeamService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teamService *service.TeamService) *TeamsHandler {
	return &TeamsHandler{service: teamService}
}

// ListTeams GET /teams.
func (h *TeamsHandler) ListTeams(c *fiber.Ctx) error {
	teams, err := h.service.ListTeams(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.TeamResponse, 0, len(teams))
	for _, team := range teams {
		items = append(items, dto.TeamResponse{ID: team.ID, TeamName: team.Name, IsVerified: team.IsVerified})
	}
	return c.JSON(fiber.Map{"data": items})
}
