package handlers

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/kdh92417/team-tasks/internal/api/dto"
	"github.com/kdh92417/team-tasks/internal/auth"
	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/service"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

const maxPageSize = 100

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user := auth.UserFromContext(c)
	if user == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return user, nil
}

// parseListOptions reads page and page_size; without page_size everything is returned.
// A page whose offset would not fit in an int is rejected.
func parseListOptions(c *fiber.Ctx) (service.ListOptions, error) {
	pageSize := parseInt(c.Query("page_size"), 0)
	if pageSize <= 0 {
		return service.ListOptions{}, nil
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := parseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	if page-1 > math.MaxInt/pageSize {
		return service.ListOptions{}, apperrors.NewValidationError("page out of range", map[string]any{
			"page":      c.Query("page"),
			"page_size": pageSize,
		})
	}
	return service.ListOptions{Limit: pageSize, Offset: (page - 1) * pageSize}, nil
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func taskResponse(task *domain.Task) dto.TaskResponse {
	subs := make([]dto.SubTaskResponse, 0, len(task.SubTasks))
	for i := range task.SubTasks {
		subs = append(subs, subTaskResponse(&task.SubTasks[i]))
	}
	return dto.TaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Content:       task.Content,
		Team:          task.TeamID,
		CreateUser:    task.CreatorID,
		IsComplete:    task.IsComplete,
		CompletedDate: task.CompletedDate,
		SubTasks:      subs,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

func subTaskResponse(sub *domain.SubTask) dto.SubTaskResponse {
	return dto.SubTaskResponse{
		ID:            sub.ID,
		Task:          sub.TaskID,
		Team:          sub.TeamID,
		IsComplete:    sub.IsComplete,
		CompletedDate: sub.CompletedDate,
		CreatedAt:     sub.CreatedAt,
		UpdatedAt:     sub.UpdatedAt,
	}
}
