package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kdh92417/team-tasks/internal/api/dto"
	"github.com/kdh92417/team-tasks/internal/service"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// SubTasksHandler manages sub-task endpoints, including completion.
type SubTasksHandler struct {
	tasks      *service.TaskService
	completion *service.CompletionService
}

// NewSubTasksHandler constructs handler.
func NewSubTasksHandler(tasks *service.TaskService, completion *service.CompletionService) *SubTasksHandler {
	return &SubTasksHandler{tasks: tasks, completion: completion}
}

// ListSubTasks GET /tasks/:task_id/sub-tasks.
func (h *SubTasksHandler) ListSubTasks(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	subs, err := h.tasks.ListSubTasks(c.UserContext(), user, c.Params("task_id"))
	if err != nil {
		return err
	}
	items := make([]dto.SubTaskResponse, 0, len(subs))
	for i := range subs {
		items = append(items, subTaskResponse(&subs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSubTask GET /tasks/:task_id/sub-tasks/:id.
func (h *SubTasksHandler) GetSubTask(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	sub, err := h.tasks.GetSubTask(c.UserContext(), user, c.Params("task_id"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": subTaskResponse(sub)})
}

// AddSubTask POST /tasks/:task_id/sub-tasks.
func (h *SubTasksHandler) AddSubTask(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateSubTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Team) == "" {
		return apperrors.NewValidationError("team required", nil)
	}
	sub, err := h.tasks.AddSubTask(c.UserContext(), user, c.Params("task_id"), strings.TrimSpace(req.Team))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": subTaskResponse(sub)})
}

// DeleteSubTask DELETE /tasks/:task_id/sub-tasks/:id.
func (h *SubTasksHandler) DeleteSubTask(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.tasks.DeleteSubTask(c.UserContext(), user, c.Params("task_id"), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// CompleteSubTask POST /sub-tasks/:id/completion.
func (h *SubTasksHandler) CompleteSubTask(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	res, err := h.completion.CompleteSubTask(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.CompletionResponse{
		Message:       "sub-task completed",
		Data:          subTaskResponse(res.SubTask),
		TaskCompleted: res.TaskCompleted,
	})
}
