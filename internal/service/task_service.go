package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/events"
	"github.com/kdh92417/team-tasks/internal/guard"
	"github.com/kdh92417/team-tasks/internal/repository"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// TaskService coordinates task creation, delegation, reads and guarded mutations.
type TaskService struct {
	store      repository.Store
	dispatcher events.Dispatcher
}

// TaskDependencies bundles collaborators for the task service.
type TaskDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	Title   string
	Content string
	TeamIDs []string
}

// TaskUpdateInput carries the amendable fields; nil means unchanged.
type TaskUpdateInput struct {
	Title   *string
	Content *string
}

// ListOptions paginates listings. A zero Limit returns everything.
type ListOptions struct {
	Limit  int
	Offset int
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTask persists a task owned by the creator's team together with one
// sub-task per target team. Nothing is persisted unless every team is valid.
func (s *TaskService) CreateTask(ctx context.Context, creator *domain.User, input TaskCreateInput) (*domain.Task, error) {
	if err := guard.CanCreateTask(creator).Err(); err != nil {
		return nil, err
	}
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}
	content, err := normalizeContent(input.Content)
	if err != nil {
		return nil, err
	}
	teamIDs, err := normalizeTeamIDs(input.TeamIDs)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		CreatorID: creator.ID,
		TeamID:    *creator.TeamID,
		Title:     title,
		Content:   content,
	}

	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		teams, err := repos.Teams.GetByIDs(ctx, teamIDs)
		if err != nil {
			return err
		}
		byID := make(map[string]domain.Team, len(teams))
		for _, team := range teams {
			byID[team.ID] = team
		}
		for _, id := range teamIDs {
			team, ok := byID[id]
			if !ok {
				return domain.ErrTeamNotFound.WithDetails(map[string]any{"team_id": id})
			}
			if !team.IsVerified {
				return domain.ErrUnverifiedTeamAssignment.WithDetails(map[string]any{"team_id": id})
			}
		}

		if err := repos.Tasks.Create(ctx, task); err != nil {
			return err
		}
		for _, id := range teamIDs {
			sub := &domain.SubTask{TaskID: task.ID, TeamID: id}
			if err := repos.SubTasks.Create(ctx, sub); err != nil {
				return subTaskInsertError(err, id)
			}
			task.SubTasks = append(task.SubTasks, *sub)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	subIDs := make([]string, 0, len(task.SubTasks))
	for _, sub := range task.SubTasks {
		subIDs = append(subIDs, sub.ID)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:   events.EventTaskCreated,
		TaskID: task.ID,
		Actor:  userActor(creator),
		Payload: events.TaskCreatedPayload{
			TeamID:     task.TeamID,
			Title:      task.Title,
			SubTaskIDs: subIDs,
			TeamIDs:    teamIDs,
		},
	})
	return task, nil
}

// AddSubTask delegates an existing task to one more team.
func (s *TaskService) AddSubTask(ctx context.Context, requester *domain.User, taskID, teamID string) (*domain.SubTask, error) {
	taskID, ok := canonicalID(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	rawTeamID := teamID
	teamID, ok = canonicalID(teamID)
	if !ok {
		return nil, domain.ErrTeamNotFound.WithDetails(map[string]any{"team_id": rawTeamID})
	}

	var sub *domain.SubTask
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		task, err := repos.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return notFoundAs(err, domain.ErrTaskNotFound)
		}
		if err := guard.CanAddSubTask(requester, task).Err(); err != nil {
			return err
		}

		team, err := repos.Teams.GetByID(ctx, teamID)
		if err != nil {
			return notFoundAs(err, domain.ErrTeamNotFound.WithDetails(map[string]any{"team_id": teamID}))
		}
		if !team.IsVerified {
			return domain.ErrUnverifiedTeamAssignment.WithDetails(map[string]any{"team_id": teamID})
		}

		existing, err := repos.SubTasks.ListByTask(ctx, task.ID)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.TeamID == teamID {
				return domain.ErrDuplicateAssignment.WithDetails(map[string]any{"team_id": teamID})
			}
		}

		sub = &domain.SubTask{TaskID: task.ID, TeamID: team.ID}
		if err := repos.SubTasks.Create(ctx, sub); err != nil {
			return subTaskInsertError(err, teamID)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventSubTaskAdded,
		TaskID:  sub.TaskID,
		Actor:   userActor(requester),
		Payload: events.SubTaskPayload{SubTaskID: sub.ID, TeamID: sub.TeamID},
	})
	return sub, nil
}

// UpdateTask amends title and/or content. Completion fields are never touched.
func (s *TaskService) UpdateTask(ctx context.Context, requester *domain.User, taskID string, input TaskUpdateInput) (*domain.Task, error) {
	taskID, ok := canonicalID(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	var changed []string
	var task *domain.Task
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		task, err = repos.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return notFoundAs(err, domain.ErrTaskNotFound)
		}
		if err := guard.CanUpdateTask(requester, task).Err(); err != nil {
			return err
		}

		if input.Title != nil {
			title, err := normalizeTitle(*input.Title)
			if err != nil {
				return err
			}
			task.Title = title
			changed = append(changed, "title")
		}
		if input.Content != nil {
			content, err := normalizeContent(*input.Content)
			if err != nil {
				return err
			}
			task.Content = content
			changed = append(changed, "content")
		}
		if len(changed) > 0 {
			if err := repos.Tasks.UpdateContent(ctx, task); err != nil {
				return err
			}
		}

		task.SubTasks, err = repos.SubTasks.ListByTask(ctx, task.ID)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if len(changed) > 0 {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventTaskUpdated,
			TaskID:  task.ID,
			Actor:   userActor(requester),
			Payload: events.TaskUpdatedPayload{Fields: changed},
		})
	}
	return task, nil
}

// DeleteTask removes a task and, through the foreign key, its sub-tasks.
func (s *TaskService) DeleteTask(ctx context.Context, requester *domain.User, taskID string) error {
	taskID, ok := canonicalID(taskID)
	if !ok {
		return domain.ErrTaskNotFound
	}
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		task, err := repos.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return notFoundAs(err, domain.ErrTaskNotFound)
		}
		if err := guard.CanDeleteTask(requester, task).Err(); err != nil {
			return err
		}
		return notFoundAs(repos.Tasks.Delete(ctx, task.ID), domain.ErrTaskNotFound)
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:   events.EventTaskDeleted,
		TaskID: taskID,
		Actor:  userActor(requester),
	})
	return nil
}

// DeleteSubTask removes an incomplete sub-task. It never completes the parent,
// even when the removed sub-task was the last incomplete one.
func (s *TaskService) DeleteSubTask(ctx context.Context, requester *domain.User, taskID, subTaskID string) error {
	taskID, ok := canonicalID(taskID)
	if !ok {
		return domain.ErrTaskNotFound
	}
	subTaskID, ok = canonicalID(subTaskID)
	if !ok {
		return domain.ErrSubTaskNotFound
	}

	var sub *domain.SubTask
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		task, err := repos.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return notFoundAs(err, domain.ErrTaskNotFound)
		}
		sub, err = repos.SubTasks.GetByID(ctx, subTaskID)
		if err != nil {
			return notFoundAs(err, domain.ErrSubTaskNotFound)
		}
		if sub.TaskID != task.ID {
			return domain.ErrSubTaskNotFound
		}
		if err := guard.CanDeleteSubTask(requester, task, sub).Err(); err != nil {
			return err
		}
		return notFoundAs(repos.SubTasks.Delete(ctx, sub.ID), domain.ErrSubTaskNotFound)
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventSubTaskDeleted,
		TaskID:  taskID,
		Actor:   userActor(requester),
		Payload: events.SubTaskPayload{SubTaskID: sub.ID, TeamID: sub.TeamID},
	})
	return nil
}

// ListVisibleTasks returns the tasks owned by or delegated to the user's team,
// each with its sub-tasks. Tasks and sub-tasks are read from one snapshot.
func (s *TaskService) ListVisibleTasks(ctx context.Context, user *domain.User, opts ListOptions) ([]domain.Task, error) {
	if !user.HasTeam() {
		return []domain.Task{}, nil
	}

	var tasks []domain.Task
	err := s.store.ReadSnapshot(ctx, func(repos repository.Repositories) error {
		var err error
		tasks, err = repos.Tasks.ListVisibleToTeam(ctx, *user.TeamID, opts.Limit, opts.Offset)
		if err != nil || len(tasks) == 0 {
			return err
		}

		ids := make([]string, 0, len(tasks))
		index := make(map[string]int, len(tasks))
		for i, task := range tasks {
			ids = append(ids, task.ID)
			index[task.ID] = i
			tasks[i].SubTasks = []domain.SubTask{}
		}
		subs, err := repos.SubTasks.ListByTasks(ctx, ids)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if i, ok := index[sub.TaskID]; ok {
				tasks[i].SubTasks = append(tasks[i].SubTasks, sub)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tasks == nil {
		return []domain.Task{}, nil
	}
	return tasks, nil
}

// GetVisibleTask returns one task with its sub-tasks. Tasks the user cannot
// see are reported as not found.
func (s *TaskService) GetVisibleTask(ctx context.Context, user *domain.User, taskID string) (*domain.Task, error) {
	taskID, ok := canonicalID(taskID)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}

	var task *domain.Task
	err := s.store.ReadSnapshot(ctx, func(repos repository.Repositories) error {
		var err error
		task, err = repos.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return notFoundAs(err, domain.ErrTaskNotFound)
		}
		task.SubTasks, err = repos.SubTasks.ListByTask(ctx, task.ID)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := guard.CanViewTask(user, task).Err(); err != nil {
		return nil, err
	}
	return task, nil
}

// ListSubTasks returns the sub-tasks of a visible task.
func (s *TaskService) ListSubTasks(ctx context.Context, user *domain.User, taskID string) ([]domain.SubTask, error) {
	task, err := s.GetVisibleTask(ctx, user, taskID)
	if err != nil {
		return nil, err
	}
	if task.SubTasks == nil {
		return []domain.SubTask{}, nil
	}
	return task.SubTasks, nil
}

// GetSubTask returns one sub-task of a visible task.
func (s *TaskService) GetSubTask(ctx context.Context, user *domain.User, taskID, subTaskID string) (*domain.SubTask, error) {
	task, err := s.GetVisibleTask(ctx, user, taskID)
	if err != nil {
		return nil, err
	}
	subTaskID, ok := canonicalID(subTaskID)
	if !ok {
		return nil, domain.ErrSubTaskNotFound
	}
	for i := range task.SubTasks {
		if task.SubTasks[i].ID == subTaskID {
			return &task.SubTasks[i], nil
		}
	}
	return nil, domain.ErrSubTaskNotFound
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > domain.TitleMaxLength {
		return "", domain.ErrInvalidTitle
	}
	return title, nil
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.NewValidationError("content is required", nil)
	}
	return content, nil
}

func normalizeTeamIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, domain.ErrNoTeamsSpecified
	}
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, ok := canonicalID(raw)
		if !ok {
			return nil, domain.ErrTeamNotFound.WithDetails(map[string]any{"team_id": raw})
		}
		if _, dup := seen[id]; dup {
			return nil, domain.ErrDuplicateTeamAssignment.WithDetails(map[string]any{"team_id": id})
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}
