package service

import (
	"context"
	"net/http"
	"time"

	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/events"
	"github.com/kdh92417/team-tasks/internal/guard"
	"github.com/kdh92417/team-tasks/internal/repository"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// errCompletionTargetMissing is rendered as a bad request on the completion endpoint.
var errCompletionTargetMissing = domain.ErrSubTaskNotFound.WithStatus(http.StatusBadRequest)

// CompletionService marks sub-tasks complete and cascades completion to the
// parent task once no incomplete sub-task remains.
type CompletionService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	now        func() time.Time
}

// CompletionDependencies bundles collaborators.
type CompletionDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
}

// CompletionResult reports the completed sub-task and whether this call
// completed the parent task.
type CompletionResult struct {
	SubTask       *domain.SubTask
	TaskCompleted bool
}

// NewCompletionService creates the service.
func NewCompletionService(deps CompletionDependencies) *CompletionService {
	return &CompletionService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// CompleteSubTask completes a sub-task on behalf of a member of its team.
//
// The parent task row is locked before the sub-task is written, so sibling
// completions are serialized and exactly one of them observes zero remaining
// incomplete sub-tasks. Completing an already complete sub-task changes nothing.
func (s *CompletionService) CompleteSubTask(ctx context.Context, requester *domain.User, subTaskID string) (*CompletionResult, error) {
	subTaskID, ok := canonicalID(subTaskID)
	if !ok {
		return nil, errCompletionTargetMissing
	}

	result := &CompletionResult{}
	var changed bool
	var completedAt time.Time
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		sub, err := repos.SubTasks.GetByID(ctx, subTaskID)
		if err != nil {
			return notFoundAs(err, errCompletionTargetMissing)
		}
		if err := guard.CanCompleteSubTask(requester, sub).Err(); err != nil {
			return err
		}

		if _, err := repos.Tasks.GetByIDForUpdate(ctx, sub.TaskID); err != nil {
			return notFoundAs(err, errCompletionTargetMissing)
		}
		// re-read under the task lock; a sibling or a delete may have won
		sub, err = repos.SubTasks.GetByID(ctx, subTaskID)
		if err != nil {
			return notFoundAs(err, errCompletionTargetMissing)
		}
		result.SubTask = sub
		if sub.IsComplete {
			return nil
		}

		completedAt = s.now().UTC()
		changed, err = repos.SubTasks.MarkComplete(ctx, sub.ID, completedAt)
		if err != nil {
			return err
		}
		if !changed {
			return errCompletionTargetMissing
		}
		sub.IsComplete = true
		sub.CompletedDate = &completedAt

		remaining, err := repos.SubTasks.CountIncomplete(ctx, sub.TaskID)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}
		result.TaskCompleted, err = repos.Tasks.MarkComplete(ctx, sub.TaskID, completedAt)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if changed {
		sub := result.SubTask
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventSubTaskCompleted,
			TaskID:  sub.TaskID,
			Actor:   userActor(requester),
			Payload: events.SubTaskPayload{SubTaskID: sub.ID, TeamID: sub.TeamID},
		})
	}
	if result.TaskCompleted {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:   events.EventTaskCompleted,
			TaskID: result.SubTask.TaskID,
			Actor:  userActor(requester),
			Payload: events.TaskCompletedPayload{
				TriggeredBy:   result.SubTask.ID,
				CompletedDate: completedAt,
			},
		})
	}
	return result, nil
}
