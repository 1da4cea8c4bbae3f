// Package guard decides who may create, modify, delete or complete tasks and
// sub-tasks. Every check is a pure function of the actor and the resource.
package guard

import (
	"github.com/kdh92417/team-tasks/internal/domain"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
	err     *apperrors.DomainError
}

// Err returns nil for allowed decisions and the denial error otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.err == nil {
		return apperrors.NewForbidden("access denied")
	}
	return d.err
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(err *apperrors.DomainError) Decision {
	return Decision{Reason: err.Message, err: err}
}

// CanCreateTask requires the creator to belong to a team.
func CanCreateTask(actor *domain.User) Decision {
	if !actor.HasTeam() {
		return deny(domain.ErrMissingCreatorTeam)
	}
	return allow()
}

// CanUpdateTask allows only the creator to amend title and content.
func CanUpdateTask(actor *domain.User, task *domain.Task) Decision {
	if !task.IsCreatedBy(actor) {
		return deny(domain.ErrNotCreator)
	}
	return allow()
}

// CanDeleteTask allows only the creator to delete a task.
func CanDeleteTask(actor *domain.User, task *domain.Task) Decision {
	if !task.IsCreatedBy(actor) {
		return deny(domain.ErrNotCreator)
	}
	return allow()
}

// CanAddSubTask allows only the creator to delegate an existing task to
// another team, and only while the task is incomplete.
func CanAddSubTask(actor *domain.User, task *domain.Task) Decision {
	if !task.IsCreatedBy(actor) {
		return deny(domain.ErrNotCreator)
	}
	if task.IsComplete {
		return deny(domain.ErrTaskAlreadyComplete)
	}
	return allow()
}

// CanDeleteSubTask allows the parent task's creator to delete an incomplete sub-task.
func CanDeleteSubTask(actor *domain.User, task *domain.Task, sub *domain.SubTask) Decision {
	if !task.IsCreatedBy(actor) {
		return deny(domain.ErrForbidden)
	}
	if sub.IsComplete {
		return deny(domain.ErrCannotDeleteCompleted)
	}
	return allow()
}

// CanCompleteSubTask allows only members of the assigned team.
func CanCompleteSubTask(actor *domain.User, sub *domain.SubTask) Decision {
	if !actor.InTeam(sub.TeamID) {
		return deny(domain.ErrNotAssignedTeam)
	}
	return allow()
}

// CanViewTask allows members of the owning team and of any assigned team.
// The task's sub-tasks must be loaded.
func CanViewTask(actor *domain.User, task *domain.Task) Decision {
	if !task.VisibleTo(actor) {
		return deny(domain.ErrTaskNotFound)
	}
	return allow()
}
