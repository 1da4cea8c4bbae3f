package domain

import (
	"net/http"

	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

var (
	ErrMissingCreatorTeam = apperrors.NewDomainError(apperrors.KindValidation, "MISSING_CREATOR_TEAM",
		"creator does not belong to a team", http.StatusBadRequest, nil)
	ErrNoTeamsSpecified = apperrors.NewDomainError(apperrors.KindValidation, "NO_TEAMS_SPECIFIED",
		"at least one team must be assigned a sub-task", http.StatusBadRequest, nil)
	ErrDuplicateTeamAssignment = apperrors.NewDomainError(apperrors.KindValidation, "DUPLICATE_TEAM_ASSIGNMENT",
		"a team cannot be assigned the same task twice", http.StatusBadRequest, nil)
	ErrUnverifiedTeamAssignment = apperrors.NewDomainError(apperrors.KindValidation, "UNVERIFIED_TEAM_ASSIGNMENT",
		"sub-tasks can only be assigned to verified teams", http.StatusBadRequest, nil)
	ErrTeamNotFound = apperrors.NewDomainError(apperrors.KindValidation, "TEAM_NOT_FOUND",
		"team does not exist", http.StatusBadRequest, nil)
	ErrInvalidTitle = apperrors.NewDomainError(apperrors.KindValidation, "INVALID_TITLE",
		"title must be between 1 and 100 characters", http.StatusBadRequest, nil)

	ErrNotCreator = apperrors.NewDomainError(apperrors.KindAuthorization, "NOT_CREATOR",
		"only the task creator can do this", http.StatusForbidden, nil)
	ErrForbidden = apperrors.NewDomainError(apperrors.KindAuthorization, "FORBIDDEN",
		"only the task creator can delete its sub-tasks", http.StatusForbidden, nil)
	ErrNotAssignedTeam = apperrors.NewDomainError(apperrors.KindAuthorization, "NOT_ASSIGNED_TEAM",
		"only the assigned team can complete this sub-task", http.StatusBadRequest, nil)

	ErrCannotDeleteCompleted = apperrors.NewDomainError(apperrors.KindState, "CANNOT_DELETE_COMPLETED",
		"completed sub-tasks cannot be deleted", http.StatusBadRequest, nil)
	ErrTaskAlreadyComplete = apperrors.NewDomainError(apperrors.KindState, "TASK_ALREADY_COMPLETE",
		"sub-tasks cannot be added to a completed task", http.StatusBadRequest, nil)

	ErrDuplicateAssignment = apperrors.NewDomainError(apperrors.KindIntegrity, "DUPLICATE_ASSIGNMENT",
		"team is already assigned to this task", http.StatusBadRequest, nil)

	ErrTaskNotFound = apperrors.NewDomainError(apperrors.KindNotFound, "TASK_NOT_FOUND",
		"task not found", http.StatusNotFound, nil)
	ErrSubTaskNotFound = apperrors.NewDomainError(apperrors.KindNotFound, "SUBTASK_NOT_FOUND",
		"sub-task not found", http.StatusNotFound, nil)
)
