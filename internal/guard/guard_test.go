package guard

import (
	"errors"
	"testing"

	"github.com/kdh92417/team-tasks/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestDecisions(t *testing.T) {
	creator := &domain.User{ID: "u-creator", TeamID: strPtr("team-a")}
	assignee := &domain.User{ID: "u-assignee", TeamID: strPtr("team-b")}
	outsider := &domain.User{ID: "u-outsider", TeamID: strPtr("team-c")}
	teamless := &domain.User{ID: "u-teamless"}

	task := &domain.Task{
		ID:        "task-1",
		CreatorID: creator.ID,
		TeamID:    "team-a",
		SubTasks:  []domain.SubTask{{ID: "sub-1", TaskID: "task-1", TeamID: "team-b"}},
	}
	completeTask := &domain.Task{ID: "task-2", CreatorID: creator.ID, TeamID: "team-a", IsComplete: true}
	openSub := &domain.SubTask{ID: "sub-1", TaskID: "task-1", TeamID: "team-b"}
	doneSub := &domain.SubTask{ID: "sub-2", TaskID: "task-1", TeamID: "team-b", IsComplete: true}

	tests := []struct {
		name    string
		got     Decision
		wantErr error
	}{
		{"create with team", CanCreateTask(creator), nil},
		{"create without team", CanCreateTask(teamless), domain.ErrMissingCreatorTeam},
		{"create nil actor", CanCreateTask(nil), domain.ErrMissingCreatorTeam},
		{"update by creator", CanUpdateTask(creator, task), nil},
		{"update by assignee", CanUpdateTask(assignee, task), domain.ErrNotCreator},
		{"delete task by creator", CanDeleteTask(creator, task), nil},
		{"delete task by outsider", CanDeleteTask(outsider, task), domain.ErrNotCreator},
		{"add sub-task by creator", CanAddSubTask(creator, task), nil},
		{"add sub-task by assignee", CanAddSubTask(assignee, task), domain.ErrNotCreator},
		{"add sub-task to complete task", CanAddSubTask(creator, completeTask), domain.ErrTaskAlreadyComplete},
		{"delete open sub-task by creator", CanDeleteSubTask(creator, task, openSub), nil},
		{"delete sub-task by assignee", CanDeleteSubTask(assignee, task, openSub), domain.ErrForbidden},
		{"delete completed sub-task", CanDeleteSubTask(creator, task, doneSub), domain.ErrCannotDeleteCompleted},
		{"complete by assigned team", CanCompleteSubTask(assignee, openSub), nil},
		{"complete by creator team", CanCompleteSubTask(creator, openSub), domain.ErrNotAssignedTeam},
		{"complete without team", CanCompleteSubTask(teamless, openSub), domain.ErrNotAssignedTeam},
		{"view by owning team", CanViewTask(creator, task), nil},
		{"view by assigned team", CanViewTask(assignee, task), nil},
		{"view by outsider", CanViewTask(outsider, task), domain.ErrTaskNotFound},
		{"view without team", CanViewTask(teamless, task), domain.ErrTaskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				if !tt.got.Allowed || tt.got.Err() != nil {
					t.Fatalf("decision = %+v, want allowed", tt.got)
				}
				return
			}
			if tt.got.Allowed {
				t.Fatal("decision allowed, want denied")
			}
			if !errors.Is(tt.got.Err(), tt.wantErr) {
				t.Errorf("Err() = %v, want %v", tt.got.Err(), tt.wantErr)
			}
			if tt.got.Reason == "" {
				t.Error("denied decision should carry a reason")
			}
		})
	}
}
