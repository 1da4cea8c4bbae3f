package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/events"
	"github.com/kdh92417/team-tasks/internal/repository"
	"github.com/kdh92417/team-tasks/internal/repository/repotest"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

func TestCreateTask(t *testing.T) {
	f := newFixture(t)

	task := f.createTask(t, f.alice, f.teamA, f.teamB, f.teamC)

	if task.TeamID != f.teamA.ID {
		t.Errorf("task.TeamID = %s, want creator team %s", task.TeamID, f.teamA.ID)
	}
	if task.CreatorID != f.alice.ID {
		t.Errorf("task.CreatorID = %s, want %s", task.CreatorID, f.alice.ID)
	}
	if task.IsComplete || task.CompletedDate != nil {
		t.Errorf("new task should be incomplete, got %+v", task)
	}
	if len(task.SubTasks) != 3 {
		t.Fatalf("len(SubTasks) = %d, want 3", len(task.SubTasks))
	}
	seen := map[string]bool{}
	for _, sub := range task.SubTasks {
		if sub.TaskID != task.ID {
			t.Errorf("sub-task %s belongs to %s, want %s", sub.ID, sub.TaskID, task.ID)
		}
		if sub.IsComplete || sub.CompletedDate != nil {
			t.Errorf("new sub-task should be incomplete, got %+v", sub)
		}
		seen[sub.TeamID] = true
	}
	for _, team := range []domain.Team{f.teamA, f.teamB, f.teamC} {
		if !seen[team.ID] {
			t.Errorf("no sub-task for team %s", team.Name)
		}
	}
	if f.store.SubTaskCount() != 3 {
		t.Errorf("stored sub-tasks = %d, want 3", f.store.SubTaskCount())
	}
	if got := f.recorder.count(events.EventTaskCreated); got != 1 {
		t.Errorf("TaskCreated events = %d, want 1", got)
	}
}

func TestCreateTaskRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		creator *domain.User
		title   string
		content string
		teamIDs []string
		want    error
	}{
		{
			name:    "creator without team",
			creator: f.loner,
			title:   "t",
			content: "c",
			teamIDs: []string{f.teamA.ID},
			want:    domain.ErrMissingCreatorTeam,
		},
		{
			name:    "no teams",
			creator: f.alice,
			title:   "t",
			content: "c",
			want:    domain.ErrNoTeamsSpecified,
		},
		{
			name:    "duplicate team",
			creator: f.alice,
			title:   "t",
			content: "c",
			teamIDs: []string{f.teamB.ID, f.teamC.ID, f.teamB.ID},
			want:    domain.ErrDuplicateTeamAssignment,
		},
		{
			name:    "duplicate team in another spelling",
			creator: f.alice,
			title:   "t",
			content: "c",
			teamIDs: []string{f.teamB.ID, strings.ToUpper(f.teamB.ID)},
			want:    domain.ErrDuplicateTeamAssignment,
		},
		{
			name:    "unverified team",
			creator: f.alice,
			title:   "t",
			content: "c",
			teamIDs: []string{f.teamB.ID, f.unverified.ID},
			want:    domain.ErrUnverifiedTeamAssignment,
		},
		{
			name:    "unknown team",
			creator: f.alice,
			title:   "t",
			content: "c",
			teamIDs: []string{f.teamB.ID, uuid.NewString()},
			want:    domain.ErrTeamNotFound,
		},
		{
			name:    "malformed team id",
			creator: f.alice,
			title:   "t",
			content: "c",
			teamIDs: []string{"not-a-uuid"},
			want:    domain.ErrTeamNotFound,
		},
		{
			name:    "empty title",
			creator: f.alice,
			title:   "   ",
			content: "c",
			teamIDs: []string{f.teamB.ID},
			want:    domain.ErrInvalidTitle,
		},
		{
			name:    "title too long",
			creator: f.alice,
			title:   strings.Repeat("x", domain.TitleMaxLength+1),
			content: "c",
			teamIDs: []string{f.teamB.ID},
			want:    domain.ErrInvalidTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.CreateTask(context.Background(), tt.creator, TaskCreateInput{
				Title:   tt.title,
				Content: tt.content,
				TeamIDs: tt.teamIDs,
			})
			assertErrorIs(t, err, tt.want)
			if f.store.TaskCount() != 0 || f.store.SubTaskCount() != 0 {
				t.Fatalf("rejected creation persisted rows: tasks=%d sub-tasks=%d", f.store.TaskCount(), f.store.SubTaskCount())
			}
		})
	}

	_, err := f.tasks.CreateTask(context.Background(), f.alice, TaskCreateInput{Title: "t", TeamIDs: []string{f.teamB.ID}})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("empty content: kind = %q, want %q", apperrors.KindOf(err), apperrors.KindValidation)
	}
	if f.recorder.total() != 0 {
		t.Errorf("rejected creations published %d events", f.recorder.total())
	}
}

func TestCreateTaskAcceptsMaxLengthTitle(t *testing.T) {
	f := newFixture(t)
	task, err := f.tasks.CreateTask(context.Background(), f.alice, TaskCreateInput{
		Title:   strings.Repeat("가", domain.TitleMaxLength),
		Content: "c",
		TeamIDs: []string{f.teamB.ID},
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if len([]rune(task.Title)) != domain.TitleMaxLength {
		t.Errorf("title length = %d", len([]rune(task.Title)))
	}
}

func TestCreateTaskCanonicalizesTeamIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, id := range []string{"{" + f.teamB.ID + "}", strings.ToUpper(f.teamB.ID), "urn:uuid:" + f.teamB.ID} {
		task, err := f.tasks.CreateTask(ctx, f.alice, TaskCreateInput{Title: "t", Content: "c", TeamIDs: []string{id}})
		if err != nil {
			t.Fatalf("CreateTask(%q) error = %v", id, err)
		}
		if sub := subTaskFor(t, task, f.teamB.ID); sub.TeamID != f.teamB.ID {
			t.Errorf("sub.TeamID = %s, want %s", sub.TeamID, f.teamB.ID)
		}

		_, err = f.tasks.AddSubTask(ctx, f.alice, strings.ToUpper(task.ID), strings.ToUpper(f.teamB.ID))
		assertErrorIs(t, err, domain.ErrDuplicateAssignment)

		got, err := f.tasks.GetSubTask(ctx, f.bob, strings.ToUpper(task.ID), strings.ToUpper(task.SubTasks[0].ID))
		if err != nil {
			t.Fatalf("GetSubTask() error = %v", err)
		}
		if got.ID != task.SubTasks[0].ID {
			t.Errorf("GetSubTask() id = %s, want %s", got.ID, task.SubTasks[0].ID)
		}
	}
	if f.store.SubTaskCount() != 3 {
		t.Errorf("stored sub-tasks = %d, want 3", f.store.SubTaskCount())
	}
}

func TestCreateTaskIsAtomic(t *testing.T) {
	f := newFixture(t)
	f.store.FailSubTaskCreate(2, errors.New("connection reset"))

	_, err := f.tasks.CreateTask(context.Background(), f.alice, TaskCreateInput{
		Title:   "t",
		Content: "c",
		TeamIDs: []string{f.teamA.ID, f.teamB.ID, f.teamC.ID},
	})
	if err == nil {
		t.Fatal("expected error from failing sub-task insert")
	}
	if apperrors.KindOf(err) != apperrors.KindInternal {
		t.Errorf("kind = %q, want %q", apperrors.KindOf(err), apperrors.KindInternal)
	}
	if f.store.TaskCount() != 0 || f.store.SubTaskCount() != 0 {
		t.Errorf("partial creation left rows: tasks=%d sub-tasks=%d", f.store.TaskCount(), f.store.SubTaskCount())
	}
	if f.recorder.total() != 0 {
		t.Errorf("failed creation published %d events", f.recorder.total())
	}
}

func TestAddSubTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamB)

	sub, err := f.tasks.AddSubTask(ctx, f.alice, task.ID, f.teamC.ID)
	if err != nil {
		t.Fatalf("AddSubTask() error = %v", err)
	}
	if sub.TaskID != task.ID || sub.TeamID != f.teamC.ID || sub.IsComplete {
		t.Errorf("unexpected sub-task %+v", sub)
	}
	if f.recorder.count(events.EventSubTaskAdded) != 1 {
		t.Errorf("SubTaskAdded events = %d, want 1", f.recorder.count(events.EventSubTaskAdded))
	}

	tests := []struct {
		name   string
		actor  *domain.User
		teamID string
		want   error
	}{
		{"not creator", f.bob, f.teamA.ID, domain.ErrNotCreator},
		{"team already assigned", f.alice, f.teamB.ID, domain.ErrDuplicateAssignment},
		{"unverified team", f.alice, f.unverified.ID, domain.ErrUnverifiedTeamAssignment},
		{"unknown team", f.alice, uuid.NewString(), domain.ErrTeamNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tasks.AddSubTask(ctx, tt.actor, task.ID, tt.teamID)
			assertErrorIs(t, err, tt.want)
		})
	}

	_, err = f.tasks.AddSubTask(ctx, f.alice, uuid.NewString(), f.teamA.ID)
	assertErrorIs(t, err, domain.ErrTaskNotFound)
	if f.store.SubTaskCount() != 2 {
		t.Errorf("stored sub-tasks = %d, want 2", f.store.SubTaskCount())
	}
}

func TestAddSubTaskToCompletedTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamB)
	if _, err := f.completion.CompleteSubTask(ctx, f.bob, task.SubTasks[0].ID); err != nil {
		t.Fatalf("CompleteSubTask() error = %v", err)
	}

	_, err := f.tasks.AddSubTask(ctx, f.alice, task.ID, f.teamC.ID)
	assertErrorIs(t, err, domain.ErrTaskAlreadyComplete)

	stored, _ := f.store.Task(task.ID)
	if !stored.IsComplete {
		t.Error("task should remain complete")
	}
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamB)

	title := "renamed"
	updated, err := f.tasks.UpdateTask(ctx, f.alice, task.ID, TaskUpdateInput{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != "renamed" || updated.Content != task.Content {
		t.Errorf("updated = %+v", updated)
	}
	if len(updated.SubTasks) != 1 {
		t.Errorf("updated task should carry its sub-tasks")
	}
	if f.recorder.count(events.EventTaskUpdated) != 1 {
		t.Errorf("TaskUpdated events = %d, want 1", f.recorder.count(events.EventTaskUpdated))
	}

	content := "new content"
	_, err = f.tasks.UpdateTask(ctx, f.bob, task.ID, TaskUpdateInput{Content: &content})
	assertErrorIs(t, err, domain.ErrNotCreator)

	tooLong := strings.Repeat("x", domain.TitleMaxLength+1)
	_, err = f.tasks.UpdateTask(ctx, f.alice, task.ID, TaskUpdateInput{Title: &tooLong})
	assertErrorIs(t, err, domain.ErrInvalidTitle)

	stored, _ := f.store.Task(task.ID)
	if stored.Title != "renamed" || stored.Content != task.Content {
		t.Errorf("stored = %+v", stored)
	}

	_, err = f.tasks.UpdateTask(ctx, f.alice, uuid.NewString(), TaskUpdateInput{Title: &title})
	assertErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestUpdateTaskKeepsCompletionState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamB)
	if _, err := f.completion.CompleteSubTask(ctx, f.bob, task.SubTasks[0].ID); err != nil {
		t.Fatalf("CompleteSubTask() error = %v", err)
	}
	before, _ := f.store.Task(task.ID)

	content := "amended"
	updated, err := f.tasks.UpdateTask(ctx, f.alice, task.ID, TaskUpdateInput{Content: &content})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if !updated.IsComplete || updated.CompletedDate == nil || !updated.CompletedDate.Equal(*before.CompletedDate) {
		t.Errorf("completion state changed: before %+v after %+v", before, updated)
	}
}

func TestDeleteSubTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamB, f.teamC)
	subB := subTaskFor(t, task, f.teamB.ID)
	subC := subTaskFor(t, task, f.teamC.ID)

	err := f.tasks.DeleteSubTask(ctx, f.bob, task.ID, subB.ID)
	assertErrorIs(t, err, domain.ErrForbidden)

	if _, err := f.completion.CompleteSubTask(ctx, f.bob, subB.ID); err != nil {
		t.Fatalf("CompleteSubTask() error = %v", err)
	}
	err = f.tasks.DeleteSubTask(ctx, f.alice, task.ID, subB.ID)
	assertErrorIs(t, err, domain.ErrCannotDeleteCompleted)

	other := f.createTask(t, f.alice, f.teamA)
	err = f.tasks.DeleteSubTask(ctx, f.alice, other.ID, subC.ID)
	assertErrorIs(t, err, domain.ErrSubTaskNotFound)

	// removing the last incomplete sub-task leaves the parent incomplete
	if err := f.tasks.DeleteSubTask(ctx, f.alice, task.ID, subC.ID); err != nil {
		t.Fatalf("DeleteSubTask() error = %v", err)
	}
	if _, ok := f.store.SubTask(subC.ID); ok {
		t.Error("sub-task still stored after delete")
	}
	stored, _ := f.store.Task(task.ID)
	if stored.IsComplete {
		t.Error("deleting a sub-task must not complete the task")
	}
	if f.store.TaskCompletionWrites() != 0 {
		t.Errorf("task completion writes = %d, want 0", f.store.TaskCompletionWrites())
	}
	if f.recorder.count(events.EventSubTaskDeleted) != 1 {
		t.Errorf("SubTaskDeleted events = %d, want 1", f.recorder.count(events.EventSubTaskDeleted))
	}
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamB, f.teamC)

	assertErrorIs(t, f.tasks.DeleteTask(ctx, f.bob, task.ID), domain.ErrNotCreator)

	if err := f.tasks.DeleteTask(ctx, f.alice, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if f.store.TaskCount() != 0 || f.store.SubTaskCount() != 0 {
		t.Errorf("rows left after delete: tasks=%d sub-tasks=%d", f.store.TaskCount(), f.store.SubTaskCount())
	}
	assertErrorIs(t, f.tasks.DeleteTask(ctx, f.alice, task.ID), domain.ErrTaskNotFound)
}

func TestListVisibleTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owned := f.createTask(t, f.alice, f.teamA, f.teamB)
	delegated := f.createTask(t, f.carol, f.teamA, f.teamC)
	hidden := f.createTask(t, f.bob, f.teamC)

	tests := []struct {
		name  string
		user  *domain.User
		want  []string
		hide  []string
		count int
	}{
		{"owner and delegate", f.alice, []string{owned.ID, delegated.ID}, []string{hidden.ID}, 2},
		{"delegate only", f.bob, []string{owned.ID, hidden.ID}, []string{delegated.ID}, 2},
		{"owner of one, delegate of two", f.carol, []string{delegated.ID, hidden.ID}, []string{owned.ID}, 2},
		{"no team", f.loner, nil, []string{owned.ID, delegated.ID, hidden.ID}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := f.tasks.ListVisibleTasks(ctx, tt.user, ListOptions{})
			if err != nil {
				t.Fatalf("ListVisibleTasks() error = %v", err)
			}
			if len(tasks) != tt.count {
				t.Fatalf("len(tasks) = %d, want %d", len(tasks), tt.count)
			}
			got := map[string]domain.Task{}
			for _, task := range tasks {
				got[task.ID] = task
			}
			for _, id := range tt.want {
				task, ok := got[id]
				if !ok {
					t.Errorf("task %s missing", id)
					continue
				}
				if len(task.SubTasks) == 0 {
					t.Errorf("task %s returned without sub-tasks", id)
				}
			}
			for _, id := range tt.hide {
				if _, ok := got[id]; ok {
					t.Errorf("task %s should not be visible", id)
				}
			}
		})
	}
}

func TestListVisibleTasksPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.createTask(t, f.alice, f.teamB)
	}

	page, err := f.tasks.ListVisibleTasks(ctx, f.bob, ListOptions{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("ListVisibleTasks() error = %v", err)
	}
	if len(page) != 1 {
		t.Errorf("len(page) = %d, want 1", len(page))
	}
}

// writeDuringList lets a concurrent write land between the task read and the
// sub-task read of a listing.
type writeDuringList struct {
	*repotest.Store
	write func()
}

func (s *writeDuringList) ReadSnapshot(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.ReadSnapshot(ctx, func(repos repository.Repositories) error {
		repos.Tasks = &listHook{TaskRepository: repos.Tasks, after: s.write}
		return fn(repos)
	})
}

type listHook struct {
	repository.TaskRepository
	after func()
}

func (h *listHook) ListVisibleToTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.Task, error) {
	tasks, err := h.TaskRepository.ListVisibleToTeam(ctx, teamID, limit, offset)
	if h.after != nil {
		h.after()
		h.after = nil
	}
	return tasks, err
}

func TestListVisibleTasksReadsOneSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamB)

	store := &writeDuringList{Store: f.store}
	store.write = func() {
		if _, err := f.tasks.AddSubTask(ctx, f.alice, task.ID, f.teamC.ID); err != nil {
			t.Errorf("AddSubTask() error = %v", err)
		}
	}
	svc := NewTaskService(TaskDependencies{Store: store, Dispatcher: events.NewInMemoryDispatcher()})

	tasks, err := svc.ListVisibleTasks(ctx, f.alice, ListOptions{})
	if err != nil {
		t.Fatalf("ListVisibleTasks() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(tasks))
	}
	if len(tasks[0].SubTasks) != 1 {
		t.Errorf("len(SubTasks) = %d, want 1 from the snapshot", len(tasks[0].SubTasks))
	}
	if f.store.SubTaskCount() != 2 {
		t.Errorf("stored sub-tasks = %d, want 2", f.store.SubTaskCount())
	}

	tasks, err = svc.ListVisibleTasks(ctx, f.alice, ListOptions{})
	if err != nil {
		t.Fatalf("ListVisibleTasks() error = %v", err)
	}
	if len(tasks[0].SubTasks) != 2 {
		t.Errorf("len(SubTasks) = %d after write, want 2", len(tasks[0].SubTasks))
	}
}

func TestGetVisibleTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamB)

	got, err := f.tasks.GetVisibleTask(ctx, f.bob, task.ID)
	if err != nil {
		t.Fatalf("GetVisibleTask() error = %v", err)
	}
	if len(got.SubTasks) != 1 {
		t.Errorf("len(SubTasks) = %d, want 1", len(got.SubTasks))
	}

	_, err = f.tasks.GetVisibleTask(ctx, f.carol, task.ID)
	assertErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = f.tasks.GetVisibleTask(ctx, f.loner, task.ID)
	assertErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = f.tasks.GetVisibleTask(ctx, f.alice, "nope")
	assertErrorIs(t, err, domain.ErrTaskNotFound)

	sub, err := f.tasks.GetSubTask(ctx, f.alice, task.ID, task.SubTasks[0].ID)
	if err != nil {
		t.Fatalf("GetSubTask() error = %v", err)
	}
	if sub.TeamID != f.teamB.ID {
		t.Errorf("sub.TeamID = %s, want %s", sub.TeamID, f.teamB.ID)
	}
	_, err = f.tasks.GetSubTask(ctx, f.alice, task.ID, uuid.NewString())
	assertErrorIs(t, err, domain.ErrSubTaskNotFound)

	subs, err := f.tasks.ListSubTasks(ctx, f.bob, task.ID)
	if err != nil || len(subs) != 1 {
		t.Errorf("ListSubTasks() = %v, %v", subs, err)
	}
}

func TestCompletionInvariantHoldsAcrossOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.createTask(t, f.alice, f.teamA, f.teamB)

	for _, sub := range task.SubTasks {
		actor := f.alice
		if sub.TeamID == f.teamB.ID {
			actor = f.bob
		}
		if _, err := f.completion.CompleteSubTask(ctx, actor, sub.ID); err != nil {
			t.Fatalf("CompleteSubTask() error = %v", err)
		}
		stored, _ := f.store.Task(task.ID)
		assertTaskConsistent(t, stored)
		storedSub, _ := f.store.SubTask(sub.ID)
		assertSubTaskConsistent(t, storedSub)
	}

	stored, _ := f.store.Task(task.ID)
	if !stored.IsComplete {
		t.Fatal("task should be complete once every sub-task is")
	}
	if time.Since(*stored.CompletedDate) > time.Minute {
		t.Errorf("completed_date %v is not recent", stored.CompletedDate)
	}
}
