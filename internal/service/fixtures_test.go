package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/events"
	"github.com/kdh92417/team-tasks/internal/repository/repotest"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) record(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) count(eventType events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, event := range r.events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}

func (r *eventRecorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	store      *repotest.Store
	recorder   *eventRecorder
	tasks      *TaskService
	completion *CompletionService

	teamA, teamB, teamC, unverified domain.Team
	alice, bob, carol, loner        *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	recorder := &eventRecorder{}
	for _, eventType := range events.AllTypes() {
		dispatcher.Subscribe(eventType, recorder.record)
	}

	f := &fixture{
		store:      store,
		recorder:   recorder,
		tasks:      NewTaskService(TaskDependencies{Store: store, Dispatcher: dispatcher}),
		completion: NewCompletionService(CompletionDependencies{Store: store, Dispatcher: dispatcher}),
	}
	f.teamA = store.AddTeam("danbi", true)
	f.teamB = store.AddTeam("darae", true)
	f.teamC = store.AddTeam("blabla", true)
	f.unverified = store.AddTeam("unverified", false)
	f.alice = f.user("alice", f.teamA.ID)
	f.bob = f.user("bob", f.teamB.ID)
	f.carol = f.user("carol", f.teamC.ID)
	f.loner = f.user("loner", "")
	return f
}

func (f *fixture) user(name, teamID string) *domain.User {
	u := f.store.AddUser(name, teamID, "")
	return &u
}

func (f *fixture) createTask(t *testing.T, creator *domain.User, teams ...domain.Team) *domain.Task {
	t.Helper()
	ids := make([]string, 0, len(teams))
	for _, team := range teams {
		ids = append(ids, team.ID)
	}
	task, err := f.tasks.CreateTask(context.Background(), creator, TaskCreateInput{
		Title:   "quarterly report",
		Content: "collect numbers from every team",
		TeamIDs: ids,
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	return task
}

func subTaskFor(t *testing.T, task *domain.Task, teamID string) domain.SubTask {
	t.Helper()
	for _, sub := range task.SubTasks {
		if sub.TeamID == teamID {
			return sub
		}
	}
	t.Fatalf("task %s has no sub-task for team %s", task.ID, teamID)
	return domain.SubTask{}
}

func assertErrorIs(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %v, got nil", want)
	}
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}

func assertTaskConsistent(t *testing.T, task domain.Task) {
	t.Helper()
	if task.IsComplete != (task.CompletedDate != nil) {
		t.Fatalf("task %s: is_complete=%v but completed_date=%v", task.ID, task.IsComplete, task.CompletedDate)
	}
}

func assertSubTaskConsistent(t *testing.T, sub domain.SubTask) {
	t.Helper()
	if sub.IsComplete != (sub.CompletedDate != nil) {
		t.Fatalf("sub-task %s: is_complete=%v but completed_date=%v", sub.ID, sub.IsComplete, sub.CompletedDate)
	}
}
