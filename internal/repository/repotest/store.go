// Package repotest provides an in-memory repository.Store for tests.
//
// It mirrors the Postgres store closely enough for service tests: missing rows
// yield pgx.ErrNoRows, the (task, team) constraint yields a unique-violation
// PgError, GetByIDForUpdate holds a per-task lock until the transaction ends and
// failed transactions are rolled back. ReadSnapshot reads from a frozen copy.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/repository"
)

// Store is an in-memory repository.Store.
type Store struct {
	mu       sync.Mutex
	seq      int64
	order    map[string]int64
	teams    map[string]domain.Team
	users    map[string]domain.User
	tasks    map[string]domain.Task
	subTasks map[string]domain.SubTask

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	taskCompletions int
	failSubTask     map[int]error
	subTaskCreates  int
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		order:       map[string]int64{},
		teams:       map[string]domain.Team{},
		users:       map[string]domain.User{},
		tasks:       map[string]domain.Task{},
		subTasks:    map[string]domain.SubTask{},
		locks:       map[string]*sync.Mutex{},
		failSubTask: map[int]error{},
	}
}

// AddTeam seeds a team.
func (s *Store) AddTeam(name string, verified bool) domain.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	team := domain.Team{ID: uuid.NewString(), Name: name, IsVerified: verified, CreatedAt: now, UpdatedAt: now}
	s.teams[team.ID] = team
	return team
}

// AddUser seeds a user; teamID may be empty for a user without a team.
func (s *Store) AddUser(name, teamID, passwordHash string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	user := domain.User{ID: uuid.NewString(), Name: name, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	if teamID != "" {
		id := teamID
		user.TeamID = &id
	}
	s.users[user.ID] = user
	return user
}

// FailSubTaskCreate makes the n-th (1-based, counted from now) sub-task insert fail with err.
func (s *Store) FailSubTaskCreate(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSubTask[s.subTaskCreates+n] = err
}

// Task returns the stored task without sub-tasks.
func (s *Store) Task(id string) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	return task, ok
}

// SubTask returns the stored sub-task.
func (s *Store) SubTask(id string) (domain.SubTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subTasks[id]
	return sub, ok
}

// TaskCount returns the number of stored tasks.
func (s *Store) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// SubTaskCount returns the number of stored sub-tasks.
func (s *Store) SubTaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subTasks)
}

// TaskCompletionWrites counts task rows flipped to complete.
func (s *Store) TaskCompletionWrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taskCompletions
}

// SetSubTaskState overwrites a sub-task's completion state, bypassing services.
func (s *Store) SetSubTaskState(id string, complete bool, at *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.subTasks[id]
	sub.IsComplete = complete
	sub.CompletedDate = at
	s.subTasks[id] = sub
}

func (s *Store) Repositories() repository.Repositories {
	return s.bind(nil)
}

func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repositories) error) error {
	tx := &txState{}
	defer s.release(tx)
	if err := fn(s.bind(tx)); err != nil {
		s.rollback(tx)
		return err
	}
	return nil
}

// ReadSnapshot runs fn against a copy of the store taken at call time, so
// writes committed while fn runs are not visible to it.
func (s *Store) ReadSnapshot(_ context.Context, fn func(repository.Repositories) error) error {
	return fn(s.snapshot().bind(nil))
}

func (s *Store) snapshot() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := NewStore()
	clone.seq = s.seq
	for k, v := range s.order {
		clone.order[k] = v
	}
	for k, v := range s.teams {
		clone.teams[k] = v
	}
	for k, v := range s.users {
		clone.users[k] = v
	}
	for k, v := range s.tasks {
		clone.tasks[k] = v
	}
	for k, v := range s.subTasks {
		clone.subTasks[k] = v
	}
	return clone
}

type txState struct {
	undo []func()
	held []*sync.Mutex
	ids  map[string]bool
}

func (s *Store) bind(tx *txState) repository.Repositories {
	sess := &session{store: s, tx: tx}
	return repository.Repositories{
		Teams:    teamRepo{sess},
		Users:    userRepo{sess},
		Tasks:    taskRepo{sess},
		SubTasks: subTaskRepo{sess},
	}
}

func (s *Store) rollback(tx *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
}

func (s *Store) release(tx *txState) {
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
}

func (s *Store) lock(tx *txState, id string) {
	if tx == nil {
		return
	}
	if tx.ids == nil {
		tx.ids = map[string]bool{}
	}
	if tx.ids[id] {
		return
	}
	s.locksMu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.locksMu.Unlock()

	m.Lock()
	tx.ids[id] = true
	tx.held = append(tx.held, m)
}

type session struct {
	store *Store
	tx    *txState
}

// record registers an undo step; callers hold store.mu.
func (sess *session) record(fn func()) {
	if sess.tx != nil {
		sess.tx.undo = append(sess.tx.undo, fn)
	}
}

func (sess *session) nextSeq(id string) {
	sess.store.seq++
	sess.store.order[id] = sess.store.seq
}

type teamRepo struct{ *session }

func (r teamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	team, ok := r.store.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &team, nil
}

func (r teamRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.Team
	seen := map[string]bool{}
	for _, id := range ids {
		if team, ok := r.store.teams[id]; ok && !seen[id] {
			seen[id] = true
			result = append(result, team)
		}
	}
	return result, nil
}

func (r teamRepo) List(_ context.Context) ([]domain.Team, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make([]domain.Team, 0, len(r.store.teams))
	for _, team := range r.store.teams {
		result = append(result, team)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type userRepo struct{ *session }

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r userRepo) GetByName(_ context.Context, name string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Name == name {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type taskRepo struct{ *session }

func (r taskRepo) Create(_ context.Context, task *domain.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	now := time.Now()
	task.ID = uuid.NewString()
	task.CreatedAt, task.UpdatedAt = now, now
	stored := *task
	stored.SubTasks = nil
	r.store.tasks[task.ID] = stored
	r.nextSeq(task.ID)
	id := task.ID
	r.record(func() {
		delete(r.store.tasks, id)
		delete(r.store.order, id)
	})
	return nil
}

func (r taskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	task, ok := r.store.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &task, nil
}

func (r taskRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	r.store.lock(r.tx, id)
	return r.GetByID(ctx, id)
}

func (r taskRepo) UpdateContent(_ context.Context, task *domain.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.tasks[task.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	prev := stored
	stored.Title = task.Title
	stored.Content = task.Content
	stored.UpdatedAt = time.Now()
	task.UpdatedAt = stored.UpdatedAt
	r.store.tasks[task.ID] = stored
	r.record(func() { r.store.tasks[prev.ID] = prev })
	return nil
}

func (r taskRepo) MarkComplete(_ context.Context, id string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.tasks[id]
	if !ok || stored.IsComplete {
		return false, nil
	}
	prev := stored
	stored.IsComplete = true
	stored.CompletedDate = &at
	r.store.tasks[id] = stored
	r.store.taskCompletions++
	r.record(func() {
		r.store.tasks[id] = prev
		r.store.taskCompletions--
	})
	return true, nil
}

func (r taskRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	task, ok := r.store.tasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	seq := r.store.order[id]
	delete(r.store.tasks, id)
	removed := map[string]domain.SubTask{}
	for subID, sub := range r.store.subTasks {
		if sub.TaskID == id {
			removed[subID] = sub
			delete(r.store.subTasks, subID)
		}
	}
	r.record(func() {
		r.store.tasks[id] = task
		r.store.order[id] = seq
		for subID, sub := range removed {
			r.store.subTasks[subID] = sub
		}
	})
	return nil
}

func (r taskRepo) ListVisibleToTeam(_ context.Context, teamID string, limit, offset int) ([]domain.Task, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	visible := map[string]bool{}
	for id, task := range r.store.tasks {
		if task.TeamID == teamID {
			visible[id] = true
		}
	}
	for _, sub := range r.store.subTasks {
		if sub.TeamID == teamID {
			visible[sub.TaskID] = true
		}
	}
	result := make([]domain.Task, 0, len(visible))
	for id := range visible {
		result = append(result, r.store.tasks[id])
	}
	sort.Slice(result, func(i, j int) bool {
		return r.store.order[result[i].ID] > r.store.order[result[j].ID]
	})
	if limit > 0 {
		if offset < 0 {
			offset = 0
		}
		if offset >= len(result) {
			return []domain.Task{}, nil
		}
		end := offset + limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

type subTaskRepo struct{ *session }

func (r subTaskRepo) Create(_ context.Context, sub *domain.SubTask) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.subTaskCreates++
	if err, ok := r.store.failSubTask[r.store.subTaskCreates]; ok {
		delete(r.store.failSubTask, r.store.subTaskCreates)
		return err
	}
	if _, ok := r.store.tasks[sub.TaskID]; !ok {
		return &pgconn.PgError{Code: "23503", Message: "sub_tasks_task_id_fkey"}
	}
	for _, existing := range r.store.subTasks {
		if existing.TaskID == sub.TaskID && existing.TeamID == sub.TeamID {
			return &pgconn.PgError{Code: "23505", ConstraintName: "unique_task_team"}
		}
	}
	now := time.Now()
	sub.ID = uuid.NewString()
	sub.CreatedAt, sub.UpdatedAt = now, now
	r.store.subTasks[sub.ID] = *sub
	r.nextSeq(sub.ID)
	id := sub.ID
	r.record(func() {
		delete(r.store.subTasks, id)
		delete(r.store.order, id)
	})
	return nil
}

func (r subTaskRepo) GetByID(_ context.Context, id string) (*domain.SubTask, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sub, ok := r.store.subTasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sub, nil
}

func (r subTaskRepo) ListByTask(ctx context.Context, taskID string) ([]domain.SubTask, error) {
	return r.ListByTasks(ctx, []string{taskID})
}

func (r subTaskRepo) ListByTasks(_ context.Context, taskIDs []string) ([]domain.SubTask, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	wanted := map[string]bool{}
	for _, id := range taskIDs {
		wanted[id] = true
	}
	var result []domain.SubTask
	for _, sub := range r.store.subTasks {
		if wanted[sub.TaskID] {
			result = append(result, sub)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return r.store.order[result[i].ID] < r.store.order[result[j].ID]
	})
	return result, nil
}

func (r subTaskRepo) MarkComplete(_ context.Context, id string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.subTasks[id]
	if !ok || stored.IsComplete {
		return false, nil
	}
	prev := stored
	stored.IsComplete = true
	stored.CompletedDate = &at
	r.store.subTasks[id] = stored
	r.record(func() { r.store.subTasks[id] = prev })
	return true, nil
}

func (r subTaskRepo) CountIncomplete(_ context.Context, taskID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, sub := range r.store.subTasks {
		if sub.TaskID == taskID && !sub.IsComplete {
			count++
		}
	}
	return count, nil
}

func (r subTaskRepo) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sub, ok := r.store.subTasks[id]
	if !ok {
		return pgx.ErrNoRows
	}
	seq := r.store.order[id]
	delete(r.store.subTasks, id)
	r.record(func() {
		r.store.subTasks[id] = sub
		r.store.order[id] = seq
	})
	return nil
}
