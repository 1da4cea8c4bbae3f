package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kdh92417/team-tasks/internal/domain"
)

// TaskRepository encapsulates task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// GetByIDForUpdate locks the task row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Task, error)
	UpdateContent(ctx context.Context, task *domain.Task) error
	// MarkComplete completes an incomplete task and reports whether a row changed.
	MarkComplete(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	ListVisibleToTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.Task, error)
}

type taskRepository struct {
	db DBTX
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(db DBTX) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, create_user_id, team_id, title, content, is_complete, completed_date, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (create_user_id, team_id, title, content, is_complete, completed_date)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		task.CreatorID,
		task.TeamID,
		task.Title,
		task.Content,
		task.IsComplete,
		task.CompletedDate,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *taskRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *taskRepository) UpdateContent(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET title=$1, content=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query, task.Title, task.Content, task.ID).Scan(&task.UpdatedAt)
}

func (r *taskRepository) MarkComplete(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE tasks SET is_complete=TRUE, completed_date=$1, updated_at=NOW()
        WHERE id=$2 AND is_complete=FALSE`
	cmd, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) ListVisibleToTeam(ctx context.Context, teamID string, limit, offset int) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
             WHERE t.team_id=$1
                OR EXISTS (SELECT 1 FROM sub_tasks s WHERE s.task_id=t.id AND s.team_id=$1)
             ORDER BY t.created_at DESC, t.id`
	if limit > 0 {
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, limit, offset)
	}

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	return result, rows.Err()
}

func (r *taskRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Task, error) {
	return scanTask(r.db.QueryRow(ctx, query, arg))
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.CreatorID,
		&task.TeamID,
		&task.Title,
		&task.Content,
		&task.IsComplete,
		&task.CompletedDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
