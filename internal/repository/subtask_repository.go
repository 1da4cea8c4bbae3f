package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kdh92417/team-tasks/internal/domain"
)

// SubTaskRepository encapsulates sub-task persistence.
type SubTaskRepository interface {
	Create(ctx context.Context, sub *domain.SubTask) error
	GetByID(ctx context.Context, id string) (*domain.SubTask, error)
	ListByTask(ctx context.Context, taskID string) ([]domain.SubTask, error)
	ListByTasks(ctx context.Context, taskIDs []string) ([]domain.SubTask, error)
	// MarkComplete completes an incomplete sub-task and reports whether a row changed.
	MarkComplete(ctx context.Context, id string, at time.Time) (bool, error)
	CountIncomplete(ctx context.Context, taskID string) (int, error)
	Delete(ctx context.Context, id string) error
}

type subTaskRepository struct {
	db DBTX
}

// NewSubTaskRepository instantiates repository.
func NewSubTaskRepository(db DBTX) SubTaskRepository {
	return &subTaskRepository{db: db}
}

const subTaskColumns = `id, task_id, team_id, is_complete, completed_date, created_at, updated_at`

func (r *subTaskRepository) Create(ctx context.Context, sub *domain.SubTask) error {
	const query = `
        INSERT INTO sub_tasks (task_id, team_id, is_complete, completed_date)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		sub.TaskID,
		sub.TeamID,
		sub.IsComplete,
		sub.CompletedDate,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *subTaskRepository) GetByID(ctx context.Context, id string) (*domain.SubTask, error) {
	const query = `SELECT ` + subTaskColumns + ` FROM sub_tasks WHERE id=$1`
	var sub domain.SubTask
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&sub.ID,
		&sub.TaskID,
		&sub.TeamID,
		&sub.IsComplete,
		&sub.CompletedDate,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subTaskRepository) ListByTask(ctx context.Context, taskID string) ([]domain.SubTask, error) {
	const query = `SELECT ` + subTaskColumns + ` FROM sub_tasks WHERE task_id=$1 ORDER BY created_at ASC, id`
	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubTasks(rows)
}

func (r *subTaskRepository) ListByTasks(ctx context.Context, taskIDs []string) ([]domain.SubTask, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + subTaskColumns + ` FROM sub_tasks WHERE task_id = ANY($1::uuid[]) ORDER BY created_at ASC, id`
	rows, err := r.db.Query(ctx, query, taskIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubTasks(rows)
}

func (r *subTaskRepository) MarkComplete(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE sub_tasks SET is_complete=TRUE, completed_date=$1, updated_at=NOW()
        WHERE id=$2 AND is_complete=FALSE`
	cmd, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *subTaskRepository) CountIncomplete(ctx context.Context, taskID string) (int, error) {
	const query = `SELECT COUNT(*) FROM sub_tasks WHERE task_id=$1 AND is_complete=FALSE`
	var count int
	if err := r.db.QueryRow(ctx, query, taskID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *subTaskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM sub_tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanSubTasks(rows pgx.Rows) ([]domain.SubTask, error) {
	var result []domain.SubTask
	for rows.Next() {
		var sub domain.SubTask
		if err := rows.Scan(
			&sub.ID,
			&sub.TaskID,
			&sub.TeamID,
			&sub.IsComplete,
			&sub.CompletedDate,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}
