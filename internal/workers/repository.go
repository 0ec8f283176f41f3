package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stitchdesk/stitchdesk/internal/shared"
)

// ListFilters narrows worker listings.
type ListFilters struct {
	Search     string
	Role       string
	ActiveOnly bool
	Page       int
	Limit      int
}

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Worker, int, error)
	Get(ctx context.Context, id int64) (Worker, error)
	Create(ctx context.Context, worker Worker) (Worker, error)
	Update(ctx context.Context, id int64, worker Worker) error
	SetActive(ctx context.Context, id int64, active bool) error
	Workload(ctx context.Context, id int64) (Workload, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const workerColumns = `id, name, mobile, role, skills, wage_type, wage_amount, is_active, created_at, updated_at`

func scanWorker(row pgx.Row, w *Worker) error {
	var skills []byte
	err := row.Scan(&w.ID, &w.Name, &w.Mobile, &w.Role, &skills, &w.WageType, &w.WageAmount, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return err
	}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &w.Skills); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Worker, int, error) {
	conds := ""
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		conds += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR mobile ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Role != "" {
		argCount++
		conds += ` AND role = $` + strconv.Itoa(argCount)
		args = append(args, filters.Role)
	}
	if filters.ActiveOnly {
		conds += ` AND is_active`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workers WHERE 1=1`+conds, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + workerColumns + ` FROM workers WHERE 1=1` + conds + ` ORDER BY name ASC`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		var w Worker
		if err := scanWorker(rows, &w); err != nil {
			return nil, 0, err
		}
		workers = append(workers, w)
	}
	return workers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Worker, error) {
	var w Worker
	err := scanWorker(r.db.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, id), &w)
	if errors.Is(err, pgx.ErrNoRows) {
		return Worker{}, shared.ErrNotFound
	}
	return w, err
}

func (r *repository) Create(ctx context.Context, worker Worker) (Worker, error) {
	skills, err := json.Marshal(worker.Skills)
	if err != nil {
		return Worker{}, err
	}
	now := time.Now()
	err = r.db.QueryRow(ctx,
		`INSERT INTO workers (name, mobile, role, skills, wage_type, wage_amount, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		worker.Name, worker.Mobile, worker.Role, skills, worker.WageType, worker.WageAmount,
		worker.IsActive, now, now).Scan(&worker.ID)
	if err != nil {
		return Worker{}, err
	}
	worker.CreatedAt = now
	worker.UpdatedAt = now
	return worker, nil
}

func (r *repository) Update(ctx context.Context, id int64, worker Worker) error {
	skills, err := json.Marshal(worker.Skills)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE workers SET name = $1, mobile = $2, role = $3, skills = $4, wage_type = $5, wage_amount = $6, updated_at = $7 WHERE id = $8`,
		worker.Name, worker.Mobile, worker.Role, skills, worker.WageType, worker.WageAmount, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE workers SET is_active = $1, updated_at = $2 WHERE id = $3`, active, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Workload(ctx context.Context, id int64) (Workload, error) {
	wl := Workload{WorkerID: id}
	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) FILTER (WHERE status IN ('pending', 'in_progress')),
			COUNT(*) FILTER (WHERE status IN ('completed', 'delivered'))
		 FROM orders WHERE tailor_id = $1`, id).
		Scan(&wl.AssignedOrders, &wl.CompletedOrders)
	return wl, err
}
