package garments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stitchdesk/stitchdesk/internal/shared"
)

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]GarmentType, error)
	Get(ctx context.Context, id int64) (GarmentType, error)
	Create(ctx context.Context, gt GarmentType) (GarmentType, error)
	Update(ctx context.Context, id int64, gt GarmentType) error
	SetActive(ctx context.Context, id int64, active bool) error

	ListSubtypes(ctx context.Context, garmentTypeID int64) ([]Subtype, error)
	CreateSubtype(ctx context.Context, st Subtype) (Subtype, error)
	DeleteSubtype(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]GarmentType, error) {
	query := `SELECT id, name, base_price, measurements, is_active, created_at, updated_at FROM garment_types`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []GarmentType
	for rows.Next() {
		gt, err := scanGarmentType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, gt)
	}
	return types, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (GarmentType, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, name, base_price, measurements, is_active, created_at, updated_at FROM garment_types WHERE id = $1`, id)
	gt, err := scanGarmentType(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return GarmentType{}, shared.ErrNotFound
	}
	return gt, err
}

func (r *repository) Create(ctx context.Context, gt GarmentType) (GarmentType, error) {
	measurements, err := json.Marshal(gt.Measurements)
	if err != nil {
		return GarmentType{}, err
	}
	now := time.Now()
	err = r.db.QueryRow(ctx,
		`INSERT INTO garment_types (name, base_price, measurements, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		gt.Name, gt.BasePrice, measurements, gt.IsActive, now, now).Scan(&gt.ID)
	if err != nil {
		return GarmentType{}, err
	}
	gt.CreatedAt = now
	gt.UpdatedAt = now
	return gt, nil
}

func (r *repository) Update(ctx context.Context, id int64, gt GarmentType) error {
	measurements, err := json.Marshal(gt.Measurements)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE garment_types SET name = $1, base_price = $2, measurements = $3, updated_at = $4 WHERE id = $5`,
		gt.Name, gt.BasePrice, measurements, time.Now(), id)
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
		`UPDATE garment_types SET is_active = $1, updated_at = $2 WHERE id = $3`, active, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListSubtypes(ctx context.Context, garmentTypeID int64) ([]Subtype, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, garment_type_id, name, options FROM garment_subtypes WHERE garment_type_id = $1 ORDER BY name ASC`,
		garmentTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtypes []Subtype
	for rows.Next() {
		var st Subtype
		var options []byte
		if err := rows.Scan(&st.ID, &st.GarmentTypeID, &st.Name, &options); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &st.Options); err != nil {
			return nil, err
		}
		subtypes = append(subtypes, st)
	}
	return subtypes, rows.Err()
}

func (r *repository) CreateSubtype(ctx context.Context, st Subtype) (Subtype, error) {
	options, err := json.Marshal(st.Options)
	if err != nil {
		return Subtype{}, err
	}
	err = r.db.QueryRow(ctx,
		`INSERT INTO garment_subtypes (garment_type_id, name, options) VALUES ($1, $2, $3) RETURNING id`,
		st.GarmentTypeID, st.Name, options).Scan(&st.ID)
	if err != nil {
		return Subtype{}, err
	}
	return st, nil
}

func (r *repository) DeleteSubtype(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM garment_subtypes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanGarmentType(row pgx.Row) (GarmentType, error) {
	var gt GarmentType
	var measurements []byte
	err := row.Scan(&gt.ID, &gt.Name, &gt.BasePrice, &measurements, &gt.IsActive, &gt.CreatedAt, &gt.UpdatedAt)
	if err != nil {
		return GarmentType{}, err
	}
	if err := json.Unmarshal(measurements, &gt.Measurements); err != nil {
		return GarmentType{}, err
	}
	return gt, nil
}
