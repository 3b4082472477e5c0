package database

import (
	"context"

	"github.com/google/uuid"
)

const listAreas = `
SELECT id, code, name, sort_order, is_active, created_at
FROM areas
ORDER BY sort_order, code
`

func (q *Queries) ListAreas(ctx context.Context) ([]Area, error) {
	rows, err := q.db.Query(ctx, listAreas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Area
	for rows.Next() {
		var a Area
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.SortOrder, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const createArea = `
INSERT INTO areas (code, name, sort_order)
VALUES ($1, $2, $3)
RETURNING id, code, name, sort_order, is_active, created_at
`

type CreateAreaParams struct {
	Code      string
	Name      string
	SortOrder int32
}

func (q *Queries) CreateArea(ctx context.Context, arg CreateAreaParams) (Area, error) {
	var a Area
	err := q.db.QueryRow(ctx, createArea, arg.Code, arg.Name, arg.SortOrder).
		Scan(&a.ID, &a.Code, &a.Name, &a.SortOrder, &a.IsActive, &a.CreatedAt)
	return a, err
}

const updateArea = `
UPDATE areas
SET code = $2, name = $3, sort_order = $4, is_active = $5
WHERE id = $1
RETURNING id, code, name, sort_order, is_active, created_at
`

type UpdateAreaParams struct {
	ID        uuid.UUID
	Code      string
	Name      string
	SortOrder int32
	IsActive  bool
}

func (q *Queries) UpdateArea(ctx context.Context, arg UpdateAreaParams) (Area, error) {
	var a Area
	err := q.db.QueryRow(ctx, updateArea, arg.ID, arg.Code, arg.Name, arg.SortOrder, arg.IsActive).
		Scan(&a.ID, &a.Code, &a.Name, &a.SortOrder, &a.IsActive, &a.CreatedAt)
	return a, err
}

const deleteArea = `
DELETE FROM areas WHERE id = $1
`

func (q *Queries) DeleteArea(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteArea, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
