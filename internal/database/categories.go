package database

import (
	"context"

	"github.com/google/uuid"
)

const listCategories = `
SELECT id, name, sort_order, is_active, created_at
FROM categories
ORDER BY sort_order, created_at
`

// ListCategories returns every category, active or not, in menu order.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const listActiveCategories = `
SELECT id, name, sort_order, is_active, created_at
FROM categories
WHERE is_active
ORDER BY sort_order, created_at
`

// ListActiveCategories returns the categories shown on the customer menu.
func (q *Queries) ListActiveCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listActiveCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const createCategory = `
INSERT INTO categories (name, sort_order)
VALUES ($1, $2)
RETURNING id, name, sort_order, is_active, created_at
`

type CreateCategoryParams struct {
	Name      string
	SortOrder int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, createCategory, arg.Name, arg.SortOrder).
		Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

const updateCategory = `
UPDATE categories
SET name = $2, sort_order = $3, is_active = $4
WHERE id = $1
RETURNING id, name, sort_order, is_active, created_at
`

type UpdateCategoryParams struct {
	ID        uuid.UUID
	Name      string
	SortOrder int32
	IsActive  bool
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name, arg.SortOrder, arg.IsActive).
		Scan(&c.ID, &c.Name, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

const deleteCategory = `
DELETE FROM categories WHERE id = $1
`

// DeleteCategory hard-deletes a category. Returns the number of rows removed.
func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
