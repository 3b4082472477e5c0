package database

import (
	"context"

	"github.com/google/uuid"
)

const foodColumns = `id, category_id, name, price, image_url, is_combo, is_addon, is_available, created_at`

func scanFood(row interface{ Scan(...any) error }) (Food, error) {
	var f Food
	err := row.Scan(&f.ID, &f.CategoryID, &f.Name, &f.Price, &f.ImageURL,
		&f.IsCombo, &f.IsAddon, &f.IsAvailable, &f.CreatedAt)
	return f, err
}

const listFoods = `
SELECT f.id, f.category_id, f.name, f.price, f.image_url, f.is_combo, f.is_addon,
       f.is_available, f.created_at, c.name AS category_name
FROM foods f
JOIN categories c ON c.id = f.category_id
ORDER BY f.created_at DESC
`

type ListFoodsRow struct {
	Food
	CategoryName string
}

// ListFoods returns the full catalog for the admin menu, newest first.
func (q *Queries) ListFoods(ctx context.Context) ([]ListFoodsRow, error) {
	rows, err := q.db.Query(ctx, listFoods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListFoodsRow
	for rows.Next() {
		var r ListFoodsRow
		if err := rows.Scan(&r.ID, &r.CategoryID, &r.Name, &r.Price, &r.ImageURL,
			&r.IsCombo, &r.IsAddon, &r.IsAvailable, &r.CreatedAt, &r.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const listAvailableFoodsByCategory = `
SELECT ` + foodColumns + `
FROM foods
WHERE category_id = $1 AND is_available
ORDER BY created_at DESC
`

// ListAvailableFoodsByCategory returns the customer-visible foods for one
// category, newest first. Grouping into combo/main/add-on happens in the
// menu handler.
func (q *Queries) ListAvailableFoodsByCategory(ctx context.Context, categoryID uuid.UUID) ([]Food, error) {
	rows, err := q.db.Query(ctx, listAvailableFoodsByCategory, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Food
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

const getFood = `
SELECT ` + foodColumns + ` FROM foods WHERE id = $1
`

func (q *Queries) GetFood(ctx context.Context, id uuid.UUID) (Food, error) {
	return scanFood(q.db.QueryRow(ctx, getFood, id))
}

const getAvailableFood = `
SELECT ` + foodColumns + ` FROM foods WHERE id = $1 AND is_available
`

// GetAvailableFood is the cart/editor lookup: only foods currently on sale
// can be added.
func (q *Queries) GetAvailableFood(ctx context.Context, id uuid.UUID) (Food, error) {
	return scanFood(q.db.QueryRow(ctx, getAvailableFood, id))
}

const createFood = `
INSERT INTO foods (category_id, name, price, image_url, is_combo, is_addon, is_available)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + foodColumns + `
`

type CreateFoodParams struct {
	CategoryID  uuid.UUID
	Name        string
	Price       int64
	ImageURL    *string
	IsCombo     bool
	IsAddon     bool
	IsAvailable bool
}

func (q *Queries) CreateFood(ctx context.Context, arg CreateFoodParams) (Food, error) {
	return scanFood(q.db.QueryRow(ctx, createFood,
		arg.CategoryID, arg.Name, arg.Price, arg.ImageURL,
		arg.IsCombo, arg.IsAddon, arg.IsAvailable))
}

const updateFood = `
UPDATE foods
SET category_id = $2, name = $3, price = $4, image_url = $5,
    is_combo = $6, is_addon = $7, is_available = $8
WHERE id = $1
RETURNING ` + foodColumns + `
`

type UpdateFoodParams struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Price       int64
	ImageURL    *string
	IsCombo     bool
	IsAddon     bool
	IsAvailable bool
}

func (q *Queries) UpdateFood(ctx context.Context, arg UpdateFoodParams) (Food, error) {
	return scanFood(q.db.QueryRow(ctx, updateFood,
		arg.ID, arg.CategoryID, arg.Name, arg.Price, arg.ImageURL,
		arg.IsCombo, arg.IsAddon, arg.IsAvailable))
}

const deleteFood = `
DELETE FROM foods WHERE id = $1
`

// DeleteFood hard-deletes a food. Existing order line items keep their
// snapshotted name and price; their food_id becomes NULL.
func (q *Queries) DeleteFood(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteFood, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Combo components ---

const listComboItemsByCombo = `
SELECT id, combo_id, item_name, sort_order
FROM combo_items
WHERE combo_id = $1
ORDER BY sort_order
`

func (q *Queries) ListComboItemsByCombo(ctx context.Context, comboID uuid.UUID) ([]ComboItem, error) {
	rows, err := q.db.Query(ctx, listComboItemsByCombo, comboID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ComboItem
	for rows.Next() {
		var ci ComboItem
		if err := rows.Scan(&ci.ID, &ci.ComboID, &ci.ItemName, &ci.SortOrder); err != nil {
			return nil, err
		}
		items = append(items, ci)
	}
	return items, rows.Err()
}

const listComboItemsByCombos = `
SELECT id, combo_id, item_name, sort_order
FROM combo_items
WHERE combo_id = ANY($1)
ORDER BY combo_id, sort_order
`

// ListComboItemsByCombos batches component lookups for a whole menu page.
func (q *Queries) ListComboItemsByCombos(ctx context.Context, comboIDs []uuid.UUID) ([]ComboItem, error) {
	rows, err := q.db.Query(ctx, listComboItemsByCombos, comboIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ComboItem
	for rows.Next() {
		var ci ComboItem
		if err := rows.Scan(&ci.ID, &ci.ComboID, &ci.ItemName, &ci.SortOrder); err != nil {
			return nil, err
		}
		items = append(items, ci)
	}
	return items, rows.Err()
}

const createComboItem = `
INSERT INTO combo_items (combo_id, item_name, sort_order)
VALUES ($1, $2, $3)
RETURNING id, combo_id, item_name, sort_order
`

type CreateComboItemParams struct {
	ComboID   uuid.UUID
	ItemName  string
	SortOrder int32
}

func (q *Queries) CreateComboItem(ctx context.Context, arg CreateComboItemParams) (ComboItem, error) {
	var ci ComboItem
	err := q.db.QueryRow(ctx, createComboItem, arg.ComboID, arg.ItemName, arg.SortOrder).
		Scan(&ci.ID, &ci.ComboID, &ci.ItemName, &ci.SortOrder)
	return ci, err
}

const deleteComboItemsByCombo = `
DELETE FROM combo_items WHERE combo_id = $1
`

func (q *Queries) DeleteComboItemsByCombo(ctx context.Context, comboID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteComboItemsByCombo, comboID)
	return err
}
