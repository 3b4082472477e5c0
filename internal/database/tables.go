package database

import (
	"context"

	"github.com/google/uuid"
)

const listTables = `
SELECT t.id, t.code, t.name, t.area_id, t.index_number, t.created_at, a.name AS area_name
FROM tables t
JOIN areas a ON a.id = t.area_id
ORDER BY t.index_number, t.code
`

type ListTablesRow struct {
	Table
	AreaName string
}

func (q *Queries) ListTables(ctx context.Context) ([]ListTablesRow, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListTablesRow
	for rows.Next() {
		var r ListTablesRow
		if err := rows.Scan(&r.ID, &r.Code, &r.Name, &r.AreaID, &r.IndexNumber,
			&r.CreatedAt, &r.AreaName); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getTable = `
SELECT id, code, name, area_id, index_number, created_at
FROM tables WHERE id = $1
`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, getTable, id).
		Scan(&t.ID, &t.Code, &t.Name, &t.AreaID, &t.IndexNumber, &t.CreatedAt)
	return t, err
}

const getTableByCode = `
SELECT id, code, name, area_id, index_number, created_at
FROM tables WHERE code = $1
`

// GetTableByCode resolves the customer-facing code carried in the QR payload.
func (q *Queries) GetTableByCode(ctx context.Context, code string) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, getTableByCode, code).
		Scan(&t.ID, &t.Code, &t.Name, &t.AreaID, &t.IndexNumber, &t.CreatedAt)
	return t, err
}

const createTable = `
INSERT INTO tables (code, name, area_id, index_number)
VALUES ($1, $2, $3, $4)
RETURNING id, code, name, area_id, index_number, created_at
`

type CreateTableParams struct {
	Code        string
	Name        string
	AreaID      uuid.UUID
	IndexNumber int32
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, createTable, arg.Code, arg.Name, arg.AreaID, arg.IndexNumber).
		Scan(&t.ID, &t.Code, &t.Name, &t.AreaID, &t.IndexNumber, &t.CreatedAt)
	return t, err
}

const updateTable = `
UPDATE tables
SET code = $2, name = $3, area_id = $4, index_number = $5
WHERE id = $1
RETURNING id, code, name, area_id, index_number, created_at
`

type UpdateTableParams struct {
	ID          uuid.UUID
	Code        string
	Name        string
	AreaID      uuid.UUID
	IndexNumber int32
}

func (q *Queries) UpdateTable(ctx context.Context, arg UpdateTableParams) (Table, error) {
	var t Table
	err := q.db.QueryRow(ctx, updateTable, arg.ID, arg.Code, arg.Name, arg.AreaID, arg.IndexNumber).
		Scan(&t.ID, &t.Code, &t.Name, &t.AreaID, &t.IndexNumber, &t.CreatedAt)
	return t, err
}

const deleteTable = `
DELETE FROM tables WHERE id = $1
`

func (q *Queries) DeleteTable(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteTable, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
