package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, number, code, status, order_type, table_id, customer_name, note, total_amount, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Number, &o.Code, &o.Status, &o.OrderType, &o.TableID,
		&o.CustomerName, &o.Note, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getNextOrderNumber = `
SELECT COALESCE(MAX(number), 0) + 1 FROM orders
`

// GetNextOrderNumber computes the next sequential order number. Two
// concurrent submissions can observe the same MAX; the caller retries on the
// resulting unique violation.
func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	var n int32
	err := q.db.QueryRow(ctx, getNextOrderNumber).Scan(&n)
	return n, err
}

const createOrder = `
INSERT INTO orders (number, code, order_type, table_id, customer_name, note, total_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + orderColumns + `
`

type CreateOrderParams struct {
	Number       int32
	Code         string
	OrderType    string
	TableID      uuid.UUID
	CustomerName string
	Note         pgtype.Text
	TotalAmount  int64
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.Number, arg.Code, arg.OrderType, arg.TableID,
		arg.CustomerName, arg.Note, arg.TotalAmount))
}

const getOrder = `
SELECT ` + orderColumns + ` FROM orders WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `
SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR NO KEY UPDATE
`

// GetOrderForUpdate locks the order row to serialize concurrent payment and
// edit operations inside a transaction.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrdersByStatus = `
SELECT o.id, o.number, o.code, o.status, o.order_type, o.table_id, o.customer_name,
       o.note, o.total_amount, o.created_at, o.updated_at, t.code AS table_code
FROM orders o
JOIN tables t ON t.id = o.table_id
WHERE o.status = $1
ORDER BY o.created_at
`

type ListOrdersByStatusRow struct {
	Order
	TableCode string
}

// ListOrdersByStatus feeds one lifecycle tab of the order board, oldest first.
func (q *Queries) ListOrdersByStatus(ctx context.Context, status string) ([]ListOrdersByStatusRow, error) {
	rows, err := q.db.Query(ctx, listOrdersByStatus, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListOrdersByStatusRow
	for rows.Next() {
		var r ListOrdersByStatusRow
		if err := rows.Scan(&r.ID, &r.Number, &r.Code, &r.Status, &r.OrderType, &r.TableID,
			&r.CustomerName, &r.Note, &r.TotalAmount, &r.CreatedAt, &r.UpdatedAt,
			&r.TableCode); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const countOrdersByStatus = `
SELECT status, COUNT(*) FROM orders GROUP BY status
`

type CountOrdersByStatusRow struct {
	Status string
	Count  int64
}

// CountOrdersByStatus supplies the badge counts for the four board tabs.
func (q *Queries) CountOrdersByStatus(ctx context.Context) ([]CountOrdersByStatusRow, error) {
	rows, err := q.db.Query(ctx, countOrdersByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CountOrdersByStatusRow
	for rows.Next() {
		var r CountOrdersByStatusRow
		if err := rows.Scan(&r.Status, &r.Count); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING ` + orderColumns + `
`

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	Status     string
	FromStatus string
}

// UpdateOrderStatus performs a compare-and-set transition: no rows means the
// order changed status between read and write.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status, arg.FromStatus))
}

const updateOrderTotal = `
UPDATE orders
SET total_amount = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns + `
`

type UpdateOrderTotalParams struct {
	ID          uuid.UUID
	TotalAmount int64
}

func (q *Queries) UpdateOrderTotal(ctx context.Context, arg UpdateOrderTotalParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderTotal, arg.ID, arg.TotalAmount))
}

const deletePendingOrder = `
DELETE FROM orders WHERE id = $1 AND status = 'PENDING'
`

// DeletePendingOrder cancels an order that has not been accepted yet. Line
// items go with it via ON DELETE CASCADE. Zero rows means the order is gone
// or has already progressed past PENDING.
func (q *Queries) DeletePendingOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deletePendingOrder, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Line items ---

const createOrderItem = `
INSERT INTO order_items (order_id, food_id, food_name, price, quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, food_id, food_name, price, quantity
`

type CreateOrderItemParams struct {
	OrderID  uuid.UUID
	FoodID   pgtype.UUID
	FoodName string
	Price    int64
	Quantity int32
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.FoodID, arg.FoodName, arg.Price, arg.Quantity).
		Scan(&it.ID, &it.OrderID, &it.FoodID, &it.FoodName, &it.Price, &it.Quantity)
	return it, err
}

const listOrderItemsByOrder = `
SELECT id, order_id, food_id, food_name, price, quantity
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.FoodID, &it.FoodName, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

const deleteOrderItemsByOrder = `
DELETE FROM order_items WHERE order_id = $1
`

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItemsByOrder, orderID)
	return err
}
