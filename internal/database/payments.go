package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const createPayment = `
INSERT INTO payments (order_id, amount, method)
VALUES ($1, $2, $3)
RETURNING id, order_id, amount, method, paid_at
`

type CreatePaymentParams struct {
	OrderID uuid.UUID
	Amount  int64
	Method  string
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	var p Payment
	err := q.db.QueryRow(ctx, createPayment, arg.OrderID, arg.Amount, arg.Method).
		Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.PaidAt)
	return p, err
}

const getPaymentByOrder = `
SELECT id, order_id, amount, method, paid_at
FROM payments WHERE order_id = $1
`

func (q *Queries) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (Payment, error) {
	var p Payment
	err := q.db.QueryRow(ctx, getPaymentByOrder, orderID).
		Scan(&p.ID, &p.OrderID, &p.Amount, &p.Method, &p.PaidAt)
	return p, err
}

const sumPaymentsByMethod = `
SELECT method, COUNT(*), COALESCE(SUM(amount), 0)
FROM payments
WHERE paid_at >= $1 AND paid_at < $2
GROUP BY method
ORDER BY method
`

type SumPaymentsByMethodRow struct {
	Method string
	Count  int64
	Total  int64
}

// SumPaymentsByMethod aggregates settled payments in [start, end) for the
// daily sales report.
func (q *Queries) SumPaymentsByMethod(ctx context.Context, start, end time.Time) ([]SumPaymentsByMethodRow, error) {
	rows, err := q.db.Query(ctx, sumPaymentsByMethod, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SumPaymentsByMethodRow
	for rows.Next() {
		var r SumPaymentsByMethodRow
		if err := rows.Scan(&r.Method, &r.Count, &r.Total); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
