package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/smartmenu/api/internal/database"
	"github.com/smartmenu/api/internal/enum"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrTableNotFound        = errors.New("table not found")
	ErrFoodNotFound         = errors.New("food not found or unavailable")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("status transition not allowed")
	ErrStatusConflict       = errors.New("order status changed concurrently")
	ErrOrderNotPending      = errors.New("order is no longer pending")
	ErrNotAwaitingPayment   = errors.New("order is not awaiting payment")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrAlreadyPaid          = errors.New("order already paid")
)

// allowedTransitions lists the legal forward moves for the status endpoint.
// AWAIT_PAYMENT leaves via CompleteWithPayment only, so the order and its
// payment are always written together.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:      {enum.OrderStatusConfirmed},
	enum.OrderStatusConfirmed:    {enum.OrderStatusAwaitPayment},
	enum.OrderStatusAwaitPayment: {},
	enum.OrderStatusDone:         {},
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int32, error)
	GetTableByCode(ctx context.Context, code string) (database.Table, error)
	GetAvailableFood(ctx context.Context, id uuid.UUID) (database.Food, error)
	GetFood(ctx context.Context, id uuid.UUID) (database.Food, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// SubmitOrderRequest is the validated input for submitting a customer order.
// Item names and prices are the cart's snapshots, taken when the customer
// added the food, so a catalog edit mid-session does not reprice the cart.
type SubmitOrderRequest struct {
	TableCode    string
	OrderType    string
	CustomerName string
	Note         string
	Items        []SubmitItemRequest
}

// SubmitItemRequest is a single cart line in the submission.
type SubmitItemRequest struct {
	FoodID   uuid.UUID
	Name     string
	Price    int64
	Quantity int32
}

// SubmitOrderResult is the persisted order with its line items.
type SubmitOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// ReplaceItemsRequest replaces the whole line item set of a pending order.
type ReplaceItemsRequest struct {
	OrderID uuid.UUID
	Items   []ReplaceItemRequest
}

// ReplaceItemRequest is one line in the replacement set.
type ReplaceItemRequest struct {
	FoodID   uuid.UUID
	Quantity int32
}

// ReplaceItemsResult is the updated order with its new line items.
type ReplaceItemsResult struct {
	Order database.Order
	Items []database.OrderItem
}

// PaymentResult is the settled order with its payment record.
type PaymentResult struct {
	Order   database.Order
	Payment database.Payment
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService. store is used for reads outside
// transactions; newStore builds tx-scoped stores for multi-statement writes.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore}
}

// SubmitOrder validates the cart and persists the order atomically.
// Retries up to maxOrderNumberRetries times on order number unique constraint
// violations (race condition where concurrent transactions get the same MAX).
func (s *OrderService) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if err := validateOrderType(req.OrderType); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	// Retry loop: handles the order number unique constraint race condition.
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.submitOrderTx(ctx, req)
		if err == nil {
			return result, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order number or code (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" &&
			(pgErr.ConstraintName == "orders_number_key" || pgErr.ConstraintName == "orders_code_key")
	}
	return false
}

// submitOrderTx executes the full order creation in a single transaction.
func (s *OrderService) submitOrderTx(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Resolve table ---
	table, err := store.GetTableByCode(ctx, req.TableCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}

	// --- Verify foods still exist and are available ---
	for i, item := range req.Items {
		if _, err := store.GetAvailableFood(ctx, item.FoodID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrFoodNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get food: %w", i, err)
		}
	}

	// --- Generate order number ---
	nextNum, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get next order number: %w", err)
	}
	orderCode := fmt.Sprintf("ORD-%06d", nextNum)

	// --- Calculate total from the cart snapshots ---
	var totalAmount int64
	for _, item := range req.Items {
		totalAmount += item.Price * int64(item.Quantity)
	}

	customerName := req.CustomerName
	if customerName == "" {
		customerName = enum.DefaultCustomerName
	}

	note := pgtype.Text{}
	if req.Note != "" {
		note = pgtype.Text{String: req.Note, Valid: true}
	}

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		Number:       nextNum,
		Code:         orderCode,
		OrderType:    req.OrderType,
		TableID:      table.ID,
		CustomerName: customerName,
		Note:         note,
		TotalAmount:  totalAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert items ---
	var items []database.OrderItem
	for _, item := range req.Items {
		it, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:  order.ID,
			FoodID:   pgtype.UUID{Bytes: item.FoodID, Valid: true},
			FoodName: item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &SubmitOrderResult{Order: order, Items: items}, nil
}

// Transition moves an order one step forward along the lifecycle. The update
// is a compare-and-set against the status we read, so a concurrent transition
// surfaces as ErrStatusConflict instead of silently double-applying.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, target string) (database.Order, error) {
	if !isValidStatus(target) {
		return database.Order{}, ErrInvalidStatus
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("get order: %w", err)
	}

	if !transitionAllowed(order.Status, target) {
		return database.Order{}, ErrInvalidTransition
	}

	updated, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     target,
		FromStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrStatusConflict
		}
		return database.Order{}, fmt.Errorf("update status: %w", err)
	}
	return updated, nil
}

// CompleteWithPayment settles an AWAIT_PAYMENT order: it records the payment
// and marks the order DONE in one transaction. The payments.order_id unique
// constraint guarantees at most one payment per order.
func (s *OrderService) CompleteWithPayment(ctx context.Context, orderID uuid.UUID, method string) (*PaymentResult, error) {
	if method != enum.PaymentMethodCash && method != enum.PaymentMethodTransfer {
		return nil, ErrInvalidPaymentMethod
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusAwaitPayment {
		return nil, ErrNotAwaitingPayment
	}

	payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
		OrderID: orderID,
		Amount:  order.TotalAmount,
		Method:  method,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyPaid
		}
		return nil, fmt.Errorf("create payment: %w", err)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		Status:     enum.OrderStatusDone,
		FromStatus: enum.OrderStatusAwaitPayment,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &PaymentResult{Order: updated, Payment: payment}, nil
}

// ReplaceItems swaps a pending order's entire line item set and recomputes the
// total, all in one transaction. Lines whose food was already on the order
// keep their original name and price snapshot; foods new to the order are
// snapshotted from the current catalog. An empty set is legal and leaves the
// order with no items and a zero total.
func (s *OrderService) ReplaceItems(ctx context.Context, req ReplaceItemsRequest) (*ReplaceItemsResult, error) {
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusPending {
		return nil, ErrOrderNotPending
	}

	// Existing snapshots, so repriced catalog entries don't rewrite lines the
	// customer already ordered.
	existing, err := store.ListOrderItemsByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	snapshots := make(map[uuid.UUID]database.OrderItem, len(existing))
	for _, it := range existing {
		if it.FoodID.Valid {
			snapshots[uuid.UUID(it.FoodID.Bytes)] = it
		}
	}

	if err := store.DeleteOrderItemsByOrder(ctx, req.OrderID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}

	var totalAmount int64
	var items []database.OrderItem
	for i, item := range req.Items {
		var name string
		var price int64
		if snap, ok := snapshots[item.FoodID]; ok {
			name = snap.FoodName
			price = snap.Price
		} else {
			food, err := store.GetFood(ctx, item.FoodID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("item[%d]: %w", i, ErrFoodNotFound)
				}
				return nil, fmt.Errorf("item[%d]: get food: %w", i, err)
			}
			name = food.Name
			price = food.Price
		}

		it, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:  req.OrderID,
			FoodID:   pgtype.UUID{Bytes: item.FoodID, Valid: true},
			FoodName: name,
			Price:    price,
			Quantity: item.Quantity,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		totalAmount += price * int64(item.Quantity)
		items = append(items, it)
	}

	updated, err := store.UpdateOrderTotal(ctx, database.UpdateOrderTotalParams{
		ID:          req.OrderID,
		TotalAmount: totalAmount,
	})
	if err != nil {
		return nil, fmt.Errorf("update total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &ReplaceItemsResult{Order: updated, Items: items}, nil
}

// --- Helpers ---

func validateOrderType(s string) error {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeTakeaway:
		return nil
	}
	return ErrInvalidOrderType
}

func isValidStatus(s string) bool {
	_, ok := allowedTransitions[s]
	return ok
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
