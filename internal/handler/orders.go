package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartmenu/api/internal/cart"
	"github.com/smartmenu/api/internal/database"
	"github.com/smartmenu/api/internal/enum"
	"github.com/smartmenu/api/internal/service"
	"github.com/smartmenu/api/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	SubmitOrder(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error)
	Transition(ctx context.Context, orderID uuid.UUID, target string) (database.Order, error)
	CompleteWithPayment(ctx context.Context, orderID uuid.UUID, method string) (*service.PaymentResult, error)
	ReplaceItems(ctx context.Context, req service.ReplaceItemsRequest) (*service.ReplaceItemsResult, error)
}

// OrderStore defines the database methods needed by order read/delete
// handlers. Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrdersByStatus(ctx context.Context, status string) ([]database.ListOrdersByStatusRow, error)
	CountOrdersByStatus(ctx context.Context) ([]database.CountOrdersByStatusRow, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	DeletePendingOrder(ctx context.Context, id uuid.UUID) (int64, error)
	GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (database.Payment, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
}

// Notifier pushes order change events to connected staff boards.
// Satisfied by *ws.Hub.
type Notifier interface {
	Broadcast(event ws.Event)
}

// OrderHandler handles order submission, the staff board, and the order
// lifecycle endpoints.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderStore
	carts    *cart.Manager
	notifier Notifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, carts *cart.Manager, notifier Notifier) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, carts: carts, notifier: notifier}
}

// RegisterPublicRoutes registers the customer-facing submission endpoint.
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/orders", h.Submit)
}

// RegisterStaffRoutes registers the staff board endpoints. Expected to be
// mounted behind the auth middleware.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/counts", h.Counts)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}/status", h.UpdateStatus)
	r.Post("/orders/{id}/payment", h.Pay)
	r.Put("/orders/{id}/items", h.ReplaceItems)
	r.Delete("/orders/{id}", h.Delete)
	r.Get("/orders/{id}/receipt", h.Receipt)
}

// --- Request / Response types ---

type submitOrderRequest struct {
	CartID       string `json:"cart_id"`
	TableCode    string `json:"table_code"`
	OrderType    string `json:"order_type"`
	CustomerName string `json:"customer_name"`
	Note         string `json:"note"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type payRequest struct {
	Method string `json:"method"`
}

type replaceItemsRequest struct {
	Items []replaceItemRequest `json:"items"`
}

type replaceItemRequest struct {
	FoodID   string `json:"food_id"`
	Quantity int32  `json:"quantity"`
}

type orderResponse struct {
	ID           uuid.UUID `json:"id"`
	Number       int32     `json:"number"`
	Code         string    `json:"code"`
	Status       string    `json:"status"`
	OrderType    string    `json:"order_type"`
	TableID      uuid.UUID `json:"table_id"`
	TableCode    string    `json:"table_code,omitempty"`
	CustomerName string    `json:"customer_name"`
	Note         *string   `json:"note"`
	TotalAmount  int64     `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID       uuid.UUID `json:"id"`
	FoodID   *string   `json:"food_id"`
	FoodName string    `json:"food_name"`
	Price    int64     `json:"price"`
	Quantity int32     `json:"quantity"`
	Subtotal int64     `json:"subtotal"`
}

type orderDetailResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

type paymentResponse struct {
	ID      uuid.UUID `json:"id"`
	OrderID uuid.UUID `json:"order_id"`
	Amount  int64     `json:"amount"`
	Method  string    `json:"method"`
	PaidAt  time.Time `json:"paid_at"`
}

type receiptResponse struct {
	Order   orderResponse       `json:"order"`
	Items   []orderItemResponse `json:"items"`
	Payment paymentResponse     `json:"payment"`
}

func toOrderResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:           o.ID,
		Number:       o.Number,
		Code:         o.Code,
		Status:       o.Status,
		OrderType:    o.OrderType,
		TableID:      o.TableID,
		CustomerName: o.CustomerName,
		TotalAmount:  o.TotalAmount,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	if o.Note.Valid {
		resp.Note = &o.Note.String
	}
	return resp
}

func toOrderItemResponses(items []database.OrderItem) []orderItemResponse {
	resp := make([]orderItemResponse, len(items))
	for i, it := range items {
		r := orderItemResponse{
			ID:       it.ID,
			FoodName: it.FoodName,
			Price:    it.Price,
			Quantity: it.Quantity,
			Subtotal: it.Price * int64(it.Quantity),
		}
		if it.FoodID.Valid {
			s := uuid.UUID(it.FoodID.Bytes).String()
			r.FoodID = &s
		}
		resp[i] = r
	}
	return resp
}

func toPaymentResponse(p database.Payment) paymentResponse {
	return paymentResponse{
		ID:      p.ID,
		OrderID: p.OrderID,
		Amount:  p.Amount,
		Method:  p.Method,
		PaidAt:  p.PaidAt,
	}
}

// --- Handlers ---

// Submit turns a cart into a persisted order. On success the cart session
// is discarded and the boards are notified.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart_id"})
		return
	}
	c := h.carts.Get(cartID)
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
		return
	}

	lines := c.Items()
	items := make([]service.SubmitItemRequest, len(lines))
	for i, line := range lines {
		items[i] = service.SubmitItemRequest{
			FoodID:   line.FoodID,
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
		}
	}

	result, err := h.svc.SubmitOrder(r.Context(), service.SubmitOrderRequest{
		TableCode:    req.TableCode,
		OrderType:    req.OrderType,
		CustomerName: req.CustomerName,
		Note:         req.Note,
		Items:        items,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTableNotFound), errors.Is(err, service.ErrFoodNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case isOrderValidationError(err):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: submit order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	// The order is committed; the cart session has served its purpose.
	h.carts.Delete(cartID)

	h.broadcast("order.created", result.Order)

	writeJSON(w, http.StatusCreated, orderDetailResponse{
		orderResponse: toOrderResponse(result.Order),
		Items:         toOrderItemResponses(result.Items),
	})
}

// List returns one lifecycle tab of the order board, oldest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if !isKnownStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	orders, err := h.store.ListOrdersByStatus(r.Context(), status)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		r := toOrderResponse(o.Order)
		r.TableCode = o.TableCode
		resp[i] = r
	}
	writeJSON(w, http.StatusOK, resp)
}

// Counts returns the badge count for each of the four board tabs. Statuses
// with no orders report zero.
func (h *OrderHandler) Counts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.CountOrdersByStatus(r.Context())
	if err != nil {
		log.Printf("ERROR: count orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	counts := map[string]int64{
		enum.OrderStatusPending:      0,
		enum.OrderStatusConfirmed:    0,
		enum.OrderStatusAwaitPayment: 0,
		enum.OrderStatusDone:         0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	writeJSON(w, http.StatusOK, counts)
}

// Get returns an order with its line items.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{
		orderResponse: toOrderResponse(order),
		Items:         toOrderItemResponses(items),
	}
	if table, err := h.store.GetTable(r.Context(), order.TableID); err == nil {
		resp.TableCode = table.Code
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus moves an order forward along PENDING -> CONFIRMED ->
// AWAIT_PAYMENT. The final step to DONE goes through Pay.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.Transition(r.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		case errors.Is(err, service.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order status changed, please retry"})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcast("order.updated", order)
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// Pay settles an AWAIT_PAYMENT order and marks it DONE.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.CompleteWithPayment(r.Context(), orderID, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment method"})
		case errors.Is(err, service.ErrNotAwaitingPayment), errors.Is(err, service.ErrAlreadyPaid),
			errors.Is(err, service.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: complete payment: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcast("order.paid", result.Order)
	writeJSON(w, http.StatusOK, struct {
		Order   orderResponse   `json:"order"`
		Payment paymentResponse `json:"payment"`
	}{
		Order:   toOrderResponse(result.Order),
		Payment: toPaymentResponse(result.Payment),
	})
}

// ReplaceItems swaps out the line items of a pending order.
func (h *OrderHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req replaceItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.ReplaceItemRequest, len(req.Items))
	for i, it := range req.Items {
		foodID, err := uuid.Parse(it.FoodID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid food_id"})
			return
		}
		items[i] = service.ReplaceItemRequest{FoodID: foodID, Quantity: it.Quantity}
	}

	result, err := h.svc.ReplaceItems(r.Context(), service.ReplaceItemsRequest{
		OrderID: orderID,
		Items:   items,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrFoodNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOrderNotPending):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "only pending orders can be edited"})
		case errors.Is(err, service.ErrInvalidQuantity):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: replace order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcast("order.updated", result.Order)
	writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse: toOrderResponse(result.Order),
		Items:         toOrderItemResponses(result.Items),
	})
}

// Delete cancels a pending order. Orders past PENDING cannot be removed.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	rows, err := h.store.DeletePendingOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: delete order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rows == 0 {
		// Either the order never existed or it has moved past PENDING.
		if _, err := h.store.GetOrder(r.Context(), orderID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
				return
			}
			log.Printf("ERROR: get order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		writeJSON(w, http.StatusConflict, map[string]string{"error": "only pending orders can be deleted"})
		return
	}

	if h.notifier != nil {
		payload, _ := json.Marshal(map[string]string{"id": orderID.String()})
		h.notifier.Broadcast(ws.Event{Type: "order.deleted", Payload: payload})
	}
	w.WriteHeader(http.StatusNoContent)
}

// Receipt returns the settled order with its payment, for reprinting.
func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payment, err := h.store.GetPaymentByOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order has no payment yet"})
			return
		}
		log.Printf("ERROR: get payment: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	orderResp := toOrderResponse(order)
	if table, err := h.store.GetTable(r.Context(), order.TableID); err == nil {
		orderResp.TableCode = table.Code
	}

	writeJSON(w, http.StatusOK, receiptResponse{
		Order:   orderResp,
		Items:   toOrderItemResponses(items),
		Payment: toPaymentResponse(payment),
	})
}

// --- Helpers ---

func (h *OrderHandler) broadcast(eventType string, order database.Order) {
	if h.notifier == nil {
		return
	}
	payload, err := json.Marshal(toOrderResponse(order))
	if err != nil {
		return
	}
	h.notifier.Broadcast(ws.Event{Type: eventType, Payload: payload})
}

func isKnownStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusConfirmed,
		enum.OrderStatusAwaitPayment, enum.OrderStatusDone:
		return true
	}
	return false
}

func isOrderValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidQuantity)
}
