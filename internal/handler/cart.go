package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartmenu/api/internal/cart"
	"github.com/smartmenu/api/internal/database"
)

// CartStore defines the database methods needed by cart handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CartStore interface {
	GetAvailableFood(ctx context.Context, id uuid.UUID) (database.Food, error)
}

// CartHandler exposes the server-held customer cart. Carts live in memory
// and are keyed by a session ID issued at creation.
type CartHandler struct {
	carts *cart.Manager
	store CartStore
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts *cart.Manager, store CartStore) *CartHandler {
	return &CartHandler{carts: carts, store: store}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Post("/carts", h.Create)
	r.Get("/carts/{id}", h.Get)
	r.Delete("/carts/{id}", h.Delete)
	r.Post("/carts/{id}/items", h.AddItem)
	r.Post("/carts/{id}/items/{foodID}/increase", h.IncreaseItem)
	r.Post("/carts/{id}/items/{foodID}/decrease", h.DecreaseItem)
	r.Delete("/carts/{id}/items/{foodID}", h.RemoveItem)
}

// --- Request / Response types ---

type addCartItemRequest struct {
	FoodID   string `json:"food_id"`
	Quantity int32  `json:"quantity"`
}

type cartResponse struct {
	ID            uuid.UUID   `json:"id"`
	Items         []cart.Item `json:"items"`
	TotalQuantity int32       `json:"total_quantity"`
	TotalPrice    int64       `json:"total_price"`
}

func toCartResponse(id uuid.UUID, c *cart.Cart) cartResponse {
	items := c.Items()
	if items == nil {
		items = []cart.Item{}
	}
	return cartResponse{
		ID:            id,
		Items:         items,
		TotalQuantity: c.TotalQuantity(),
		TotalPrice:    c.TotalPrice(),
	}
}

// --- Handlers ---

// Create opens a new empty cart session.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := h.carts.Create()
	writeJSON(w, http.StatusCreated, toCartResponse(id, h.carts.Get(id)))
}

// Get returns the cart contents and running totals.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(id, c))
}

// Delete discards the cart session entirely.
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.carts.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// AddItem puts a food in the cart, merging with an existing line for the
// same food. The name and price are snapshotted from the catalog here.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	foodID, err := uuid.Parse(req.FoodID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid food_id"})
		return
	}

	food, err := h.store.GetAvailableFood(r.Context(), foodID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "food not found"})
			return
		}
		log.Printf("ERROR: get food: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	item := cart.Item{FoodID: food.ID, Name: food.Name, Price: food.Price}
	if food.ImageURL.Valid {
		item.ImageURL = &food.ImageURL.String
	}
	c.Add(item, req.Quantity)

	writeJSON(w, http.StatusOK, toCartResponse(id, c))
}

// IncreaseItem bumps a line's quantity by one.
func (h *CartHandler) IncreaseItem(w http.ResponseWriter, r *http.Request) {
	h.adjustItem(w, r, func(c *cart.Cart, foodID uuid.UUID) bool { return c.Increase(foodID) })
}

// DecreaseItem lowers a line's quantity by one, never below one.
func (h *CartHandler) DecreaseItem(w http.ResponseWriter, r *http.Request) {
	h.adjustItem(w, r, func(c *cart.Cart, foodID uuid.UUID) bool { return c.Decrease(foodID) })
}

// RemoveItem drops a line from the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.adjustItem(w, r, func(c *cart.Cart, foodID uuid.UUID) bool { return c.Remove(foodID) })
}

// --- Helpers ---

func (h *CartHandler) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *cart.Cart, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart ID"})
		return uuid.Nil, nil, false
	}
	c := h.carts.Get(id)
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found"})
		return uuid.Nil, nil, false
	}
	return id, c, true
}

func (h *CartHandler) adjustItem(w http.ResponseWriter, r *http.Request, fn func(*cart.Cart, uuid.UUID) bool) {
	id, c, ok := h.lookup(w, r)
	if !ok {
		return
	}
	foodID, err := uuid.Parse(chi.URLParam(r, "foodID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid food ID"})
		return
	}
	if !fn(c, foodID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "food not in cart"})
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(id, c))
}
