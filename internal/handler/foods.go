package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartmenu/api/internal/database"
	"github.com/smartmenu/api/internal/service"
)

// FoodStore defines the database methods needed by food handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type FoodStore interface {
	ListFoods(ctx context.Context) ([]database.ListFoodsRow, error)
	GetFood(ctx context.Context, id uuid.UUID) (database.Food, error)
	CreateFood(ctx context.Context, arg database.CreateFoodParams) (database.Food, error)
	UpdateFood(ctx context.Context, arg database.UpdateFoodParams) (database.Food, error)
	DeleteFood(ctx context.Context, id uuid.UUID) (int64, error)
	ListComboItemsByCombo(ctx context.Context, comboID uuid.UUID) ([]database.ComboItem, error)
	CreateComboItem(ctx context.Context, arg database.CreateComboItemParams) (database.ComboItem, error)
	DeleteComboItemsByCombo(ctx context.Context, comboID uuid.UUID) error
}

// NewFoodStore creates a FoodStore from a DBTX (pool or tx).
type NewFoodStore func(db database.DBTX) FoodStore

// FoodHandler handles food CRUD. Writes that touch both the food row and its
// combo component list run in a transaction so a failure can't leave a combo
// with half its components.
type FoodHandler struct {
	pool     service.TxBeginner
	store    FoodStore
	newStore NewFoodStore
}

// NewFoodHandler creates a new FoodHandler.
func NewFoodHandler(pool service.TxBeginner, store FoodStore, newStore NewFoodStore) *FoodHandler {
	return &FoodHandler{pool: pool, store: store, newStore: newStore}
}

// RegisterRoutes registers food CRUD endpoints on the given Chi router.
func (h *FoodHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type foodRequest struct {
	CategoryID  string   `json:"category_id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	ImageURL    string   `json:"image_url"`
	IsCombo     bool     `json:"is_combo"`
	IsAddon     bool     `json:"is_addon"`
	IsAvailable bool     `json:"is_available"`
	ComboItems  []string `json:"combo_items"`
}

type foodResponse struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	ImageURL     *string   `json:"image_url"`
	IsCombo      bool      `json:"is_combo"`
	IsAddon      bool      `json:"is_addon"`
	IsAvailable  bool      `json:"is_available"`
	CreatedAt    time.Time `json:"created_at"`
	ComboItems   []string  `json:"combo_items,omitempty"`
}

func toFoodResponse(f database.Food) foodResponse {
	resp := foodResponse{
		ID:          f.ID,
		CategoryID:  f.CategoryID,
		Name:        f.Name,
		Price:       f.Price,
		IsCombo:     f.IsCombo,
		IsAddon:     f.IsAddon,
		IsAvailable: f.IsAvailable,
		CreatedAt:   f.CreatedAt,
	}
	if f.ImageURL.Valid {
		resp.ImageURL = &f.ImageURL.String
	}
	return resp
}

func (req *foodRequest) validate() (uuid.UUID, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return uuid.Nil, errors.New("invalid category_id")
	}
	if req.Name == "" {
		return uuid.Nil, errors.New("name is required")
	}
	if req.Price < 0 {
		return uuid.Nil, errors.New("price must not be negative")
	}
	if req.IsCombo && req.IsAddon {
		return uuid.Nil, errors.New("a food cannot be both a combo and an add-on")
	}
	if !req.IsCombo && len(req.ComboItems) > 0 {
		return uuid.Nil, errors.New("combo_items are only allowed for combos")
	}
	for _, name := range req.ComboItems {
		if name == "" {
			return uuid.Nil, errors.New("combo item names must not be empty")
		}
	}
	return categoryID, nil
}

func (req *foodRequest) imageURL() *string {
	if req.ImageURL == "" {
		return nil
	}
	return &req.ImageURL
}

// --- Handlers ---

// List returns the whole catalog for the admin menu, newest first.
func (h *FoodHandler) List(w http.ResponseWriter, r *http.Request) {
	foods, err := h.store.ListFoods(r.Context())
	if err != nil {
		log.Printf("ERROR: list foods: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]foodResponse, len(foods))
	for i, f := range foods {
		fr := toFoodResponse(f.Food)
		fr.CategoryName = f.CategoryName
		resp[i] = fr
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one food with its combo components, for the admin editor.
func (h *FoodHandler) Get(w http.ResponseWriter, r *http.Request) {
	foodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid food ID"})
		return
	}

	food, err := h.store.GetFood(r.Context(), foodID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "food not found"})
			return
		}
		log.Printf("ERROR: get food: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toFoodResponse(food)
	if food.IsCombo {
		components, err := h.store.ListComboItemsByCombo(r.Context(), foodID)
		if err != nil {
			log.Printf("ERROR: list combo items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		for _, ci := range components {
			resp.ComboItems = append(resp.ComboItems, ci.ItemName)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new food, and its component list when it is a combo.
func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req foodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	categoryID, err := req.validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	food, err := h.createTx(r.Context(), categoryID, &req)
	if err != nil {
		h.writeFoodError(w, err, "create food")
		return
	}

	resp := toFoodResponse(*food)
	resp.ComboItems = req.ComboItems
	writeJSON(w, http.StatusCreated, resp)
}

// Update modifies a food and rewrites its component list. Components are
// replace-write: the old list is dropped and the submitted one inserted.
func (h *FoodHandler) Update(w http.ResponseWriter, r *http.Request) {
	foodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid food ID"})
		return
	}

	var req foodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	categoryID, err := req.validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	food, err := h.updateTx(r.Context(), foodID, categoryID, &req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "food not found"})
			return
		}
		h.writeFoodError(w, err, "update food")
		return
	}

	resp := toFoodResponse(*food)
	resp.ComboItems = req.ComboItems
	writeJSON(w, http.StatusOK, resp)
}

// Delete hard-deletes a food. Order line items keep their snapshots.
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	foodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid food ID"})
		return
	}

	rows, err := h.store.DeleteFood(r.Context(), foodID)
	if err != nil {
		log.Printf("ERROR: delete food: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rows == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "food not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Transactional writes ---

func (h *FoodHandler) createTx(ctx context.Context, categoryID uuid.UUID, req *foodRequest) (*database.Food, error) {
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := h.newStore(tx)

	food, err := store.CreateFood(ctx, database.CreateFoodParams{
		CategoryID:  categoryID,
		Name:        req.Name,
		Price:       req.Price,
		ImageURL:    req.imageURL(),
		IsCombo:     req.IsCombo,
		IsAddon:     req.IsAddon,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return nil, err
	}

	if err := insertComboItems(ctx, store, food.ID, req.ComboItems); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &food, nil
}

func (h *FoodHandler) updateTx(ctx context.Context, foodID, categoryID uuid.UUID, req *foodRequest) (*database.Food, error) {
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := h.newStore(tx)

	food, err := store.UpdateFood(ctx, database.UpdateFoodParams{
		ID:          foodID,
		CategoryID:  categoryID,
		Name:        req.Name,
		Price:       req.Price,
		ImageURL:    req.imageURL(),
		IsCombo:     req.IsCombo,
		IsAddon:     req.IsAddon,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return nil, err
	}

	if err := store.DeleteComboItemsByCombo(ctx, foodID); err != nil {
		return nil, err
	}
	if err := insertComboItems(ctx, store, foodID, req.ComboItems); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &food, nil
}

func insertComboItems(ctx context.Context, store FoodStore, comboID uuid.UUID, names []string) error {
	for i, name := range names {
		if _, err := store.CreateComboItem(ctx, database.CreateComboItemParams{
			ComboID:   comboID,
			ItemName:  name,
			SortOrder: int32(i),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (h *FoodHandler) writeFoodError(w http.ResponseWriter, err error, op string) {
	switch {
	case isUniqueViolation(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a food with this name already exists"})
	case isForeignKeyViolation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category not found"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
