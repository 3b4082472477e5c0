package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartmenu/api/internal/database"
)

// MenuStore defines the database methods needed by the public menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListActiveCategories(ctx context.Context) ([]database.Category, error)
	ListAvailableFoodsByCategory(ctx context.Context, categoryID uuid.UUID) ([]database.Food, error)
	ListComboItemsByCombos(ctx context.Context, comboIDs []uuid.UUID) ([]database.ComboItem, error)
	GetTableByCode(ctx context.Context, code string) (database.Table, error)
}

// MenuHandler serves the customer-facing menu. No authentication; this is
// what the QR code lands on.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers public menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.Menu)
	r.Get("/tables/code/{code}", h.ResolveTable)
}

// --- Response types ---

type menuFoodResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Price      int64     `json:"price"`
	ImageURL   *string   `json:"image_url"`
	ComboItems []string  `json:"combo_items,omitempty"`
}

type menuCategoryResponse struct {
	ID     uuid.UUID          `json:"id"`
	Name   string             `json:"name"`
	Combos []menuFoodResponse `json:"combos"`
	Mains  []menuFoodResponse `json:"mains"`
	Addons []menuFoodResponse `json:"addons"`
}

type tableInfoResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AreaID      uuid.UUID `json:"area_id"`
	IndexNumber int32     `json:"index_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// --- Handlers ---

// Menu returns the active categories with their available foods, partitioned
// into combos, mains and add-ons, newest foods first. Combo entries embed
// their component names so the customer page needs a single request.
func (h *MenuHandler) Menu(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListActiveCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuCategoryResponse, 0, len(categories))
	var comboIDs []uuid.UUID
	comboSlots := make(map[uuid.UUID]*menuFoodResponse)

	for _, c := range categories {
		foods, err := h.store.ListAvailableFoodsByCategory(r.Context(), c.ID)
		if err != nil {
			log.Printf("ERROR: list foods for category %s: %v", c.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		cat := menuCategoryResponse{
			ID:     c.ID,
			Name:   c.Name,
			Combos: []menuFoodResponse{},
			Mains:  []menuFoodResponse{},
			Addons: []menuFoodResponse{},
		}
		for _, f := range foods {
			entry := menuFoodResponse{ID: f.ID, Name: f.Name, Price: f.Price}
			if f.ImageURL.Valid {
				entry.ImageURL = &f.ImageURL.String
			}
			switch {
			case f.IsCombo:
				cat.Combos = append(cat.Combos, entry)
				comboIDs = append(comboIDs, f.ID)
			case f.IsAddon:
				cat.Addons = append(cat.Addons, entry)
			default:
				cat.Mains = append(cat.Mains, entry)
			}
		}
		resp = append(resp, cat)
		for i := range cat.Combos {
			comboSlots[cat.Combos[i].ID] = &resp[len(resp)-1].Combos[i]
		}
	}

	if len(comboIDs) > 0 {
		components, err := h.store.ListComboItemsByCombos(r.Context(), comboIDs)
		if err != nil {
			log.Printf("ERROR: list combo items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		for _, ci := range components {
			if slot, ok := comboSlots[ci.ComboID]; ok {
				slot.ComboItems = append(slot.ComboItems, ci.ItemName)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResolveTable looks up the table behind a scanned QR code.
func (h *MenuHandler) ResolveTable(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	table, err := h.store.GetTableByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table by code: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tableInfoResponse{
		ID:          table.ID,
		Code:        table.Code,
		Name:        table.Name,
		AreaID:      table.AreaID,
		IndexNumber: table.IndexNumber,
		CreatedAt:   table.CreatedAt,
	})
}
