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

	"github.com/smartmenu/api/internal/database"
)

// AreaStore defines the database methods needed by area handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AreaStore interface {
	ListAreas(ctx context.Context) ([]database.Area, error)
	CreateArea(ctx context.Context, arg database.CreateAreaParams) (database.Area, error)
	UpdateArea(ctx context.Context, arg database.UpdateAreaParams) (database.Area, error)
	DeleteArea(ctx context.Context, id uuid.UUID) (int64, error)
}

// AreaHandler handles seating area CRUD endpoints.
type AreaHandler struct {
	store AreaStore
}

// NewAreaHandler creates a new AreaHandler.
func NewAreaHandler(store AreaStore) *AreaHandler {
	return &AreaHandler{store: store}
}

// RegisterRoutes registers area CRUD endpoints on the given Chi router.
func (h *AreaHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createAreaRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
}

type updateAreaRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	SortOrder int32  `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

type areaResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	SortOrder int32     `json:"sort_order"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toAreaResponse(a database.Area) areaResponse {
	return areaResponse{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		SortOrder: a.SortOrder,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}

// --- Handlers ---

// List returns all areas in display order.
func (h *AreaHandler) List(w http.ResponseWriter, r *http.Request) {
	areas, err := h.store.ListAreas(r.Context())
	if err != nil {
		log.Printf("ERROR: list areas: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]areaResponse, len(areas))
	for i, a := range areas {
		resp[i] = toAreaResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new seating area.
func (h *AreaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code and name are required"})
		return
	}

	area, err := h.store.CreateArea(r.Context(), database.CreateAreaParams{
		Code:      req.Code,
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "an area with this code already exists"})
			return
		}
		log.Printf("ERROR: create area: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toAreaResponse(area))
}

// Update modifies an existing area.
func (h *AreaHandler) Update(w http.ResponseWriter, r *http.Request) {
	areaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid area ID"})
		return
	}

	var req updateAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Code == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code and name are required"})
		return
	}

	area, err := h.store.UpdateArea(r.Context(), database.UpdateAreaParams{
		ID:        areaID,
		Code:      req.Code,
		Name:      req.Name,
		SortOrder: req.SortOrder,
		IsActive:  req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "area not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "an area with this code already exists"})
			return
		}
		log.Printf("ERROR: update area: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toAreaResponse(area))
}

// Delete removes an area. Areas that still have tables are protected by the
// foreign key.
func (h *AreaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	areaID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid area ID"})
		return
	}

	rows, err := h.store.DeleteArea(r.Context(), areaID)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "area still has tables"})
			return
		}
		log.Printf("ERROR: delete area: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rows == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "area not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
