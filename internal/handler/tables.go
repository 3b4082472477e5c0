package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/smartmenu/api/internal/database"
)

// TableStore defines the database methods needed by table handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.ListTablesRow, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	CreateTable(ctx context.Context, arg database.CreateTableParams) (database.Table, error)
	UpdateTable(ctx context.Context, arg database.UpdateTableParams) (database.Table, error)
	DeleteTable(ctx context.Context, id uuid.UUID) (int64, error)
}

// TableHandler handles table CRUD and QR code generation.
type TableHandler struct {
	store TableStore

	// publicBaseURL is the customer-facing origin encoded into QR codes.
	publicBaseURL string
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(store TableStore, publicBaseURL string) *TableHandler {
	return &TableHandler{store: store, publicBaseURL: publicBaseURL}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/qr", h.QRCode)
}

// --- Request / Response types ---

type tableRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	AreaID      string `json:"area_id"`
	IndexNumber int32  `json:"index_number"`
}

type tableResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AreaID      uuid.UUID `json:"area_id"`
	AreaName    string    `json:"area_name,omitempty"`
	IndexNumber int32     `json:"index_number"`
	QRTarget    string    `json:"qr_target"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *TableHandler) toTableResponse(t database.Table) tableResponse {
	return tableResponse{
		ID:          t.ID,
		Code:        t.Code,
		Name:        t.Name,
		AreaID:      t.AreaID,
		IndexNumber: t.IndexNumber,
		QRTarget:    h.qrTarget(t.Code),
		CreatedAt:   t.CreatedAt,
	}
}

// qrTarget is the URL a customer lands on after scanning the table's code.
func (h *TableHandler) qrTarget(code string) string {
	return fmt.Sprintf("%s/?table=%s", h.publicBaseURL, url.QueryEscape(code))
}

// --- Handlers ---

// List returns all tables with their area names, in seating order.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		tr := h.toTableResponse(t.Table)
		tr.AreaName = t.AreaName
		resp[i] = tr
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new table.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	areaID, err := h.validate(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	table, err := h.store.CreateTable(r.Context(), database.CreateTableParams{
		Code:        req.Code,
		Name:        req.Name,
		AreaID:      areaID,
		IndexNumber: req.IndexNumber,
	})
	if err != nil {
		h.writeTableError(w, err, "create table")
		return
	}

	writeJSON(w, http.StatusCreated, h.toTableResponse(table))
}

// Update modifies an existing table.
func (h *TableHandler) Update(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	var req tableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	areaID, err := h.validate(&req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	table, err := h.store.UpdateTable(r.Context(), database.UpdateTableParams{
		ID:          tableID,
		Code:        req.Code,
		Name:        req.Name,
		AreaID:      areaID,
		IndexNumber: req.IndexNumber,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		h.writeTableError(w, err, "update table")
		return
	}

	writeJSON(w, http.StatusOK, h.toTableResponse(table))
}

// Delete removes a table. Tables referenced by orders are protected by the
// foreign key.
func (h *TableHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	rows, err := h.store.DeleteTable(r.Context(), tableID)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table has orders"})
			return
		}
		log.Printf("ERROR: delete table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if rows == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// QRCode renders the table's QR code as a PNG, ready for printing.
func (h *TableHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	tableID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}

	table, err := h.store.GetTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	png, err := qrcode.Encode(h.qrTarget(table.Code), qrcode.Medium, 512)
	if err != nil {
		log.Printf("ERROR: encode qr code: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="table-%s.png"`, table.Code))
	w.WriteHeader(http.StatusOK)
	w.Write(png) //nolint:errcheck
}

// --- Helpers ---

func (h *TableHandler) validate(req *tableRequest) (uuid.UUID, error) {
	if req.Code == "" || req.Name == "" {
		return uuid.Nil, errors.New("code and name are required")
	}
	areaID, err := uuid.Parse(req.AreaID)
	if err != nil {
		return uuid.Nil, errors.New("invalid area_id")
	}
	return areaID, nil
}

func (h *TableHandler) writeTableError(w http.ResponseWriter, err error, op string) {
	switch {
	case isUniqueViolation(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a table with this code already exists"})
	case isForeignKeyViolation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "area not found"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
