package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/smartmenu/api/internal/database"
)

// ReportStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportStore interface {
	SumPaymentsByMethod(ctx context.Context, start, end time.Time) ([]database.SumPaymentsByMethodRow, error)
}

// ReportHandler handles sales report endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily", h.Daily)
}

// --- Response types ---

type methodBreakdownResponse struct {
	Method string `json:"method"`
	Count  int64  `json:"count"`
	Total  int64  `json:"total"`
}

type dailyReportResponse struct {
	Date         string                    `json:"date"`
	OrderCount   int64                     `json:"order_count"`
	TotalRevenue int64                     `json:"total_revenue"`
	AverageOrder string                    `json:"average_order"`
	Methods      []methodBreakdownResponse `json:"methods"`
}

// --- Handlers ---

// Daily aggregates the settled payments for one calendar day. Defaults to
// today when no date is given.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	rows, err := h.store.SumPaymentsByMethod(r.Context(), start, end)
	if err != nil {
		log.Printf("ERROR: sum payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var orderCount, totalRevenue int64
	methods := make([]methodBreakdownResponse, len(rows))
	for i, row := range rows {
		orderCount += row.Count
		totalRevenue += row.Total
		methods[i] = methodBreakdownResponse{
			Method: row.Method,
			Count:  row.Count,
			Total:  row.Total,
		}
	}

	average := decimal.Zero
	if orderCount > 0 {
		average = decimal.NewFromInt(totalRevenue).Div(decimal.NewFromInt(orderCount))
	}

	writeJSON(w, http.StatusOK, dailyReportResponse{
		Date:         start.Format("2006-01-02"),
		OrderCount:   orderCount,
		TotalRevenue: totalRevenue,
		AverageOrder: average.StringFixed(2),
		Methods:      methods,
	})
}
