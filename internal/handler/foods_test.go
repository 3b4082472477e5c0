package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/smartmenu/api/internal/database"
	"github.com/smartmenu/api/internal/handler"
)

// --- pgx.Tx mock ---

type mockTx struct {
	commits   int
	rollbacks int
}

func (m *mockTx) Begin(_ context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(_ context.Context) error {
	m.commits++
	return nil
}
func (m *mockTx) Rollback(_ context.Context) error {
	m.rollbacks++
	return nil
}
func (m *mockTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

type mockTxBeginner struct {
	tx *mockTx
}

func (m *mockTxBeginner) Begin(_ context.Context) (pgx.Tx, error) {
	return m.tx, nil
}

// --- Food store mock ---

type mockFoodStore struct {
	foods      map[uuid.UUID]database.Food
	components map[uuid.UUID][]database.ComboItem
	categories map[uuid.UUID]string
	nameTaken  bool
}

func newMockFoodStore() *mockFoodStore {
	return &mockFoodStore{
		foods:      make(map[uuid.UUID]database.Food),
		components: make(map[uuid.UUID][]database.ComboItem),
		categories: make(map[uuid.UUID]string),
	}
}

func (m *mockFoodStore) ListFoods(_ context.Context) ([]database.ListFoodsRow, error) {
	var rows []database.ListFoodsRow
	for _, f := range m.foods {
		rows = append(rows, database.ListFoodsRow{Food: f, CategoryName: m.categories[f.CategoryID]})
	}
	return rows, nil
}

func (m *mockFoodStore) GetFood(_ context.Context, id uuid.UUID) (database.Food, error) {
	f, ok := m.foods[id]
	if !ok {
		return database.Food{}, pgx.ErrNoRows
	}
	return f, nil
}

func (m *mockFoodStore) CreateFood(_ context.Context, arg database.CreateFoodParams) (database.Food, error) {
	if m.nameTaken {
		return database.Food{}, &pgconn.PgError{Code: "23505", ConstraintName: "foods_name_key"}
	}
	if _, ok := m.categories[arg.CategoryID]; !ok {
		return database.Food{}, &pgconn.PgError{Code: "23503", ConstraintName: "foods_category_id_fkey"}
	}
	f := database.Food{
		ID:          uuid.New(),
		CategoryID:  arg.CategoryID,
		Name:        arg.Name,
		Price:       arg.Price,
		IsCombo:     arg.IsCombo,
		IsAddon:     arg.IsAddon,
		IsAvailable: arg.IsAvailable,
		CreatedAt:   time.Now(),
	}
	if arg.ImageURL != nil {
		f.ImageURL = pgtype.Text{String: *arg.ImageURL, Valid: true}
	}
	m.foods[f.ID] = f
	return f, nil
}

func (m *mockFoodStore) UpdateFood(_ context.Context, arg database.UpdateFoodParams) (database.Food, error) {
	f, ok := m.foods[arg.ID]
	if !ok {
		return database.Food{}, pgx.ErrNoRows
	}
	f.CategoryID = arg.CategoryID
	f.Name = arg.Name
	f.Price = arg.Price
	f.IsCombo = arg.IsCombo
	f.IsAddon = arg.IsAddon
	f.IsAvailable = arg.IsAvailable
	f.ImageURL = pgtype.Text{}
	if arg.ImageURL != nil {
		f.ImageURL = pgtype.Text{String: *arg.ImageURL, Valid: true}
	}
	m.foods[arg.ID] = f
	return f, nil
}

func (m *mockFoodStore) DeleteFood(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.foods[id]; !ok {
		return 0, nil
	}
	delete(m.foods, id)
	return 1, nil
}

func (m *mockFoodStore) ListComboItemsByCombo(_ context.Context, comboID uuid.UUID) ([]database.ComboItem, error) {
	return m.components[comboID], nil
}

func (m *mockFoodStore) CreateComboItem(_ context.Context, arg database.CreateComboItemParams) (database.ComboItem, error) {
	ci := database.ComboItem{
		ID:        uuid.New(),
		ComboID:   arg.ComboID,
		ItemName:  arg.ItemName,
		SortOrder: arg.SortOrder,
	}
	m.components[arg.ComboID] = append(m.components[arg.ComboID], ci)
	return ci, nil
}

func (m *mockFoodStore) DeleteComboItemsByCombo(_ context.Context, comboID uuid.UUID) error {
	delete(m.components, comboID)
	return nil
}

// --- Helpers ---

func setupFoodRouter(store *mockFoodStore) (*chi.Mux, *mockTx) {
	tx := &mockTx{}
	h := handler.NewFoodHandler(
		&mockTxBeginner{tx: tx},
		store,
		func(_ database.DBTX) handler.FoodStore { return store },
	)
	r := chi.NewRouter()
	r.Route("/admin/foods", h.RegisterRoutes)
	return r, tx
}

// --- Tests ---

func TestCreateFood_Valid(t *testing.T) {
	store := newMockFoodStore()
	catID := uuid.New()
	store.categories[catID] = "Noodles"
	router, tx := setupFoodRouter(store)

	body := map[string]interface{}{
		"category_id":  catID.String(),
		"name":         "Pho Bo",
		"price":        55000,
		"is_available": true,
	}
	rr := doRequest(t, router, "POST", "/admin/foods", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "Pho Bo" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["price"] != float64(55000) {
		t.Errorf("price: got %v", resp["price"])
	}
	if tx.commits != 1 {
		t.Errorf("commits: got %d, want 1", tx.commits)
	}
}

func TestCreateFood_ComboWithComponents(t *testing.T) {
	store := newMockFoodStore()
	catID := uuid.New()
	store.categories[catID] = "Combos"
	router, _ := setupFoodRouter(store)

	body := map[string]interface{}{
		"category_id":  catID.String(),
		"name":         "Combo A",
		"price":        99000,
		"is_combo":     true,
		"is_available": true,
		"combo_items":  []string{"Pho Bo", "Tra Da"},
	}
	rr := doRequest(t, router, "POST", "/admin/foods", body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	items, _ := resp["combo_items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("combo_items: got %v", items)
	}

	comboID := uuid.MustParse(resp["id"].(string))
	stored := store.components[comboID]
	if len(stored) != 2 || stored[0].ItemName != "Pho Bo" || stored[0].SortOrder != 0 || stored[1].SortOrder != 1 {
		t.Errorf("stored components: %+v", stored)
	}
}

func TestCreateFood_Validation(t *testing.T) {
	catID := uuid.New()
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"category_id": catID.String(), "price": 100}},
		{"bad category id", map[string]interface{}{"category_id": "nope", "name": "X", "price": 100}},
		{"negative price", map[string]interface{}{"category_id": catID.String(), "name": "X", "price": -1}},
		{"combo and addon", map[string]interface{}{
			"category_id": catID.String(), "name": "X", "price": 100,
			"is_combo": true, "is_addon": true,
		}},
		{"components on non-combo", map[string]interface{}{
			"category_id": catID.String(), "name": "X", "price": 100,
			"combo_items": []string{"A"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockFoodStore()
			store.categories[catID] = "Noodles"
			router, tx := setupFoodRouter(store)

			rr := doRequest(t, router, "POST", "/admin/foods", tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
			}
			if tx.commits != 0 {
				t.Errorf("commits: got %d, want 0", tx.commits)
			}
		})
	}
}

func TestCreateFood_DuplicateName(t *testing.T) {
	store := newMockFoodStore()
	catID := uuid.New()
	store.categories[catID] = "Noodles"
	store.nameTaken = true
	router, _ := setupFoodRouter(store)

	body := map[string]interface{}{
		"category_id": catID.String(),
		"name":        "Pho Bo",
		"price":       55000,
	}
	rr := doRequest(t, router, "POST", "/admin/foods", body)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCreateFood_UnknownCategory(t *testing.T) {
	store := newMockFoodStore()
	router, _ := setupFoodRouter(store)

	body := map[string]interface{}{
		"category_id": uuid.New().String(),
		"name":        "Pho Bo",
		"price":       55000,
	}
	rr := doRequest(t, router, "POST", "/admin/foods", body)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateFood_ReplacesComponents(t *testing.T) {
	store := newMockFoodStore()
	catID := uuid.New()
	store.categories[catID] = "Combos"
	comboID := uuid.New()
	store.foods[comboID] = database.Food{
		ID: comboID, CategoryID: catID, Name: "Combo A", Price: 99000, IsCombo: true, IsAvailable: true,
	}
	store.components[comboID] = []database.ComboItem{
		{ID: uuid.New(), ComboID: comboID, ItemName: "Old Dish", SortOrder: 0},
	}
	router, tx := setupFoodRouter(store)

	body := map[string]interface{}{
		"category_id":  catID.String(),
		"name":         "Combo A",
		"price":        109000,
		"is_combo":     true,
		"is_available": true,
		"combo_items":  []string{"Pho Bo", "Nem Ran"},
	}
	rr := doRequest(t, router, "PUT", "/admin/foods/"+comboID.String(), body)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	stored := store.components[comboID]
	if len(stored) != 2 || stored[0].ItemName != "Pho Bo" || stored[1].ItemName != "Nem Ran" {
		t.Errorf("components not replaced: %+v", stored)
	}
	if store.foods[comboID].Price != 109000 {
		t.Errorf("price: got %d, want 109000", store.foods[comboID].Price)
	}
	if tx.commits != 1 {
		t.Errorf("commits: got %d, want 1", tx.commits)
	}
}

func TestUpdateFood_NotFound(t *testing.T) {
	store := newMockFoodStore()
	catID := uuid.New()
	store.categories[catID] = "Noodles"
	router, _ := setupFoodRouter(store)

	body := map[string]interface{}{
		"category_id": catID.String(),
		"name":        "Pho Bo",
		"price":       55000,
	}
	rr := doRequest(t, router, "PUT", "/admin/foods/"+uuid.New().String(), body)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetFood_ComboIncludesComponents(t *testing.T) {
	store := newMockFoodStore()
	comboID := uuid.New()
	store.foods[comboID] = database.Food{ID: comboID, Name: "Combo A", Price: 99000, IsCombo: true}
	store.components[comboID] = []database.ComboItem{
		{ID: uuid.New(), ComboID: comboID, ItemName: "Pho Bo", SortOrder: 0},
		{ID: uuid.New(), ComboID: comboID, ItemName: "Tra Da", SortOrder: 1},
	}
	router, _ := setupFoodRouter(store)

	rr := doRequest(t, router, "GET", "/admin/foods/"+comboID.String(), nil)

	resp := decodeResponse(t, rr)
	items, _ := resp["combo_items"].([]interface{})
	if len(items) != 2 || items[0] != "Pho Bo" {
		t.Errorf("combo_items: got %v", items)
	}
}

func TestDeleteFood_Valid(t *testing.T) {
	store := newMockFoodStore()
	foodID := uuid.New()
	store.foods[foodID] = database.Food{ID: foodID, Name: "Pho Bo"}
	router, _ := setupFoodRouter(store)

	rr := doRequest(t, router, "DELETE", "/admin/foods/"+foodID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
}

func TestDeleteFood_NotFound(t *testing.T) {
	store := newMockFoodStore()
	router, _ := setupFoodRouter(store)

	rr := doRequest(t, router, "DELETE", "/admin/foods/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
