package handler_test

import (
	"context"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/smartmenu/api/internal/database"
	"github.com/smartmenu/api/internal/handler"
)

// --- Mock store ---

type mockCategoryStore struct {
	categories map[uuid.UUID]database.Category
	foodsIn    map[uuid.UUID]int // categories that still have foods
}

func newMockCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{
		categories: make(map[uuid.UUID]database.Category),
		foodsIn:    make(map[uuid.UUID]int),
	}
}

func (m *mockCategoryStore) nameTaken(name string, exclude uuid.UUID) bool {
	for _, c := range m.categories {
		if c.Name == name && c.ID != exclude {
			return true
		}
	}
	return false
}

func (m *mockCategoryStore) ListCategories(_ context.Context) ([]database.Category, error) {
	var result []database.Category
	for _, c := range m.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockCategoryStore) CreateCategory(_ context.Context, arg database.CreateCategoryParams) (database.Category, error) {
	if m.nameTaken(arg.Name, uuid.Nil) {
		return database.Category{}, &pgconn.PgError{Code: "23505"}
	}
	c := database.Category{
		ID:        uuid.New(),
		Name:      arg.Name,
		SortOrder: arg.SortOrder,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockCategoryStore) UpdateCategory(_ context.Context, arg database.UpdateCategoryParams) (database.Category, error) {
	c, ok := m.categories[arg.ID]
	if !ok {
		return database.Category{}, pgx.ErrNoRows
	}
	if m.nameTaken(arg.Name, arg.ID) {
		return database.Category{}, &pgconn.PgError{Code: "23505"}
	}
	c.Name = arg.Name
	c.SortOrder = arg.SortOrder
	c.IsActive = arg.IsActive
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockCategoryStore) DeleteCategory(_ context.Context, id uuid.UUID) (int64, error) {
	if _, ok := m.categories[id]; !ok {
		return 0, nil
	}
	if m.foodsIn[id] > 0 {
		return 0, &pgconn.PgError{Code: "23503"}
	}
	delete(m.categories, id)
	return 1, nil
}

// --- Helpers ---

func setupCategoryRouter(store *mockCategoryStore) *chi.Mux {
	h := handler.NewCategoryHandler(store)
	r := chi.NewRouter()
	r.Route("/admin/categories", h.RegisterRoutes)
	return r
}

// --- Tests ---

func TestCategoryList_Empty(t *testing.T) {
	store := newMockCategoryStore()
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "GET", "/admin/categories", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 0 {
		t.Errorf("expected empty list, got %d items", len(resp))
	}
}

func TestCategoryList_SortedBySortOrder(t *testing.T) {
	store := newMockCategoryStore()
	first := uuid.New()
	second := uuid.New()
	store.categories[second] = database.Category{ID: second, Name: "Drinks", SortOrder: 2, IsActive: true}
	store.categories[first] = database.Category{ID: first, Name: "Noodles", SortOrder: 1, IsActive: true}
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "GET", "/admin/categories", nil)

	resp := decodeListResponse(t, rr)
	if len(resp) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(resp))
	}
	if resp[0]["name"] != "Noodles" || resp[1]["name"] != "Drinks" {
		t.Errorf("categories out of order: %v, %v", resp[0]["name"], resp[1]["name"])
	}
}

func TestCategoryCreate_Valid(t *testing.T) {
	store := newMockCategoryStore()
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "POST", "/admin/categories", map[string]interface{}{
		"name":       "Noodles",
		"sort_order": 2,
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "Noodles" {
		t.Errorf("name: got %v, want Noodles", resp["name"])
	}
	// JSON numbers decode as float64
	if resp["sort_order"] != float64(2) {
		t.Errorf("sort_order: got %v, want 2", resp["sort_order"])
	}
	if resp["is_active"] != true {
		t.Errorf("is_active: got %v, want true", resp["is_active"])
	}
}

func TestCategoryCreate_MissingName(t *testing.T) {
	store := newMockCategoryStore()
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "POST", "/admin/categories", map[string]interface{}{
		"sort_order": 1,
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCategoryCreate_DuplicateName(t *testing.T) {
	store := newMockCategoryStore()
	id := uuid.New()
	store.categories[id] = database.Category{ID: id, Name: "Noodles", IsActive: true}
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "POST", "/admin/categories", map[string]interface{}{
		"name": "Noodles",
	})

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestCategoryUpdate_Valid(t *testing.T) {
	store := newMockCategoryStore()
	id := uuid.New()
	store.categories[id] = database.Category{ID: id, Name: "Old", SortOrder: 1, IsActive: true}
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "PUT", "/admin/categories/"+id.String(), map[string]interface{}{
		"name":       "New",
		"sort_order": 5,
		"is_active":  false,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["name"] != "New" {
		t.Errorf("name: got %v, want New", resp["name"])
	}
	if resp["is_active"] != false {
		t.Errorf("is_active: got %v, want false", resp["is_active"])
	}
}

func TestCategoryUpdate_NotFound(t *testing.T) {
	store := newMockCategoryStore()
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "PUT", "/admin/categories/"+uuid.New().String(), map[string]interface{}{
		"name": "Whatever",
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCategoryDelete_Valid(t *testing.T) {
	store := newMockCategoryStore()
	id := uuid.New()
	store.categories[id] = database.Category{ID: id, Name: "Delete Me", IsActive: true}
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "DELETE", "/admin/categories/"+id.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}
	if _, exists := store.categories[id]; exists {
		t.Error("expected category to be removed")
	}
}

func TestCategoryDelete_StillHasFoods(t *testing.T) {
	store := newMockCategoryStore()
	id := uuid.New()
	store.categories[id] = database.Category{ID: id, Name: "Busy", IsActive: true}
	store.foodsIn[id] = 3
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "DELETE", "/admin/categories/"+id.String(), nil)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCategoryDelete_NotFound(t *testing.T) {
	store := newMockCategoryStore()
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "DELETE", "/admin/categories/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
