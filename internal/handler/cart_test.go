package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartmenu/api/internal/cart"
	"github.com/smartmenu/api/internal/database"
	"github.com/smartmenu/api/internal/handler"
)

// --- Mock store ---

type mockCartStore struct {
	foods map[uuid.UUID]database.Food
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{foods: make(map[uuid.UUID]database.Food)}
}

func (m *mockCartStore) addFood(name string, price int64) uuid.UUID {
	id := uuid.New()
	m.foods[id] = database.Food{ID: id, Name: name, Price: price, IsAvailable: true}
	return id
}

func (m *mockCartStore) GetAvailableFood(_ context.Context, id uuid.UUID) (database.Food, error) {
	f, ok := m.foods[id]
	if !ok {
		return database.Food{}, pgx.ErrNoRows
	}
	return f, nil
}

// --- Helpers ---

func setupCartRouter(store *mockCartStore) (*chi.Mux, *cart.Manager) {
	carts := cart.NewManager()
	h := handler.NewCartHandler(carts, store)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, carts
}

func createCart(t *testing.T, router *chi.Mux) string {
	t.Helper()
	rr := doRequest(t, router, "POST", "/carts", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create cart: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatal("create cart: missing id")
	}
	return id
}

// --- Tests ---

func TestCartFlow_AddAndMerge(t *testing.T) {
	store := newMockCartStore()
	phoID := store.addFood("Pho Bo", 55000)
	router, _ := setupCartRouter(store)
	cartID := createCart(t, router)

	body := map[string]interface{}{"food_id": phoID.String(), "quantity": 1}
	rr := doRequest(t, router, "POST", "/carts/"+cartID+"/items", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("add item: got %d; body: %s", rr.Code, rr.Body.String())
	}

	// Same food again merges into one line.
	rr = doRequest(t, router, "POST", "/carts/"+cartID+"/items", body)
	resp := decodeResponse(t, rr)
	items, _ := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(items))
	}
	line, _ := items[0].(map[string]interface{})
	if line["quantity"] != float64(2) {
		t.Errorf("quantity: got %v, want 2", line["quantity"])
	}
	if line["name"] != "Pho Bo" {
		t.Errorf("name: got %v", line["name"])
	}
	if resp["total_price"] != float64(110000) {
		t.Errorf("total_price: got %v, want 110000", resp["total_price"])
	}
}

func TestCartFlow_AddUnknownFood(t *testing.T) {
	store := newMockCartStore()
	router, _ := setupCartRouter(store)
	cartID := createCart(t, router)

	body := map[string]interface{}{"food_id": uuid.New().String(), "quantity": 1}
	rr := doRequest(t, router, "POST", "/carts/"+cartID+"/items", body)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCartFlow_DecreaseNeverBelowOne(t *testing.T) {
	store := newMockCartStore()
	phoID := store.addFood("Pho Bo", 55000)
	router, _ := setupCartRouter(store)
	cartID := createCart(t, router)

	doRequest(t, router, "POST", "/carts/"+cartID+"/items",
		map[string]interface{}{"food_id": phoID.String(), "quantity": 1})

	rr := doRequest(t, router, "POST", fmt.Sprintf("/carts/%s/items/%s/decrease", cartID, phoID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("decrease: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	items, _ := resp["items"].([]interface{})
	line, _ := items[0].(map[string]interface{})
	if line["quantity"] != float64(1) {
		t.Errorf("quantity: got %v, want 1", line["quantity"])
	}
}

func TestCartFlow_IncreaseAndRemove(t *testing.T) {
	store := newMockCartStore()
	phoID := store.addFood("Pho Bo", 55000)
	teaID := store.addFood("Tra Da", 5000)
	router, _ := setupCartRouter(store)
	cartID := createCart(t, router)

	doRequest(t, router, "POST", "/carts/"+cartID+"/items",
		map[string]interface{}{"food_id": phoID.String(), "quantity": 1})
	doRequest(t, router, "POST", "/carts/"+cartID+"/items",
		map[string]interface{}{"food_id": teaID.String(), "quantity": 1})

	rr := doRequest(t, router, "POST", fmt.Sprintf("/carts/%s/items/%s/increase", cartID, teaID), nil)
	resp := decodeResponse(t, rr)
	if resp["total_quantity"] != float64(3) {
		t.Errorf("total_quantity after increase: got %v, want 3", resp["total_quantity"])
	}

	rr = doRequest(t, router, "DELETE", fmt.Sprintf("/carts/%s/items/%s", cartID, phoID), nil)
	resp = decodeResponse(t, rr)
	items, _ := resp["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 line after remove, got %d", len(items))
	}
	if resp["total_price"] != float64(10000) {
		t.Errorf("total_price: got %v, want 10000", resp["total_price"])
	}
}

func TestCartFlow_AdjustUnknownItem(t *testing.T) {
	store := newMockCartStore()
	router, _ := setupCartRouter(store)
	cartID := createCart(t, router)

	rr := doRequest(t, router, "POST", fmt.Sprintf("/carts/%s/items/%s/increase", cartID, uuid.New()), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCartFlow_GetUnknownCart(t *testing.T) {
	store := newMockCartStore()
	router, _ := setupCartRouter(store)

	rr := doRequest(t, router, "GET", "/carts/"+uuid.New().String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCartFlow_Delete(t *testing.T) {
	store := newMockCartStore()
	router, carts := setupCartRouter(store)
	cartID := createCart(t, router)

	rr := doRequest(t, router, "DELETE", "/carts/"+cartID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if carts.Get(uuid.MustParse(cartID)) != nil {
		t.Error("cart should be gone after delete")
	}
}
