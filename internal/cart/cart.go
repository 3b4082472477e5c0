// Package cart holds in-memory customer carts keyed by a server-issued
// session ID. Carts never touch the database; an order is only persisted
// when the customer submits.
package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Item is one line in a cart. Name, Price and ImageURL are copied from the
// catalog at add time so the cart survives later catalog edits.
type Item struct {
	FoodID   uuid.UUID `json:"food_id"`
	Name     string    `json:"name"`
	Price    int64     `json:"price"`
	Quantity int32     `json:"quantity"`
	ImageURL *string   `json:"image_url,omitempty"`
}

// Cart is a single customer's cart. All methods are safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	items []Item
}

// Add merges a food into the cart. If a line with the same food ID already
// exists its quantity grows by qty, otherwise a new line is appended.
func (c *Cart) Add(item Item, qty int32) {
	if qty < 1 {
		qty = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].FoodID == item.FoodID {
			c.items[i].Quantity += qty
			return
		}
	}
	item.Quantity = qty
	c.items = append(c.items, item)
}

// Increase bumps the quantity of an existing line by one. Returns false if
// the food is not in the cart.
func (c *Cart) Increase(foodID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].FoodID == foodID {
			c.items[i].Quantity++
			return true
		}
	}
	return false
}

// Decrease lowers the quantity of an existing line by one, never below one.
// Returns false if the food is not in the cart.
func (c *Cart) Decrease(foodID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].FoodID == foodID {
			if c.items[i].Quantity > 1 {
				c.items[i].Quantity--
			}
			return true
		}
	}
	return false
}

// Remove drops a line entirely. Returns false if the food is not in the cart.
func (c *Cart) Remove(foodID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].FoodID == foodID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// TotalQuantity is the sum of all line quantities.
func (c *Cart) TotalQuantity() int32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int32
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the sum of price times quantity across all lines.
func (c *Cart) TotalPrice() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, it := range c.items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

// Manager owns all live carts.
type Manager struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]*Cart
}

func NewManager() *Manager {
	return &Manager{carts: make(map[uuid.UUID]*Cart)}
}

// Create registers a fresh empty cart and returns its ID.
func (m *Manager) Create() uuid.UUID {
	id := uuid.New()
	m.mu.Lock()
	m.carts[id] = &Cart{}
	m.mu.Unlock()
	return id
}

// Get returns the cart for id, or nil if it does not exist.
func (m *Manager) Get(id uuid.UUID) *Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.carts[id]
}

// Delete removes a cart. Deleting an unknown ID is a no-op.
func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.carts, id)
	m.mu.Unlock()
}
