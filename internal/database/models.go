package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Category groups foods on the menu and in the admin filter tabs.
type Category struct {
	ID        uuid.UUID
	Name      string
	SortOrder int32
	IsActive  bool
	CreatedAt time.Time
}

// Food is a sellable menu item. IsCombo and IsAddon are mutually exclusive;
// neither set means a main dish. Price is an integer currency unit (VND).
type Food struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Price       int64
	ImageURL    pgtype.Text
	IsCombo     bool
	IsAddon     bool
	IsAvailable bool
	CreatedAt   time.Time
}

// ComboItem is a named component of a combo food. Components are free text,
// not references to other foods, so renaming or deleting a food never
// rewrites a combo's stored component list.
type ComboItem struct {
	ID        uuid.UUID
	ComboID   uuid.UUID
	ItemName  string
	SortOrder int32
}

// Area groups tables spatially.
type Area struct {
	ID        uuid.UUID
	Code      string
	Name      string
	SortOrder int32
	IsActive  bool
	CreatedAt time.Time
}

// Table is a physical table. Code is the customer-facing identifier carried
// in the QR payload.
type Table struct {
	ID          uuid.UUID
	Code        string
	Name        string
	AreaID      uuid.UUID
	IndexNumber int32
	CreatedAt   time.Time
}

// Order is an order header. TotalAmount is derived-but-stored: recomputed
// and persisted on every line-item mutation, never summed at read time.
type Order struct {
	ID           uuid.UUID
	Number       int32
	Code         string
	Status       string
	OrderType    string
	TableID      uuid.UUID
	CustomerName string
	Note         pgtype.Text
	TotalAmount  int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderItem is a line item with the food name and price snapshotted at the
// time it was added. The snapshot is immutable; FoodID is informational and
// survives food deletion as NULL.
type OrderItem struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	FoodID   pgtype.UUID
	FoodName string
	Price    int64
	Quantity int32
}

// Payment records the single settlement of an order. The order_id column is
// UNIQUE, so the exactly-one-payment-per-order invariant lives in the schema.
type Payment struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	Amount  int64
	Method  string
	PaidAt  time.Time
}

// StaffUser is an admin panel login.
type StaffUser struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}
