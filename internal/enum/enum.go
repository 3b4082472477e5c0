package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending      = "PENDING"
	OrderStatusConfirmed    = "CONFIRMED"
	OrderStatusAwaitPayment = "AWAIT_PAYMENT"
	OrderStatusDone         = "DONE"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
)

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodTransfer = "BANK_TRANSFER"
)

// ── Staff roles (CHECK constrained in DB) ──

const (
	StaffRoleAdmin   = "ADMIN"
	StaffRoleManager = "MANAGER"
)

// DefaultCustomerName is recorded on orders submitted without a customer name.
const DefaultCustomerName = "walk-in"
