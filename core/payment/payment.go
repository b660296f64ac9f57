package payment

import "time"

type Status string

const (
	Pending  Status = "pending"
	Complete Status = "complete"
)

const (
	ProviderStripe = "stripe"
	ProviderPaypal = "paypal"
)

// Payment is created together with its order, one row per order. Its
// status only ever moves from pending to complete.
type Payment struct {
	ID         string    `json:"id" db:"payment_id"`
	OrderID    string    `json:"orderId" db:"order_id"`
	Provider   string    `json:"provider" db:"provider"`
	ProviderID string    `json:"-" db:"provider_id"`
	Status     Status    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// PaymentOrder is the read representation: the payment row joined with
// a summary of the order it belongs to.
type PaymentOrder struct {
	Payment
	OrderUserID string `json:"orderUserId" db:"order_user_id"`
	OrderStatus string `json:"orderStatus" db:"order_status"`
}

// PaymentUp is the writable subset accepted on PATCH. It is
// deliberately narrower than the read representation.
type PaymentUp struct {
	Status *Status `json:"status" validate:"omitempty,oneof=pending complete"`
}

type StatusUp struct {
	ID        string    `db:"payment_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}
