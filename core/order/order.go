package order

import "time"

type Status string

const (
	Pending Status = "pending"
	Success Status = "success"
	Expired Status = "expired"
)

// Order snapshots the cart at placement time. Line items copy name,
// description and minor-unit price from the product so later catalog
// edits cannot change what was sold.
type Order struct {
	ID        string    `json:"id" db:"order_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Items     []Item    `json:"items,omitempty" db:"-"`
}

type StatusUp struct {
	ID        string    `db:"order_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Item struct {
	OrderID     string    `json:"orderId" db:"order_id"`
	ProductID   string    `json:"productId" db:"product_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       int       `json:"price" db:"price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
