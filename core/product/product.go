package product

import "time"

// Product prices are stored in minor currency units (cents), matching
// the amount convention of the payment processors.
type Product struct {
	ID          string    `json:"id" db:"product_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       int       `json:"price" db:"price"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Version     int       `json:"-" db:"version"`
}

type ProductNew struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Price       int    `json:"price" validate:"gte=0,lte=1000000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

type ProductUp struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int    `json:"price" validate:"omitempty,gte=0,lte=1000000"`
	ImageURL    *string `json:"imageUrl" validate:"omitempty,url"`
}
