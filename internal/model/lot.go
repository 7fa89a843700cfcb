package model

import "time"

// MaxLotQuantity is the maximum number of codes a single lot may ever hold.
const MaxLotQuantity = 100000

// Lot represents one production batch of a product.
type Lot struct {
	ID              int64     `json:"id" db:"id"`
	ProductID       int64     `json:"product_id" db:"product_id"`
	LotNumber       string    `json:"lot_number" db:"lot_number"`
	Quantity        int       `json:"quantity" db:"quantity"`
	ManufactureDate time.Time `json:"manufacture_date" db:"manufacture_date"`
	ExpiryDate      time.Time `json:"expiry_date" db:"expiry_date"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
