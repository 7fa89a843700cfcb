package model

import (
	"fmt"
	"time"
)

// VirtualCode is the serialized identity of one physical unit.
type VirtualCode struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	LotID     int64     `json:"lot_id" db:"lot_id"`
	Status    string    `json:"status" db:"status"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	OwnerType string    `json:"owner_type" db:"owner_type"`
	ChainHead string    `json:"-" db:"chain_head"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joined fields (not always populated).
	LotNumber string `json:"lot_number,omitempty" db:"lot_number"`
	ProductID int64  `json:"product_id,omitempty" db:"product_id"`
}

// Code statuses.
const (
	CodeStatusInStock  = "IN_STOCK"
	CodeStatusUsed     = "USED"
	CodeStatusDisposed = "DISPOSED"
)

// Owner types.
const (
	OwnerTypeOrganization = "ORGANIZATION"
	OwnerTypePatient      = "PATIENT"
)

// Owner identifies the current holder of a code.
type Owner struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// OrgOwner returns the owner value for an organization.
func OrgOwner(id int64) Owner { return Owner{ID: id, Type: OwnerTypeOrganization} }

// PatientOwner returns the owner value for a patient.
func PatientOwner(id int64) Owner { return Owner{ID: id, Type: OwnerTypePatient} }

func (o Owner) String() string { return fmt.Sprintf("%s:%d", o.Type, o.ID) }

// Owner returns the code's current holder.
func (c *VirtualCode) Owner() Owner { return Owner{ID: c.OwnerID, Type: c.OwnerType} }

// Item is one line of a transfer request.
type Item struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	LotID     *int64 `json:"lot_id,omitempty"`
}

// Inventory is the IN_STOCK count an owner holds for one lot.
type Inventory struct {
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	OwnerType   string    `json:"owner_type" db:"owner_type"`
	ProductID   int64     `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	LotID       int64     `json:"lot_id" db:"lot_id"`
	LotNumber   string    `json:"lot_number" db:"lot_number"`
	ExpiryDate  time.Time `json:"expiry_date" db:"expiry_date"`
	Quantity    int       `json:"quantity" db:"quantity"`
}
