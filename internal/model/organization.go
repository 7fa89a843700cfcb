package model

import "time"

// Organization is a supply-chain participant that can hold codes.
type Organization struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Organization types.
const (
	OrgTypeManufacturer = "MANUFACTURER"
	OrgTypeDistributor  = "DISTRIBUTOR"
	OrgTypeHospital     = "HOSPITAL"
	OrgTypeAdmin        = "ADMIN"
)

// Organization statuses.
const (
	OrgStatusActive   = "ACTIVE"
	OrgStatusInactive = "INACTIVE"
	OrgStatusPending  = "PENDING"
)

// ValidOrgType reports whether t is a known organization type.
func ValidOrgType(t string) bool {
	switch t {
	case OrgTypeManufacturer, OrgTypeDistributor, OrgTypeHospital, OrgTypeAdmin:
		return true
	}
	return false
}

// LotSettings is an organization's lot-numbering configuration.
type LotSettings struct {
	OrganizationID int64  `json:"organization_id" db:"organization_id"`
	Prefix         string `json:"prefix" db:"prefix"`
	ModelDigits    int    `json:"model_digits" db:"model_digits"`
	DateFormat     string `json:"date_format" db:"date_format"`
	ExpiryMonths   int    `json:"expiry_months" db:"expiry_months"`
}

// Lot number date encodings.
const (
	DateFormatYYMMDD   = "YYMMDD"
	DateFormatYYYYMMDD = "YYYYMMDD"
	DateFormatYYJJJ    = "YYJJJ"
)

// DefaultLotSettings returns the settings used for organizations that never
// configured lot numbering.
func DefaultLotSettings(orgID int64, expiryMonths int) LotSettings {
	return LotSettings{
		OrganizationID: orgID,
		ModelDigits:    5,
		DateFormat:     DateFormatYYMMDD,
		ExpiryMonths:   expiryMonths,
	}
}
