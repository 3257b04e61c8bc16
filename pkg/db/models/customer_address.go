package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledovalley/storefront-backend/pkg/types"
)

// CustomerAddress is a saved delivery address. Orders never reference it
// directly; checkout copies it into the order as a snapshot.
type CustomerAddress struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID   uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	Phone        string    `gorm:"column:phone;not null"`
	AddressLine1 string    `gorm:"column:address_line1;not null"`
	AddressLine2 *string   `gorm:"column:address_line2"`
	City         string    `gorm:"column:city;not null"`
	State        string    `gorm:"column:state;not null"`
	Pincode      string    `gorm:"column:pincode;not null"`
	IsDefault    bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Snapshot copies the address into the immutable form stored on orders.
func (a *CustomerAddress) Snapshot() types.AddressSnapshot {
	snap := types.AddressSnapshot{
		Name:         a.Name,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		City:         a.City,
		State:        a.State,
		Pincode:      a.Pincode,
	}
	if a.AddressLine2 != nil {
		snap.AddressLine2 = *a.AddressLine2
	}
	return snap
}
