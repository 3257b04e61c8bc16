package enums

// CarrierStatus is the status vocabulary Shiprocket pushes over its webhook.
// The raw value is stored on the order's shipping record as received; only
// the constants below drive order-status transitions.
type CarrierStatus string

const (
	CarrierStatusCreated         CarrierStatus = "CREATED"
	CarrierStatusAWBAssigned     CarrierStatus = "AWB_ASSIGNED"
	CarrierStatusPickupScheduled CarrierStatus = "PICKUP_SCHEDULED"
	CarrierStatusPickedUp        CarrierStatus = "PICKED_UP"
	CarrierStatusInTransit       CarrierStatus = "IN_TRANSIT"
	CarrierStatusOutForDelivery  CarrierStatus = "OUT_FOR_DELIVERY"
	CarrierStatusDelivered       CarrierStatus = "DELIVERED"
	CarrierStatusCancelled       CarrierStatus = "CANCELLED"
)

// String implements fmt.Stringer.
func (c CarrierStatus) String() string {
	return string(c)
}
