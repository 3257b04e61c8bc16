package types

import "strings"

// AddressSnapshot is the shipping address copied into an order at checkout.
// It never changes after the order is created, even if the customer edits or
// deletes the source address.
type AddressSnapshot struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

// FirstName splits the contact name the way the carrier API wants it:
// first token as first name, remainder as last name, with fallbacks.
func (a AddressSnapshot) FirstName() string {
	parts := strings.Fields(strings.TrimSpace(a.Name))
	if len(parts) == 0 {
		return "Customer"
	}
	return parts[0]
}

// LastName returns the remainder of the contact name after the first token.
func (a AddressSnapshot) LastName() string {
	parts := strings.Fields(strings.TrimSpace(a.Name))
	if len(parts) < 2 {
		return "User"
	}
	return strings.Join(parts[1:], " ")
}
