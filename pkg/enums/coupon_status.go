package enums

import "fmt"

// CouponStatus toggles whether a coupon can currently be applied.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "ACTIVE"
	CouponStatusInactive CouponStatus = "INACTIVE"
)

var validCouponStatuses = []CouponStatus{
	CouponStatusActive,
	CouponStatusInactive,
}

// String implements fmt.Stringer.
func (c CouponStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponStatus.
func (c CouponStatus) IsValid() bool {
	for _, candidate := range validCouponStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponStatus converts raw input into a CouponStatus.
func ParseCouponStatus(value string) (CouponStatus, error) {
	for _, candidate := range validCouponStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon status %q", value)
}
