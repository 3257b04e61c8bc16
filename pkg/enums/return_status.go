package enums

import "fmt"

// ReturnStatus tracks the return/refund sub-flow of a delivered order.
type ReturnStatus string

const (
	ReturnStatusNone      ReturnStatus = "NONE"
	ReturnStatusRequested ReturnStatus = "REQUESTED"
	ReturnStatusApproved  ReturnStatus = "APPROVED"
	ReturnStatusRejected  ReturnStatus = "REJECTED"
	ReturnStatusCompleted ReturnStatus = "COMPLETED"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusNone,
	ReturnStatusRequested,
	ReturnStatusApproved,
	ReturnStatusRejected,
	ReturnStatusCompleted,
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
