package enums

import "fmt"

// ProductStatus tracks catalog visibility of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusDraft    ProductStatus = "DRAFT"
)

var validProductStatuses = []ProductStatus{
	ProductStatusActive,
	ProductStatusInactive,
	ProductStatusDraft,
}

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// VariantStatus tracks whether a single variant is sellable.
type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "ACTIVE"
	VariantStatusInactive VariantStatus = "INACTIVE"
)

var validVariantStatuses = []VariantStatus{
	VariantStatusActive,
	VariantStatusInactive,
}

// String implements fmt.Stringer.
func (v VariantStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VariantStatus.
func (v VariantStatus) IsValid() bool {
	for _, candidate := range validVariantStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVariantStatus converts raw input into a VariantStatus.
func ParseVariantStatus(value string) (VariantStatus, error) {
	for _, candidate := range validVariantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid variant status %q", value)
}

// WeightUnit is the unit a variant's pack weight is expressed in.
type WeightUnit string

const (
	WeightUnitGram     WeightUnit = "g"
	WeightUnitKilogram WeightUnit = "kg"
)

var validWeightUnits = []WeightUnit{
	WeightUnitGram,
	WeightUnitKilogram,
}

// String implements fmt.Stringer.
func (w WeightUnit) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WeightUnit.
func (w WeightUnit) IsValid() bool {
	for _, candidate := range validWeightUnits {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWeightUnit converts raw input into a WeightUnit.
func ParseWeightUnit(value string) (WeightUnit, error) {
	for _, candidate := range validWeightUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid weight unit %q", value)
}
