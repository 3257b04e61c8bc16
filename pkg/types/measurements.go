package types

import "github.com/ledovalley/storefront-backend/pkg/enums"

// Weight is the pack weight of a variant.
type Weight struct {
	Value float64          `json:"value"`
	Unit  enums.WeightUnit `json:"unit"`
}

// Grams normalizes the weight to grams.
func (w Weight) Grams() float64 {
	if w.Unit == enums.WeightUnitKilogram {
		return w.Value * 1000
	}
	return w.Value
}

// Dimensions are the package dimensions of a variant in centimetres.
type Dimensions struct {
	Length  float64 `json:"length,omitempty"`
	Breadth float64 `json:"breadth,omitempty"`
	Height  float64 `json:"height,omitempty"`
}
