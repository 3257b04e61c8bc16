package fulfillment

import (
	"math"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
)

const (
	minParcelLength  = 10.0
	minParcelBreadth = 10.0
	baseParcelHeight = 5.0
	minBillableKg    = 0.5
)

// Parcel is the single-box approximation handed to the carrier: widest
// footprint across items, heights stacked, weights summed.
type Parcel struct {
	Length   float64
	Breadth  float64
	Height   float64
	WeightKg float64
}

// ParcelFor folds the order's item dimensions and weights into one parcel.
// The carrier bills at least half a kilogram regardless of actual weight.
func ParcelFor(items []models.OrderItem) Parcel {
	p := Parcel{
		Length:  minParcelLength,
		Breadth: minParcelBreadth,
		Height:  baseParcelHeight,
	}

	grams := 0.0
	for i := range items {
		item := &items[i]
		qty := float64(item.Quantity)

		if item.Dimensions.Length > p.Length {
			p.Length = item.Dimensions.Length
		}
		if item.Dimensions.Breadth > p.Breadth {
			p.Breadth = item.Dimensions.Breadth
		}
		p.Height += item.Dimensions.Height * qty
		grams += item.Weight.Grams() * qty
	}

	p.WeightKg = math.Round(grams) / 1000
	if p.WeightKg < minBillableKg {
		p.WeightKg = minBillableKg
	}
	return p
}
