package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/enums"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

func TestParcelForEmptyOrderUsesMinimums(t *testing.T) {
	p := ParcelFor(nil)

	assert.Equal(t, 10.0, p.Length)
	assert.Equal(t, 10.0, p.Breadth)
	assert.Equal(t, 5.0, p.Height)
	assert.Equal(t, 0.5, p.WeightKg, "carrier bills at least half a kilo")
}

func TestParcelForStacksHeightsAndSumsWeights(t *testing.T) {
	items := []models.OrderItem{
		{
			Quantity:   2,
			Weight:     types.Weight{Value: 250, Unit: enums.WeightUnitGram},
			Dimensions: types.Dimensions{Length: 15, Breadth: 8, Height: 6},
		},
		{
			Quantity:   1,
			Weight:     types.Weight{Value: 1, Unit: enums.WeightUnitKilogram},
			Dimensions: types.Dimensions{Length: 12, Breadth: 12, Height: 10},
		},
	}

	p := ParcelFor(items)

	assert.Equal(t, 15.0, p.Length, "widest item wins")
	assert.Equal(t, 12.0, p.Breadth)
	assert.Equal(t, 27.0, p.Height, "base 5 plus 2x6 plus 1x10")
	assert.Equal(t, 1.5, p.WeightKg)
}

func TestParcelForLightOrderRoundsUpToBillableMinimum(t *testing.T) {
	items := []models.OrderItem{{
		Quantity:   1,
		Weight:     types.Weight{Value: 100, Unit: enums.WeightUnitGram},
		Dimensions: types.Dimensions{Length: 8, Breadth: 5, Height: 3},
	}}

	p := ParcelFor(items)

	assert.Equal(t, 10.0, p.Length, "floor dimensions apply to small items")
	assert.Equal(t, 0.5, p.WeightKg)
}
