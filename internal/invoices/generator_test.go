package invoices

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	"github.com/ledovalley/storefront-backend/pkg/logger"
	"github.com/ledovalley/storefront-backend/pkg/types"
)

func TestGenerateWritesInvoiceFile(t *testing.T) {
	dir := t.TempDir()
	gen, err := NewGenerator(config.InvoicesConfig{Dir: dir},
		logger.New(logger.Options{ServiceName: "invoices-test", Output: io.Discard}))
	require.NoError(t, err)

	order := &models.Order{
		OrderNumber:   "LV17417725000001234",
		CustomerName:  "Asha Sharma",
		CustomerEmail: "asha@example.com",
		ShippingAddress: types.AddressSnapshot{
			Name: "Asha Sharma", AddressLine1: "14 Ridge Road",
			City: "Shimla", State: "Himachal Pradesh", Pincode: "171001",
		},
		ItemsTotal:     decimal.NewFromInt(998),
		DiscountAmount: decimal.NewFromFloat(99.80),
		GSTAmount:      decimal.NewFromFloat(71.86),
		ShippingAmount: decimal.NewFromInt(60),
		GrandTotal:     decimal.NewFromFloat(1030.06),
		CreatedAt:      time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		Items: []models.OrderItem{{
			Title:        "Himalayan Green Tea",
			VariantTitle: "250g",
			Quantity:     2,
			UnitPrice:    decimal.NewFromInt(499),
			LineTotal:    decimal.NewFromInt(998),
		}},
	}

	path, err := gen.Generate(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, dir+"/LV17417725000001234.html", path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(content)
	assert.Contains(t, html, "Himalayan Green Tea")
	assert.Contains(t, html, "14 Ridge Road")
	assert.Contains(t, html, "1030.06")
	assert.Contains(t, html, "14 Mar 2025")
}

func TestNewGeneratorRequiresDir(t *testing.T) {
	_, err := NewGenerator(config.InvoicesConfig{},
		logger.New(logger.Options{ServiceName: "invoices-test", Output: io.Discard}))
	require.Error(t, err)
}
