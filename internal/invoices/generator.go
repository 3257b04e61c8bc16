package invoices

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/ledovalley/storefront-backend/pkg/config"
	"github.com/ledovalley/storefront-backend/pkg/db/models"
	pkgerrors "github.com/ledovalley/storefront-backend/pkg/errors"
	"github.com/ledovalley/storefront-backend/pkg/logger"
)

// Generator renders an invoice document for a paid order and returns the
// path it was written to.
type Generator interface {
	Generate(ctx context.Context, order *models.Order) (string, error)
}

var invoiceTmpl = template.Must(template.New("invoice").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Invoice {{.OrderNumber}}</title></head>
<body style="font-family:Georgia,serif;max-width:640px;margin:0 auto">
  <h1>Ledo Valley</h1>
  <p>Tax Invoice &middot; {{.OrderNumber}}<br>
  Date: {{.Date}}</p>
  <p><strong>Billed to</strong><br>
  {{.CustomerName}}<br>
  {{.Address.AddressLine1}}{{if .Address.AddressLine2}}, {{.Address.AddressLine2}}{{end}}<br>
  {{.Address.City}}, {{.Address.State}} {{.Address.Pincode}}</p>
  <table width="100%" cellpadding="6" border="1" style="border-collapse:collapse">
    <tr><th align="left">Item</th><th>Qty</th><th align="right">Unit</th><th align="right">Total</th></tr>
    {{range .Items}}
    <tr>
      <td>{{.Title}} ({{.VariantTitle}})</td>
      <td align="center">{{.Quantity}}</td>
      <td align="right">&#8377;{{.UnitPrice}}</td>
      <td align="right">&#8377;{{.LineTotal}}</td>
    </tr>
    {{end}}
  </table>
  <p align="right">
    Items: &#8377;{{.ItemsTotal}}<br>
    {{if .DiscountAmount}}Discount: &minus;&#8377;{{.DiscountAmount}}<br>{{end}}
    GST: &#8377;{{.GSTAmount}}<br>
    Shipping: &#8377;{{.ShippingAmount}}<br>
    <strong>Grand total: &#8377;{{.GrandTotal}}</strong>
  </p>
</body>
</html>
`))

type invoiceData struct {
	OrderNumber    string
	Date           string
	CustomerName   string
	Address        addressData
	Items          []itemData
	ItemsTotal     string
	DiscountAmount string
	GSTAmount      string
	ShippingAmount string
	GrandTotal     string
}

type addressData struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Pincode      string
}

type itemData struct {
	Title        string
	VariantTitle string
	Quantity     int
	UnitPrice    string
	LineTotal    string
}

// fsGenerator writes HTML invoices under a configured directory.
type fsGenerator struct {
	dir    string
	logger *logger.Logger
}

// NewGenerator constructs the filesystem invoice generator.
func NewGenerator(cfg config.InvoicesConfig, logg *logger.Logger) (Generator, error) {
	if cfg.Dir == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoices directory required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &fsGenerator{dir: cfg.Dir, logger: logg}, nil
}

func (g *fsGenerator) Generate(ctx context.Context, order *models.Order) (string, error) {
	data := invoiceData{
		OrderNumber:  order.OrderNumber,
		Date:         order.CreatedAt.Format("02 Jan 2006"),
		CustomerName: order.CustomerName,
		Address: addressData{
			AddressLine1: order.ShippingAddress.AddressLine1,
			AddressLine2: order.ShippingAddress.AddressLine2,
			City:         order.ShippingAddress.City,
			State:        order.ShippingAddress.State,
			Pincode:      order.ShippingAddress.Pincode,
		},
		ItemsTotal:     order.ItemsTotal.StringFixed(2),
		GSTAmount:      order.GSTAmount.StringFixed(2),
		ShippingAmount: order.ShippingAmount.StringFixed(2),
		GrandTotal:     order.GrandTotal.StringFixed(2),
	}
	if order.DiscountAmount.IsPositive() {
		data.DiscountAmount = order.DiscountAmount.StringFixed(2)
	}
	for i := range order.Items {
		item := &order.Items[i]
		data.Items = append(data.Items, itemData{
			Title:        item.Title,
			VariantTitle: item.VariantTitle,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice.StringFixed(2),
			LineTotal:    item.LineTotal.StringFixed(2),
		})
	}

	var body bytes.Buffer
	if err := invoiceTmpl.Execute(&body, data); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoices directory")
	}

	path := filepath.Join(g.dir, fmt.Sprintf("%s.html", order.OrderNumber))
	if err := os.WriteFile(path, body.Bytes(), 0o644); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write invoice")
	}

	g.logger.Info(g.logger.WithField(ctx, "invoice_path", path), "invoice generated")
	return path, nil
}
