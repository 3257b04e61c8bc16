package notifications

import (
	"html/template"
)

// Templates are compiled once at startup. A parse failure here is a
// programming error, not a runtime condition.
var (
	orderConfirmedTmpl = template.Must(template.New("order_confirmed").Parse(`
<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto">
  <h2>Thank you for your order, {{.CustomerName}}!</h2>
  <p>Your order <strong>{{.OrderNumber}}</strong> is confirmed and will be packed shortly.</p>
  <table width="100%" cellpadding="6" style="border-collapse:collapse">
    {{range .Items}}
    <tr>
      <td>{{.Title}} ({{.VariantTitle}}) &times; {{.Quantity}}</td>
      <td align="right">&#8377;{{.LineTotal}}</td>
    </tr>
    {{end}}
    {{if .DiscountAmount}}
    <tr><td>Discount{{if .CouponCode}} ({{.CouponCode}}){{end}}</td><td align="right">&minus;&#8377;{{.DiscountAmount}}</td></tr>
    {{end}}
    <tr><td>GST</td><td align="right">&#8377;{{.GSTAmount}}</td></tr>
    <tr><td>Shipping</td><td align="right">&#8377;{{.ShippingAmount}}</td></tr>
    <tr><td><strong>Total paid</strong></td><td align="right"><strong>&#8377;{{.GrandTotal}}</strong></td></tr>
  </table>
  <p>We will email you again when your teas leave the estate.</p>
</div>`))

	orderShippedTmpl = template.Must(template.New("order_shipped").Parse(`
<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto">
  <h2>Your order is on its way, {{.CustomerName}}!</h2>
  <p>Order <strong>{{.OrderNumber}}</strong> has been shipped.</p>
  {{if .AWBCode}}<p>Tracking number: <strong>{{.AWBCode}}</strong>{{if .CourierName}} via {{.CourierName}}{{end}}</p>{{end}}
</div>`))

	orderDeliveredTmpl = template.Must(template.New("order_delivered").Parse(`
<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto">
  <h2>Delivered!</h2>
  <p>Order <strong>{{.OrderNumber}}</strong> has arrived. We hope you enjoy every cup, {{.CustomerName}}.</p>
  <p>Changed your mind? Returns are accepted within {{.ReturnWindowDays}} days of delivery.</p>
</div>`))

	refundProcessedTmpl = template.Must(template.New("refund_processed").Parse(`
<div style="font-family:Georgia,serif;max-width:560px;margin:0 auto">
  <h2>Your refund is on its way</h2>
  <p>We have refunded <strong>&#8377;{{.RefundAmount}}</strong> for order <strong>{{.OrderNumber}}</strong>.</p>
  <p>Depending on your bank, the amount can take 5&ndash;7 business days to appear.</p>
</div>`))
)

type confirmedEmailData struct {
	CustomerName   string
	OrderNumber    string
	Items          []confirmedEmailItem
	CouponCode     string
	DiscountAmount string
	GSTAmount      string
	ShippingAmount string
	GrandTotal     string
}

type confirmedEmailItem struct {
	Title        string
	VariantTitle string
	Quantity     int
	LineTotal    string
}

type shippedEmailData struct {
	CustomerName string
	OrderNumber  string
	AWBCode      string
	CourierName  string
}

type deliveredEmailData struct {
	CustomerName     string
	OrderNumber      string
	ReturnWindowDays int
}

type refundEmailData struct {
	OrderNumber  string
	RefundAmount string
}
