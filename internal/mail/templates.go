package mail

import (
	"bytes"
	"html/template"
	"time"

	"grabeat/internal/models"
)

var orderNotificationTmpl = template.Must(template.New("orderNotification").Funcs(template.FuncMap{
	"euros": formatEuros,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>New Order Received - Grab &amp; Eat</title>
</head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background-color: #f5f5f5;">
  <div style="max-width: 700px; margin: 20px auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #E30613; color: white; padding: 25px; text-align: center;">
      <h2>NEW ORDER RECEIVED</h2>
      <p>Order ID: #{{.Ref}}</p>
    </div>
    <div style="padding: 30px;">
      <h3 style="color: #E30613;">Customer Information</h3>
      <p><strong>Name:</strong> {{.Order.CustomerName}}</p>
      <p><strong>Email:</strong> {{.Order.CustomerEmail}}</p>
      <p><strong>Phone:</strong> {{.Order.CustomerPhone}}</p>
      <h3 style="color: #E30613;">Delivery Address</h3>
      <p>{{.Order.DeliveryAddress}}</p>
      <h3 style="color: #E30613;">Order Items</h3>
      {{range .Order.Items}}
      <div style="display: flex; justify-content: space-between; padding: 10px; background: #f8f9fa; margin-bottom: 8px;">
        <span>{{.Title}} &mdash; {{.Quantity}} &times; {{euros .Price}}</span>
        <strong>{{euros .Total}}</strong>
      </div>
      {{end}}
      <div style="background: #333; color: white; padding: 20px; border-radius: 8px;">
        <p>Subtotal: {{euros .Order.Subtotal}}</p>
        <p>Delivery fee: {{euros .Order.DeliveryFee}}</p>
        {{if .Order.PromocodeUsed}}<p>Promocode {{.Order.PromocodeUsed}}: -{{euros .Order.DiscountAmount}}</p>{{end}}
        <p style="font-size: 18px;"><strong>TOTAL: {{euros .Order.TotalAmount}}</strong></p>
      </div>
      <div style="background: #FFD200; color: #333; padding: 20px; margin-top: 20px; text-align: center;">
        <p><strong>Payment Status:</strong> {{.PaymentStatus}}</p>
        <p><strong>Order Status:</strong> {{.Status}}</p>
        <p>Please log into the admin panel to confirm and process this order.</p>
      </div>
    </div>
    <div style="background: #333; color: white; padding: 20px; text-align: center;">
      <p><strong>Grab &amp; Eat Admin Portal</strong></p>
      <p>Order received at: {{.ReceivedAt}}</p>
    </div>
  </div>
</body>
</html>`))

var promocodeTmpl = template.Must(template.New("promocode").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Your Exclusive Promocode - Grab &amp; Eat</title>
</head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background-color: #f5f5f5;">
  <div style="max-width: 600px; margin: 20px auto; background: white; border-radius: 15px; overflow: hidden;">
    <div style="background: #E30613; color: white; padding: 35px 20px; text-align: center;">
      <h1>Grab &amp; Eat</h1>
      <p>Thank you for your order!</p>
    </div>
    <div style="padding: 35px 30px; text-align: center;">
      <p style="color: #666;">As a token of our appreciation, here's an exclusive promocode just for you:</p>
      <div style="background: #FFD200; border: 3px dashed #E30613; padding: 25px; border-radius: 15px; margin: 25px 0;">
        <div style="font-size: 34px; font-weight: bold; color: #E30613; letter-spacing: 3px; font-family: 'Courier New', monospace;">{{.Code}}</div>
        <div style="color: #666; font-size: 14px; margin-top: 10px;">Copy this code for your next order!</div>
      </div>
      <p><strong>{{.Discount}}% OFF</strong> on your next order</p>
      <p style="background: #fff3cd; color: #856404; padding: 12px; border-radius: 8px;"><strong>Valid Until:</strong> {{.ValidUntil}}</p>
      <a href="{{.MenuURL}}" style="display: inline-block; background: #E30613; color: white; padding: 15px 30px; border-radius: 25px; text-decoration: none; font-weight: bold; margin-top: 15px;">Order Now</a>
    </div>
    <div style="background: #333; color: white; padding: 18px; text-align: center; font-size: 14px;">
      <p><strong>Grab &amp; Eat</strong> - Delicious food delivered to your door</p>
      <p>This promocode was sent to: {{.Recipient}}</p>
    </div>
  </div>
</body>
</html>`))

func renderOrderNotification(order *models.Order) (string, error) {
	data := struct {
		Order         *models.Order
		Ref           string
		Status        string
		PaymentStatus string
		ReceivedAt    string
	}{
		Order:         order,
		Ref:           shortOrderRef(order.ID),
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		ReceivedAt:    time.Now().Format("02 Jan 2006 15:04"),
	}

	var buf bytes.Buffer
	if err := orderNotificationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderPromocodeEmail(recipient, code string, discount int, validUntil time.Time, frontendURL string) (string, error) {
	data := struct {
		Code       string
		Discount   int
		ValidUntil string
		MenuURL    string
		Recipient  string
	}{
		Code:       code,
		Discount:   discount,
		ValidUntil: validUntil.Format("2 January 2006"),
		MenuURL:    frontendURL + "/menu",
		Recipient:  recipient,
	}

	var buf bytes.Buffer
	if err := promocodeTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
