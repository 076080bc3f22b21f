package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order lifecycle statuses. An order moves pending -> confirmed ->
// preparing -> out_for_delivery -> delivered, or to cancelled at any
// point before delivered.
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPreparing      = "preparing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// OrderStatuses lists every status the admin panel may set.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// OrderItem is a snapshot of a menu item at the time of ordering.
// All amounts are euro cents.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID         string `bun:"id,pk" json:"id"`
	OrderID    string `bun:"order_id" json:"-"`
	MenuItemID string `bun:"menu_item_id" json:"menuItemId"`
	Title      string `bun:"title" json:"title"`
	Price      int64  `bun:"price" json:"price"`
	Quantity   int64  `bun:"quantity" json:"quantity"`
	Total      int64  `bun:"total" json:"total"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              string       `bun:"id,pk" json:"id"`
	CustomerName    string       `bun:"customer_name" json:"customerName"`
	CustomerEmail   string       `bun:"customer_email" json:"customerEmail"`
	CustomerPhone   string       `bun:"customer_phone" json:"customerPhone"`
	DeliveryAddress string       `bun:"delivery_address" json:"deliveryAddress"`
	Items           []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items"`

	Subtotal    int64 `bun:"subtotal" json:"subtotal"`
	DeliveryFee int64 `bun:"delivery_fee" json:"deliveryFee"`
	TotalAmount int64 `bun:"total_amount" json:"totalAmount"`

	PromocodeUsed  string `bun:"promocode_used,nullzero" json:"promocodeUsed,omitempty"`
	DiscountAmount int64  `bun:"discount_amount" json:"discountAmount"`
	OriginalTotal  int64  `bun:"original_total,nullzero" json:"originalTotal,omitempty"`

	Status        string `bun:"status" json:"status"`
	PaymentStatus string `bun:"payment_status" json:"paymentStatus"`

	StripeSessionID       string `bun:"stripe_session_id,nullzero" json:"stripeSessionId,omitempty"`
	StripePaymentIntentID string `bun:"stripe_payment_intent_id,nullzero" json:"stripePaymentIntentId,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// OrderItemRequest mirrors OrderItem on the checkout request body.
type OrderItemRequest struct {
	MenuItemID string `json:"menuItemId"`
	Title      string `json:"title"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	Total      int64  `json:"total"`
}

// OrderRequest is the checkout request body. Amounts are euro cents.
type OrderRequest struct {
	CustomerName    string             `json:"customerName"`
	CustomerEmail   string             `json:"customerEmail"`
	CustomerPhone   string             `json:"customerPhone"`
	DeliveryAddress string             `json:"deliveryAddress"`
	Items           []OrderItemRequest `json:"items"`
	Subtotal        int64              `json:"subtotal"`
	DeliveryFee     int64              `json:"deliveryFee"`
	TotalAmount     int64              `json:"totalAmount"`
	PromocodeUsed   string             `json:"promocodeUsed,omitempty"`
	DiscountAmount  int64              `json:"discountAmount,omitempty"`
	OriginalTotal   int64              `json:"originalTotal,omitempty"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	OrderID   string `json:"orderId"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
