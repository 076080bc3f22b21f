package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Promocode is a single-use discount code tied to one customer's email.
type Promocode struct {
	bun.BaseModel `bun:"table:promocodes"`

	ID                 string    `bun:"id,pk" json:"id"`
	Code               string    `bun:"code,unique" json:"code"`
	UserEmail          string    `bun:"user_email" json:"userEmail"`
	DiscountPercentage int       `bun:"discount_percentage" json:"discountPercentage"`
	ValidUntil         time.Time `bun:"valid_until" json:"validUntil"`
	IsUsed             bool      `bun:"is_used" json:"isUsed"`
	UsedAt             time.Time `bun:"used_at,nullzero" json:"usedAt,omitempty"`
	OrderID            string    `bun:"order_id,nullzero" json:"orderId,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// PromocodeCheck is the read-only verification result.
type PromocodeCheck struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message"`
	Discount int    `json:"discount,omitempty"`
}

type VerifyPromocodeRequest struct {
	Code      string `json:"code"`
	UserEmail string `json:"userEmail"`
}
