package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MenuItem is a storefront dish. Price is euro cents.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID          string    `bun:"id,pk" json:"id"`
	Title       string    `bun:"title" json:"title"`
	Desc        string    `bun:"description" json:"desc"`
	Price       int64     `bun:"price" json:"price"`
	Combo       bool      `bun:"combo" json:"combo"`
	CategoryID  string    `bun:"category_id,nullzero" json:"categoryId,omitempty"`
	IsAvailable bool      `bun:"is_available" json:"isAvailable"`
	Image       string    `bun:"image,nullzero" json:"image,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	// ImageURL is derived from Image at read time, never stored.
	ImageURL string `bun:"-" json:"imageUrl,omitempty"`
}

type CreateMenuItemRequest struct {
	Title       string `json:"title"`
	Desc        string `json:"desc"`
	Price       int64  `json:"price"`
	Combo       bool   `json:"combo"`
	CategoryID  string `json:"categoryId"`
	IsAvailable *bool  `json:"isAvailable"`
	ImageBase64 string `json:"imageBase64"`
}

type UpdateMenuItemRequest struct {
	Title       *string `json:"title"`
	Desc        *string `json:"desc"`
	Price       *int64  `json:"price"`
	Combo       *bool   `json:"combo"`
	CategoryID  *string `json:"categoryId"`
	IsAvailable *bool   `json:"isAvailable"`
	ImageBase64 string  `json:"imageBase64"`
}
