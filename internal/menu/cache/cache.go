package cache

import (
	"context"
	"encoding/json"
	"time"

	"grabeat/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	menuListKey = "menu:all"
	menuListTTL = 10 * time.Minute
)

// Cache keeps the full menu listing in Redis so the storefront read
// path skips Postgres. Writers invalidate; a miss falls through to
// the database.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) GetMenuList(ctx context.Context) ([]models.MenuItem, bool) {
	data, err := c.client.Get(ctx, menuListKey).Bytes()
	if err != nil {
		return nil, false
	}

	var items []models.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *Cache) SetMenuList(ctx context.Context, items []models.MenuItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, menuListKey, data, menuListTTL).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, menuListKey).Err()
}
