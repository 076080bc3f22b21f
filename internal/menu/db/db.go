package db

import (
	"context"

	"grabeat/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateMenuItem(item *models.MenuItem) error {
	_, err := d.Bun.NewInsert().Model(item).Exec(context.Background())
	return err
}

func (d *DB) GetMenuItemByID(id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (d *DB) ListMenuItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := d.Bun.NewSelect().
		Model(&items).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) ListMenuItemsByCategory(categoryID string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("category_id = ?", categoryID).
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DB) UpdateMenuItem(item *models.MenuItem) error {
	_, err := d.Bun.NewUpdate().
		Model(item).
		Set("title = ?", item.Title).
		Set("description = ?", item.Desc).
		Set("price = ?", item.Price).
		Set("combo = ?", item.Combo).
		Set("category_id = ?", item.CategoryID).
		Set("is_available = ?", item.IsAvailable).
		Set("image = ?", item.Image).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", item.ID).
		Exec(context.Background())
	return err
}

func (d *DB) DeleteMenuItem(id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.MenuItem)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}
