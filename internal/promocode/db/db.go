package db

import (
	"context"
	"time"

	"grabeat/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreatePromocode(promo *models.Promocode) error {
	_, err := d.Bun.NewInsert().Model(promo).Exec(context.Background())
	return err
}

func (d *DB) GetByCode(code string) (*models.Promocode, error) {
	var promo models.Promocode
	err := d.Bun.NewSelect().
		Model(&promo).
		Where("code = ?", code).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (d *DB) MarkUsed(code, orderID string, usedAt time.Time) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Promocode)(nil)).
		Set("is_used = ?", true).
		Set("used_at = ?", usedAt).
		Set("order_id = ?", orderID).
		Set("updated_at = ?", usedAt).
		Where("code = ?", code).
		Exec(context.Background())
	return err
}
