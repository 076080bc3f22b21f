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

// CreateOrder inserts the order and its item snapshots in one
// transaction.
func (d *DB) CreateOrder(order *models.Order) error {
	ctx := context.Background()
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		if len(order.Items) > 0 {
			if _, err := tx.NewInsert().Model(&order.Items).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) GetOrderByID(id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("Items").
		Where("\"order\".id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *DB) GetOrderBySession(sessionID string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Relation("Items").
		Where("\"order\".stripe_session_id = ?", sessionID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetStripeSession attaches the checkout session id to an order.
func (d *DB) SetStripeSession(orderID, sessionID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("stripe_session_id = ?", sessionID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", orderID).
		Exec(context.Background())
	return err
}

// UpdateStatus writes the lifecycle fields set by the orchestrator and
// the payment webhook.
func (d *DB) UpdateStatus(order *models.Order) error {
	_, err := d.Bun.NewUpdate().
		Model(order).
		Column("status", "payment_status", "stripe_payment_intent_id").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", order.ID).
		Exec(context.Background())
	return err
}

func (d *DB) ListOrders() ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Relation("Items").
		Order("created_at DESC").
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return orders, nil
}
