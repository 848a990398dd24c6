package finance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	OrderTotals(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*OrderTotals, error)
	CashTotals(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*CashTotals, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) OrderTotals(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*OrderTotals, error) {
	var t OrderTotals
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status <> 'CANCELLED'),
			COUNT(*) FILTER (WHERE status = 'CANCELLED'),
			COALESCE(SUM(total) FILTER (WHERE status <> 'CANCELLED'), 0),
			COALESCE(SUM(total) FILTER (WHERE status <> 'CANCELLED' AND payment_status = 'PAID'), 0),
			COALESCE(SUM(total) FILTER (WHERE status <> 'CANCELLED' AND payment_status = 'PENDING'), 0),
			COALESCE(SUM(delivery_fee) FILTER (WHERE status <> 'CANCELLED'), 0),
			COALESCE(SUM(discount) FILTER (WHERE status <> 'CANCELLED'), 0)
		FROM orders
		WHERE store_id = $1 AND created_at >= $2 AND created_at < $3
	`, storeID, from, to).Scan(
		&t.OrderCount, &t.CancelledCount, &t.TotalSales, &t.PaidTotal,
		&t.PendingPaymentTotal, &t.DeliveryFees, &t.Discounts,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate orders: %w", err)
	}
	return &t, nil
}

func (r *repository) CashTotals(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*CashTotals, error) {
	var t CashTotals
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type IN ('sale', 'deposit')), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'withdrawal'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'adjustment'), 0)
		FROM cash_movements
		WHERE store_id = $1 AND created_at >= $2 AND created_at < $3
	`, storeID, from, to).Scan(&t.TotalIn, &t.TotalOut, &t.Adjustments)
	if err != nil {
		return nil, fmt.Errorf("aggregate cash movements: %w", err)
	}
	return &t, nil
}
