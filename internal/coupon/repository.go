package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Queryer and Execer are satisfied by *sql.DB and *sql.Tx.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type Repository interface {
	GetByCode(ctx context.Context, storeID uuid.UUID, code string) (*Coupon, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const selectCoupon = `
	SELECT id, store_id, code, discount_type, value, min_order,
		max_uses, used_count, starts_at, expires_at, active
	FROM coupons
	WHERE store_id = $1 AND code = $2
`

func (r *repository) GetByCode(ctx context.Context, storeID uuid.UUID, code string) (*Coupon, error) {
	return find(ctx, r.db, selectCoupon, storeID, code)
}

// LockByCode loads the coupon inside tx and holds a row lock until the tx
// ends, so concurrent orders cannot overrun max_uses.
func LockByCode(ctx context.Context, tx Queryer, storeID uuid.UUID, code string) (*Coupon, error) {
	return find(ctx, tx, selectCoupon+` FOR UPDATE`, storeID, code)
}

// IncrementUsage bumps used_count for a coupon applied to a new order.
func IncrementUsage(ctx context.Context, tx Execer, couponID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE coupons SET used_count = used_count + 1 WHERE id = $1`, couponID)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	return nil
}

func find(ctx context.Context, q Queryer, query string, storeID uuid.UUID, code string) (*Coupon, error) {
	var (
		c       Coupon
		maxUses sql.NullInt64
		starts  sql.NullTime
		expires sql.NullTime
	)

	err := q.QueryRowContext(ctx, query, storeID, NormalizeCode(code)).Scan(
		&c.ID, &c.StoreID, &c.Code, &c.DiscountType, &c.Value, &c.MinOrder,
		&maxUses, &c.UsedCount, &starts, &expires, &c.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load coupon: %w", err)
	}

	if maxUses.Valid {
		n := int(maxUses.Int64)
		c.MaxUses = &n
	}
	if starts.Valid {
		c.StartsAt = &starts.Time
	}
	if expires.Valid {
		c.ExpiresAt = &expires.Time
	}
	return &c, nil
}
