package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var couponColumns = []string{
	"id", "store_id", "code", "discount_type", "value", "min_order",
	"max_uses", "used_count", "starts_at", "expires_at", "active",
}

func TestRepository_GetByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storeID := uuid.New()
	couponID := uuid.New()
	expires := time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`FROM coupons\s+WHERE store_id = \$1 AND code = \$2`).
			WithArgs(storeID, "PROMO10").
			WillReturnRows(sqlmock.NewRows(couponColumns).AddRow(
				couponID.String(), storeID.String(), "PROMO10", "percentage", "10", "30.00",
				int64(100), 4, nil, expires, true,
			))

		c, err := NewRepository(db).GetByCode(context.Background(), storeID, " promo10 ")
		require.NoError(t, err)
		assert.Equal(t, couponID, c.ID)
		assert.Equal(t, DiscountPercentage, c.DiscountType)
		assert.Equal(t, "30", c.MinOrder.String())
		require.NotNil(t, c.MaxUses)
		assert.Equal(t, 100, *c.MaxUses)
		assert.Nil(t, c.StartsAt)
		require.NotNil(t, c.ExpiresAt)
		assert.True(t, expires.Equal(*c.ExpiresAt))
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM coupons`).
			WithArgs(storeID, "NOPE").
			WillReturnRows(sqlmock.NewRows(couponColumns))

		_, err := NewRepository(db).GetByCode(context.Background(), storeID, "nope")
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockByCodeAndIncrement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storeID := uuid.New()
	couponID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM coupons\s+WHERE store_id = \$1 AND code = \$2\s+FOR UPDATE`).
		WithArgs(storeID, "FRETE").
		WillReturnRows(sqlmock.NewRows(couponColumns).AddRow(
			couponID.String(), storeID.String(), "FRETE", "free_delivery", "0", "0",
			nil, 0, nil, nil, true,
		))
	mock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1 WHERE id = \$1`).
		WithArgs(couponID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	c, err := LockByCode(ctx, tx, storeID, "frete")
	require.NoError(t, err)
	assert.Nil(t, c.MaxUses)
	assert.Equal(t, DiscountFreeDelivery, c.DiscountType)

	require.NoError(t, IncrementUsage(ctx, tx, c.ID))
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}
