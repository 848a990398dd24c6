package storefront

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeColumns = []string{"id", "tenant_id", "slug", "name", "settings", "created_at", "updated_at"}

func TestRepository_GetBySlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	storeID := uuid.New()
	tenantID := uuid.New()
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`FROM stores\s+WHERE slug = \$1`).
			WithArgs("acai-da-praia").
			WillReturnRows(sqlmock.NewRows(storeColumns).AddRow(
				storeID.String(), tenantID.String(), "acai-da-praia", "Açaí da Praia",
				[]byte(`{"checkoutMode":"phone_required","acceptingOrders":false}`), now, now,
			))

		s, err := repo.GetBySlug(ctx, "acai-da-praia")
		require.NoError(t, err)
		assert.Equal(t, storeID, s.ID)
		assert.Equal(t, tenantID, s.TenantID)
		assert.Equal(t, CheckoutPhoneRequired, s.Settings.CheckoutMode)
		assert.False(t, s.Settings.AcceptingOrders)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM stores\s+WHERE slug = \$1`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(storeColumns))

		s, err := repo.GetBySlug(ctx, "missing")
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("Broken settings fail closed", func(t *testing.T) {
		mock.ExpectQuery(`FROM stores\s+WHERE slug = \$1`).
			WithArgs("legacy").
			WillReturnRows(sqlmock.NewRows(storeColumns).AddRow(
				storeID.String(), tenantID.String(), "legacy", "Legacy", []byte(`{not json`), now, now,
			))

		s, err := repo.GetBySlug(ctx, "legacy")
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrInvalidSettings)
	})

	t.Run("End-of-day closing keeps guarded settings", func(t *testing.T) {
		mock.ExpectQuery(`FROM stores\s+WHERE slug = \$1`).
			WithArgs("noite").
			WillReturnRows(sqlmock.NewRows(storeColumns).AddRow(
				storeID.String(), tenantID.String(), "noite", "Noite",
				[]byte(`{"acceptingOrders":false,"payments":{"pix":true,"cash":false},"cash":{"closePinHash":"$2a$10$abc"},"businessHours":[{"weekday":1,"open":"18:00","close":"24:00"}]}`),
				now, now,
			))

		s, err := repo.GetBySlug(ctx, "noite")
		require.NoError(t, err)
		assert.False(t, s.Settings.AcceptingOrders)
		assert.False(t, s.Settings.AllowsPayment("CASH"))
		assert.Equal(t, "$2a$10$abc", s.Settings.Cash.ClosePinHash)
		assert.Len(t, s.Settings.BusinessHours, 1)
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(`FROM stores\s+WHERE slug = \$1`).
			WithArgs("boom").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetBySlug(ctx, "boom")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrStoreNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storeID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM stores\s+WHERE id = \$1`).
		WithArgs(storeID).
		WillReturnRows(sqlmock.NewRows(storeColumns).AddRow(
			storeID.String(), uuid.NewString(), "pizzaria", "Pizzaria", nil, now, now,
		))

	s, err := NewRepository(db).GetByID(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, "pizzaria", s.Slug)
	assert.True(t, s.Settings.AcceptingOrders)
	assert.NoError(t, mock.ExpectationsWereMet())
}
