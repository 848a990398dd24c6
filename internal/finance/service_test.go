package finance

import (
	"context"
	"testing"
	"time"

	"storefront-be/internal/cashregister"
	"storefront-be/internal/storefront"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) OrderTotals(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*OrderTotals, error) {
	args := m.Called(ctx, storeID, from, to)
	if t := args.Get(0); t != nil {
		return t.(*OrderTotals), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CashTotals(ctx context.Context, storeID uuid.UUID, from, to time.Time) (*CashTotals, error) {
	args := m.Called(ctx, storeID, from, to)
	if t := args.Get(0); t != nil {
		return t.(*CashTotals), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockStores struct {
	mock.Mock
}

func (m *MockStores) GetByID(ctx context.Context, id uuid.UUID) (*storefront.Store, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*storefront.Store), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockRegisters struct {
	mock.Mock
}

func (m *MockRegisters) CurrentRegister(ctx context.Context, storeID uuid.UUID) (*cashregister.Register, *cashregister.Summary, error) {
	args := m.Called(ctx, storeID)
	reg, _ := args.Get(0).(*cashregister.Register)
	sum, _ := args.Get(1).(*cashregister.Summary)
	return reg, sum, args.Error(2)
}

func (m *MockRegisters) ListRegisters(ctx context.Context, storeID uuid.UUID, limit int) ([]*cashregister.Register, error) {
	args := m.Called(ctx, storeID, limit)
	return args.Get(0).([]*cashregister.Register), args.Error(1)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummary(t *testing.T) {
	storeID := uuid.New()
	store := &storefront.Store{ID: storeID, Settings: storefront.DefaultSettings()}
	store.Settings.Timezone = "UTC"
	now := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	dayStart := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	setup := func() (*service, *MockRepository, *MockStores, *MockRegisters) {
		repo, stores, regs := new(MockRepository), new(MockStores), new(MockRegisters)
		svc := NewService(repo, stores, regs).(*service)
		svc.now = func() time.Time { return now }
		stores.On("GetByID", mock.Anything, storeID).Return(store, nil)
		return svc, repo, stores, regs
	}

	t.Run("Today with open drawer", func(t *testing.T) {
		svc, repo, _, regs := setup()
		open := &cashregister.Register{ID: uuid.New(), Status: cashregister.StatusOpen, OpeningAmount: d("50")}

		repo.On("OrderTotals", mock.Anything, storeID, dayStart, dayStart.AddDate(0, 0, 1)).
			Return(&OrderTotals{OrderCount: 4, TotalSales: d("100.00"), PendingPaymentTotal: d("25.00")}, nil)
		repo.On("CashTotals", mock.Anything, storeID, dayStart, dayStart.AddDate(0, 0, 1)).
			Return(&CashTotals{TotalIn: d("35"), TotalOut: d("10")}, nil)
		regs.On("CurrentRegister", mock.Anything, storeID).
			Return(open, &cashregister.Summary{Expected: d("75")}, nil)
		regs.On("ListRegisters", mock.Anything, storeID, historySize).
			Return([]*cashregister.Register{open}, nil)

		out, err := svc.Summary(context.Background(), storeID, "")
		require.NoError(t, err)

		assert.Equal(t, PeriodToday, out.Period)
		assert.Equal(t, "25.00", out.AverageTicket.StringFixed(2))
		assert.Equal(t, "25.00", out.Orders.PendingPaymentTotal.StringFixed(2))
		assert.True(t, out.Register.Open)
		assert.Equal(t, "75.00", out.Register.Expected.StringFixed(2))
		assert.Len(t, out.History, 1)
	})

	t.Run("Closed drawer and no orders", func(t *testing.T) {
		svc, repo, _, regs := setup()

		repo.On("OrderTotals", mock.Anything, storeID, mock.Anything, mock.Anything).Return(&OrderTotals{}, nil)
		repo.On("CashTotals", mock.Anything, storeID, mock.Anything, mock.Anything).Return(&CashTotals{}, nil)
		regs.On("CurrentRegister", mock.Anything, storeID).Return(nil, nil, cashregister.ErrNoOpenRegister)
		regs.On("ListRegisters", mock.Anything, storeID, historySize).Return([]*cashregister.Register{}, nil)

		out, err := svc.Summary(context.Background(), storeID, PeriodMonth)
		require.NoError(t, err)

		assert.True(t, out.AverageTicket.IsZero())
		assert.False(t, out.Register.Open)
		assert.Nil(t, out.Register.Current)
		assert.Equal(t, 1, out.From.Day())
	})

	t.Run("Invalid period", func(t *testing.T) {
		svc, repo, _, _ := setup()

		_, err := svc.Summary(context.Background(), storeID, "year")
		assert.ErrorIs(t, err, ErrInvalidPeriod)
		repo.AssertNotCalled(t, "OrderTotals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
