package finance

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/cashregister"
	"storefront-be/internal/logger"
	"storefront-be/internal/storefront"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const historySize = 10

type Service interface {
	Summary(ctx context.Context, storeID uuid.UUID, period Period) (*Summary, error)
}

type StoreLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*storefront.Store, error)
}

// Registers is the slice of the cash register service the summary reads.
type Registers interface {
	CurrentRegister(ctx context.Context, storeID uuid.UUID) (*cashregister.Register, *cashregister.Summary, error)
	ListRegisters(ctx context.Context, storeID uuid.UUID, limit int) ([]*cashregister.Register, error)
}

type service struct {
	repo      Repository
	stores    StoreLookup
	registers Registers
	now       func() time.Time
}

func NewService(repo Repository, stores StoreLookup, registers Registers) Service {
	return &service{repo: repo, stores: stores, registers: registers, now: time.Now}
}

func (s *service) Summary(ctx context.Context, storeID uuid.UUID, period Period) (*Summary, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "FinancialSummary"),
		zap.String("store_id", storeID.String()),
		zap.String("period", string(period)),
	)

	if period == "" {
		period = PeriodToday
	}
	if !period.IsValid() {
		return nil, ErrInvalidPeriod
	}

	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	from, to, err := Bounds(period, s.now(), store.Settings.Location())
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.OrderTotals(ctx, storeID, from, to)
	if err != nil {
		log.Error("failed to aggregate orders", zap.Error(err))
		return nil, err
	}
	cash, err := s.repo.CashTotals(ctx, storeID, from, to)
	if err != nil {
		log.Error("failed to aggregate cash movements", zap.Error(err))
		return nil, err
	}

	out := &Summary{
		Period:        period,
		From:          from,
		To:            to,
		Orders:        *orders,
		AverageTicket: decimal.Zero,
		Cash:          *cash,
	}
	if orders.OrderCount > 0 {
		out.AverageTicket = orders.TotalSales.Div(decimal.NewFromInt(orders.OrderCount)).Round(2)
	}

	reg, live, err := s.registers.CurrentRegister(ctx, storeID)
	switch {
	case errors.Is(err, cashregister.ErrNoOpenRegister):
		// drawer closed
	case err != nil:
		return nil, err
	default:
		out.Register = RegisterStatus{Open: true, Current: reg, Expected: &live.Expected}
	}

	if out.History, err = s.registers.ListRegisters(ctx, storeID, historySize); err != nil {
		return nil, err
	}
	return out, nil
}
