package cashregister

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/storefront"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	OpenRegister(ctx context.Context, storeID uuid.UUID, opening decimal.Decimal) (*Register, error)
	CloseRegister(ctx context.Context, in CloseInput) (*Register, error)
	RecordMovement(ctx context.Context, in MovementInput) (*Movement, error)
	CurrentRegister(ctx context.Context, storeID uuid.UUID) (*Register, *Summary, error)
	RegisterSummary(ctx context.Context, storeID, registerID uuid.UUID) (*Summary, error)
	ListRegisters(ctx context.Context, storeID uuid.UUID, limit int) ([]*Register, error)
	ListMovements(ctx context.Context, storeID, registerID uuid.UUID) ([]Movement, error)
}

// StoreLookup resolves store settings for the close PIN.
type StoreLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*storefront.Store, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(s *service) { s.metrics = m }
}

type service struct {
	repo    Repository
	stores  StoreLookup
	metrics *metrics.Registry
	now     func() time.Time
}

func NewService(repo Repository, stores StoreLookup, opts ...Option) Service {
	s := &service{
		repo:    repo,
		stores:  stores,
		metrics: metrics.Default,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) OpenRegister(ctx context.Context, storeID uuid.UUID, opening decimal.Decimal) (*Register, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "OpenRegister"),
		zap.String("store_id", storeID.String()),
	)

	// zero float is allowed
	if opening.IsNegative() {
		return nil, ErrInvalidAmount
	}

	reg, err := s.repo.Open(ctx, storeID, opening.Round(2), utils.ActorFromContext(ctx), s.now())
	if err != nil {
		if errors.Is(err, ErrRegisterAlreadyOpen) {
			log.Warn("register already open")
		} else {
			log.Error("failed to open register", zap.Error(err))
		}
		return nil, err
	}

	s.metrics.Counter(metrics.RegistersOpened).Inc()
	log.Info("register opened",
		zap.String("register_id", reg.ID.String()),
		zap.String("opening", reg.OpeningAmount.StringFixed(2)),
	)
	return reg, nil
}

func (s *service) CloseRegister(ctx context.Context, in CloseInput) (*Register, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CloseRegister"),
		zap.String("store_id", in.StoreID.String()),
	)

	if in.Counted.IsNegative() {
		return nil, ErrInvalidAmount
	}

	store, err := s.stores.GetByID(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}
	if hash := store.Settings.Cash.ClosePinHash; hash != "" && !auth.CheckPin(in.Pin, hash) {
		log.Warn("close rejected, wrong pin")
		return nil, ErrInvalidPin
	}

	reg, err := s.repo.Close(ctx, closeParams{
		StoreID:    in.StoreID,
		RegisterID: in.RegisterID,
		Counted:    in.Counted.Round(2),
		Actor:      utils.ActorFromContext(ctx),
		Now:        s.now(),
	})
	if err != nil {
		log.Warn("failed to close register", zap.Error(err))
		return nil, err
	}

	s.metrics.Counter(metrics.RegistersClosed).Inc()
	if reg.Difference != nil && !reg.Difference.IsZero() {
		log.Info("register closed with difference", zap.String("difference", reg.Difference.StringFixed(2)))
	}
	return reg, nil
}

func (s *service) RecordMovement(ctx context.Context, in MovementInput) (*Movement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RecordMovement"),
		zap.String("store_id", in.StoreID.String()),
	)

	if err := ValidateMovement(in.Type, in.Amount); err != nil {
		return nil, err
	}

	m := &Movement{
		StoreID:       in.StoreID,
		Type:          in.Type,
		Amount:        in.Amount.Round(2),
		Description:   utils.NilIfBlank(in.Description),
		PaymentMethod: utils.NilIfBlank(in.PaymentMethod),
		Actor:         utils.ActorFromContext(ctx),
		CreatedAt:     s.now(),
	}
	if err := s.repo.InsertMovement(ctx, m); err != nil {
		log.Error("failed to record movement", zap.Error(err))
		return nil, err
	}

	s.metrics.Counter(metrics.MovementsRecorded).Inc()
	if m.RegisterID == nil {
		log.Warn("movement recorded without open register",
			zap.String("movement_id", m.ID.String()),
			zap.String("type", string(m.Type)),
		)
	}
	return m, nil
}

func (s *service) CurrentRegister(ctx context.Context, storeID uuid.UUID) (*Register, *Summary, error) {
	reg, err := s.repo.GetOpen(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}
	movements, err := s.repo.ListMovements(ctx, storeID, reg.ID)
	if err != nil {
		return nil, nil, err
	}
	summary := Summarize(reg.OpeningAmount, movements)
	return reg, &summary, nil
}

func (s *service) RegisterSummary(ctx context.Context, storeID, registerID uuid.UUID) (*Summary, error) {
	reg, err := s.repo.GetByID(ctx, storeID, registerID)
	if err != nil {
		return nil, err
	}
	movements, err := s.repo.ListMovements(ctx, storeID, reg.ID)
	if err != nil {
		return nil, err
	}
	summary := Summarize(reg.OpeningAmount, movements)
	return &summary, nil
}

func (s *service) ListRegisters(ctx context.Context, storeID uuid.UUID, limit int) ([]*Register, error) {
	return s.repo.List(ctx, storeID, limit)
}

func (s *service) ListMovements(ctx context.Context, storeID, registerID uuid.UUID) ([]Movement, error) {
	if _, err := s.repo.GetByID(ctx, storeID, registerID); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, storeID, registerID)
}
