package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-be/internal/billing"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/realtime"
	"storefront-be/internal/storefront"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	// SubmitOrder never returns an error; every failure is folded into the result.
	SubmitOrder(ctx context.Context, in SubmitInput) SubmitResult
	GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, filter ListFilter) (*OrderPage, error)
	UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, to OrderStatus) (*Order, error)
	UpdatePaymentStatus(ctx context.Context, storeID, orderID uuid.UUID, status PaymentStatus) (*Order, error)
}

type StoreLookup interface {
	GetBySlug(ctx context.Context, slug string) (*storefront.Store, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithPublisher(p realtime.Publisher) Option {
	return func(s *service) { s.publisher = p }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(s *service) { s.metrics = m }
}

type service struct {
	repo      Repository
	stores    StoreLookup
	billing   billing.Enforcer
	publisher realtime.Publisher
	metrics   *metrics.Registry
	now       func() time.Time
}

func NewService(repo Repository, stores StoreLookup, enforcer billing.Enforcer, opts ...Option) Service {
	s := &service{
		repo:      repo,
		stores:    stores,
		billing:   enforcer,
		publisher: realtime.NopPublisher{},
		metrics:   metrics.Default,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) SubmitOrder(ctx context.Context, in SubmitInput) (res SubmitResult) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SubmitOrder"),
		zap.String("store_slug", in.StoreSlug),
		zap.String("idempotency_key", in.IdempotencyKey),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while submitting order", zap.Any("panic", r), zap.Stack("stack"))
			s.metrics.Counter(metrics.OrdersFailed).Inc()
			res = unknownResult()
		}
	}()

	now := s.now()
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	// 1. Form validation, no I/O
	if verr := ValidateSubmission(in, now); verr != nil {
		log.Info("submission rejected by validation", zap.String("code", verr.Code), zap.String("reason", verr.Message))
		s.metrics.Counter(metrics.OrdersFailed).Inc()
		return failureResult(verr)
	}

	// 2. Store
	store, err := s.stores.GetBySlug(ctx, strings.TrimSpace(in.StoreSlug))
	if errors.Is(err, storefront.ErrStoreNotFound) {
		s.metrics.Counter(metrics.OrdersFailed).Inc()
		return failureResult(&Error{Kind: KindStoreNotFound, Code: string(KindStoreNotFound), Message: "Loja não encontrada"})
	}
	if errors.Is(err, storefront.ErrInvalidSettings) {
		log.Error("store settings unreadable, refusing order", zap.Error(err))
		s.metrics.Counter(metrics.OrdersFailed).Inc()
		return failureResult(persistenceError(CodeStoreClosed, "Loja não está aceitando pedidos", nil))
	}
	if err != nil {
		log.Error("failed to resolve store", zap.Error(err))
		s.metrics.Counter(metrics.OrdersFailed).Inc()
		return unknownResult()
	}

	ctx = logger.WithStoreID(ctx, store.ID.String())
	log = log.With(zap.String("store_id", store.ID.String()))

	// 3. Billing gate
	decision, err := s.billing.Check(ctx, store.TenantID)
	if err != nil {
		log.Error("billing enforcement check failed", zap.Error(err))
		s.metrics.Counter(metrics.OrdersFailed).Inc()
		return unknownResult()
	}
	if !decision.Allowed {
		log.Warn("order blocked by billing", zap.String("tenant_id", store.TenantID.String()))
		s.metrics.Counter(metrics.BillingBlocked).Inc()
		return failureResult(&Error{Kind: KindBilling, Code: string(KindBilling), Message: decision.Message})
	}

	// 4. Store rules
	if serr := ValidateForStore(in, store.Settings, now); serr != nil {
		log.Info("submission rejected by store rules", zap.String("code", serr.Code))
		s.metrics.Counter(metrics.OrdersFailed).Inc()
		return failureResult(serr)
	}

	// 5. Atomic create
	params := CreateParams{
		StoreID:        store.ID,
		IdempotencyKey: in.IdempotencyKey,
		Channel:        in.Channel,
		PaymentMethod:  in.PaymentMethod,
		Notes:          in.Notes,
		CouponCode:     in.CouponCode,
		Customer:       in.Customer,
		Items:          in.Items,
		ScheduledFor:   in.ScheduledFor,
		Now:            now,
	}
	if in.Channel == ChannelDelivery {
		params.Address = in.Address
	}

	placement, err := s.repo.CreateOrder(ctx, params)
	if err != nil {
		s.metrics.Counter(metrics.OrdersFailed).Inc()

		var oerr *Error
		if errors.As(err, &oerr) {
			log.Info("order creation rejected", zap.String("code", oerr.Code))
			return failureResult(oerr)
		}
		if errors.Is(err, storefront.ErrStoreNotFound) {
			return failureResult(&Error{Kind: KindStoreNotFound, Code: string(KindStoreNotFound), Message: "Loja não encontrada"})
		}
		log.Error("order creation failed", zap.Error(err))
		return unknownResult()
	}

	if placement.Replayed {
		s.metrics.Counter(metrics.OrdersReplayed).Inc()
		log.Info("returning existing order for idempotency key", zap.String("order_id", placement.OrderID.String()))
		return successResult(placement)
	}

	s.metrics.Counter(metrics.OrdersSubmitted).Inc()
	s.publish(ctx, createdChange(store.ID, placement, now))

	log.Info("order submitted", zap.String("order_id", placement.OrderID.String()), zap.String("code", placement.Code))
	return successResult(placement)
}

func (s *service) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*Order, error) {
	return s.repo.GetOrder(ctx, storeID, orderID)
}

func (s *service) ListOrders(ctx context.Context, storeID uuid.UUID, filter ListFilter) (*OrderPage, error) {
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, st)
		}
	}
	return s.repo.ListOrders(ctx, storeID, filter)
}

func (s *service) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, to OrderStatus) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", orderID.String()),
		zap.String("to", string(to)),
	)

	if !to.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, to)
	}

	o, err := s.repo.GetOrder(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, to, o.Channel) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}

	actor := utils.ActorFromContext(ctx)
	if err := s.repo.TransitionStatus(ctx, storeID, orderID, o.Status, to, actor); err != nil {
		log.Warn("status transition failed", zap.String("from", string(o.Status)), zap.Error(err))
		return nil, err
	}

	log.Info("order status changed", zap.String("from", string(o.Status)))
	o.Status = to

	s.publish(ctx, changeFor(o, realtime.ChangeUpdate, s.now()))
	return o, nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, storeID, orderID uuid.UUID, status PaymentStatus) (*Order, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, status)
	}

	changed, err := s.repo.UpdatePaymentStatus(ctx, storeID, orderID, status, utils.ActorFromContext(ctx))
	if err != nil {
		return nil, err
	}

	o, err := s.repo.GetOrder(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, changeFor(o, realtime.ChangeUpdate, s.now()))
	}
	return o, nil
}

func (s *service) publish(ctx context.Context, change realtime.OrderChange) {
	if err := s.publisher.Publish(ctx, change); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order change",
			zap.String("layer", "service"),
			zap.String("order_id", change.OrderID.String()),
			zap.Error(err),
		)
	}
}
