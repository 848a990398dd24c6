package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultBlockedMessage = "Store temporarily unavailable for new orders"

// Decision is the outcome of a billing enforcement check for a tenant.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message,omitempty"`
}

type Enforcer interface {
	Check(ctx context.Context, tenantID uuid.UUID) (Decision, error)
}

type sqlEnforcer struct {
	db *sql.DB
}

// NewEnforcer checks billing through the check_billing_enforcement database function.
func NewEnforcer(db *sql.DB) Enforcer {
	return &sqlEnforcer{db: db}
}

func (e *sqlEnforcer) Check(ctx context.Context, tenantID uuid.UUID) (Decision, error) {
	var d Decision
	err := e.db.QueryRowContext(ctx,
		`SELECT allowed, COALESCE(message, '') FROM check_billing_enforcement($1)`,
		tenantID,
	).Scan(&d.Allowed, &d.Message)
	if errors.Is(err, sql.ErrNoRows) {
		// tenants without a billing row are in their trial
		return Decision{Allowed: true}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("check billing enforcement: %w", err)
	}

	if !d.Allowed && d.Message == "" {
		d.Message = defaultBlockedMessage
	}
	return d, nil
}

type decisionCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cachedEnforcer struct {
	next  Enforcer
	cache decisionCache
	ttl   time.Duration
}

// NewCachedEnforcer memoises decisions for ttl. Cache failures fall through
// to next.
func NewCachedEnforcer(next Enforcer, cache decisionCache, ttl time.Duration) Enforcer {
	return &cachedEnforcer{next: next, cache: cache, ttl: ttl}
}

func cacheKey(tenantID uuid.UUID) string {
	return "billing:" + tenantID.String()
}

func (c *cachedEnforcer) Check(ctx context.Context, tenantID uuid.UUID) (Decision, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "billing"),
		zap.String("method", "Check"),
		zap.String("tenant_id", tenantID.String()),
	)

	var cached Decision
	err := c.cache.GetJSON(ctx, cacheKey(tenantID), &cached)
	if err == nil {
		return cached, nil
	}
	log.Debug("billing cache miss", zap.Error(err))

	d, err := c.next.Check(ctx, tenantID)
	if err != nil {
		return Decision{}, err
	}

	if err := c.cache.SetJSON(ctx, cacheKey(tenantID), d, c.ttl); err != nil {
		log.Warn("failed to cache billing decision", zap.Error(err))
	}
	return d, nil
}
