package storefront

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	GetBySlug(ctx context.Context, slug string) (*Store, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Store, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const selectStore = `
	SELECT id, tenant_id, slug, name, settings, created_at, updated_at
	FROM stores
`

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Store, error) {
	return r.getOne(ctx, "GetBySlug", selectStore+` WHERE slug = $1`, slug)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Store, error) {
	return r.getOne(ctx, "GetByID", selectStore+` WHERE id = $1`, id)
}

func (r *repository) getOne(ctx context.Context, method, query string, arg interface{}) (*Store, error) {
	var (
		s   Store
		raw []byte
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID, &s.TenantID, &s.Slug, &s.Name, &raw, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}

	s.Settings, err = ParseSettings(raw)
	if err != nil {
		logger.FromCtx(ctx).Error("store settings unreadable",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.String("store_id", s.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return &s, nil
}
