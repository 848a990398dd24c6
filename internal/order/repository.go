package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/cashregister"
	"storefront-be/internal/coupon"
	"storefront-be/internal/logger"
	"storefront-be/internal/storefront"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	// CreateOrder runs the whole placement in one transaction and is
	// idempotent on (store, idempotency key).
	CreateOrder(ctx context.Context, p CreateParams) (*Placement, error)
	GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, filter ListFilter) (*OrderPage, error)
	TransitionStatus(ctx context.Context, storeID, orderID uuid.UUID, from, to OrderStatus, actor string) error
	UpdatePaymentStatus(ctx context.Context, storeID, orderID uuid.UUID, status PaymentStatus, actor string) (bool, error)
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

type productSnapshot struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Available bool
}

type optionSnapshot struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	ProductID uuid.UUID
}

func (r *repository) CreateOrder(ctx context.Context, p CreateParams) (*Placement, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrder"),
		zap.String("store_id", p.StoreID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create order: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// 1. Serialise submissions sharing a key, then replay
	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2))`, p.StoreID, p.IdempotencyKey,
	); err != nil {
		return nil, fmt.Errorf("lock idempotency key: %w", err)
	}
	existing, err := findPlacement(ctx, tx, p.StoreID, p.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info("idempotent replay", zap.String("order_id", existing.OrderID.String()))
		return existing, nil
	}

	// 2. Store must be accepting orders
	var rawSettings []byte
	err = tx.QueryRowContext(ctx,
		`SELECT settings FROM stores WHERE id = $1 FOR SHARE`, p.StoreID,
	).Scan(&rawSettings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storefront.ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock store: %w", err)
	}
	settings, err := storefront.ParseSettings(rawSettings)
	if err != nil {
		log.Error("store settings unreadable, refusing order", zap.Error(err))
		return nil, persistenceError(CodeStoreClosed, "Loja não está aceitando pedidos", nil)
	}
	if !settings.AcceptingOrders {
		return nil, persistenceError(CodeStoreClosed, "Loja não está aceitando pedidos", nil)
	}

	// 3. Customer
	customerID, err := upsertCustomer(ctx, tx, p.StoreID, p.Customer)
	if err != nil {
		return nil, err
	}

	// 4. Catalog snapshot
	products, err := loadProducts(ctx, tx, p.StoreID, p.Items)
	if err != nil {
		return nil, err
	}
	options, err := loadOptions(ctx, tx, p.StoreID, p.Items)
	if err != nil {
		return nil, err
	}

	items := make([]OrderItem, 0, len(p.Items))
	lines := make([]decimal.Decimal, 0, len(p.Items))
	for _, ci := range p.Items {
		prod, ok := products[ci.ProductID]
		if !ok || !prod.Available {
			return nil, persistenceError(CodeProductUnavailable, "Produto indisponível", map[string]interface{}{
				"productId": ci.ProductID.String(),
			})
		}

		mods := make([]OrderItemModifier, 0, len(ci.ModifierOptionIDs))
		for _, optID := range ci.ModifierOptionIDs {
			opt, ok := options[optID]
			if !ok || opt.ProductID != ci.ProductID {
				return nil, persistenceError(CodeModifierInvalid, "Adicional inválido", map[string]interface{}{
					"productId": ci.ProductID.String(),
					"optionId":  optID.String(),
				})
			}
			mods = append(mods, OrderItemModifier{OptionID: opt.ID, Name: opt.Name, Price: opt.Price})
		}

		unit := ci.UnitType
		if unit == "" {
			unit = UnitEach
		}
		line := LineTotal(prod.Price, mods, ci.Quantity)
		items = append(items, OrderItem{
			ID:          uuid.New(),
			ProductID:   prod.ID,
			ProductName: prod.Name,
			UnitPrice:   prod.Price,
			Quantity:    ci.Quantity,
			UnitType:    unit,
			Notes:       utils.NilIfBlank(ci.Notes),
			TotalPrice:  line,
			Modifiers:   mods,
		})
		lines = append(lines, line)
	}

	// 5. Fee and coupon
	subtotal := Sum(lines)
	fee := decimal.Zero
	if p.Channel == ChannelDelivery {
		fee = settings.DeliveryFeeFor(subtotal)
	}

	discount := decimal.Zero
	var couponID *uuid.UUID
	var couponCode *string
	if code := coupon.NormalizeCode(p.CouponCode); code != "" {
		c, err := coupon.LockByCode(ctx, tx, p.StoreID, code)
		if err != nil {
			if errors.Is(err, coupon.ErrCouponNotFound) {
				return nil, persistenceError(CodeCouponInvalid, "Cupom inválido", map[string]interface{}{"coupon": code})
			}
			return nil, err
		}
		if err := c.Validate(p.Now, subtotal); err != nil {
			return nil, couponError(code, c, err)
		}
		discount = c.Discount(subtotal, fee)
		couponID = &c.ID
		couponCode = &c.Code
	}

	totals := ComputeTotals(lines, fee, discount)

	// 6. Order row; the unique key closes the race with a concurrent duplicate
	var deliveryAddress []byte
	if p.Channel == ChannelDelivery && p.Address != nil {
		deliveryAddress, err = json.Marshal(address.Normalize(*p.Address))
		if err != nil {
			return nil, fmt.Errorf("encode address: %w", err)
		}
	}

	orderID := uuid.New()
	orderCode := utils.GenerateOrderCode()

	var insertedID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			id, store_id, customer_id, code, channel, payment_method,
			status, payment_status, subtotal, discount, delivery_fee, total,
			notes, coupon_id, coupon_code, idempotency_key, delivery_address,
			scheduled_for, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19)
		ON CONFLICT (store_id, idempotency_key) DO NOTHING
		RETURNING id
	`,
		orderID, p.StoreID, customerID, orderCode, p.Channel, p.PaymentMethod,
		StatusPending, PaymentStatusPending, totals.Subtotal, totals.Discount, totals.DeliveryFee, totals.Total,
		utils.NilIfBlank(p.Notes), couponID, couponCode, p.IdempotencyKey, deliveryAddress,
		p.ScheduledFor, p.Now,
	).Scan(&insertedID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		committed = true

		existing, err := findPlacement(ctx, r.db, p.StoreID, p.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("idempotency conflict without order for key %q", p.IdempotencyKey)
		}
		log.Info("idempotent replay after conflict", zap.String("order_id", existing.OrderID.String()))
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	// 7. Items and modifiers
	for i, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, position, product_id, product_name,
				unit_price, quantity, unit_type, notes, total_price
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		`,
			item.ID, orderID, i, item.ProductID, item.ProductName,
			item.UnitPrice, item.Quantity, item.UnitType, item.Notes, item.TotalPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}

		for _, m := range item.Modifiers {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_item_modifiers (order_item_id, option_id, name, price)
				VALUES ($1,$2,$3,$4)
			`, item.ID, m.OptionID, m.Name, m.Price)
			if err != nil {
				return nil, fmt.Errorf("insert order item modifier: %w", err)
			}
		}
	}

	// 8. Coupon usage
	if couponID != nil {
		if err := coupon.IncrementUsage(ctx, tx, *couponID); err != nil {
			return nil, err
		}
	}

	// 9. Audit trail
	if err := insertEvent(ctx, tx, orderID, EventCreated, "customer"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	committed = true

	log.Info("order created",
		zap.String("order_id", orderID.String()),
		zap.String("code", orderCode),
		zap.String("total", totals.Total.StringFixed(2)),
	)

	return &Placement{OrderID: orderID, Code: orderCode, Total: totals.Total}, nil
}

func findPlacement(ctx context.Context, q rowQueryer, storeID uuid.UUID, key string) (*Placement, error) {
	var pl Placement
	err := q.QueryRowContext(ctx, `
		SELECT id, code, total
		FROM orders
		WHERE store_id = $1 AND idempotency_key = $2
	`, storeID, key).Scan(&pl.OrderID, &pl.Code, &pl.Total)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	pl.Replayed = true
	return &pl, nil
}

func upsertCustomer(ctx context.Context, tx *sql.Tx, storeID uuid.UUID, c CustomerForm) (*uuid.UUID, error) {
	phone := utils.OnlyDigits(c.Phone)
	name := strings.TrimSpace(c.Name)
	if phone == "" && name == "" {
		return nil, nil
	}

	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `
		INSERT INTO customers (store_id, name, phone, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (store_id, phone) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), customers.name),
			email = COALESCE(EXCLUDED.email, customers.email),
			updated_at = NOW()
		RETURNING id
	`, storeID, name, utils.NilIfBlank(phone), utils.NilIfBlank(c.Email)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	return &id, nil
}

func loadProducts(ctx context.Context, tx *sql.Tx, storeID uuid.UUID, items []CartItem) (map[uuid.UUID]productSnapshot, error) {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID.String())
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, price, available
		FROM products
		WHERE store_id = $1 AND id = ANY($2)
	`, storeID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]productSnapshot, len(ids))
	for rows.Next() {
		var p productSnapshot
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Available); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func loadOptions(ctx context.Context, tx *sql.Tx, storeID uuid.UUID, items []CartItem) (map[uuid.UUID]optionSnapshot, error) {
	var ids []string
	for _, it := range items {
		for _, id := range it.ModifierOptionIDs {
			ids = append(ids, id.String())
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]optionSnapshot{}, nil
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT mo.id, mo.name, mo.price, mg.product_id
		FROM modifier_options mo
		JOIN modifier_groups mg ON mg.id = mo.group_id
		WHERE mg.store_id = $1 AND mo.id = ANY($2) AND mo.available
	`, storeID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load modifier options: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]optionSnapshot, len(ids))
	for rows.Next() {
		var o optionSnapshot
		if err := rows.Scan(&o.ID, &o.Name, &o.Price, &o.ProductID); err != nil {
			return nil, err
		}
		out[o.ID] = o
	}
	return out, rows.Err()
}

func couponError(code string, c *coupon.Coupon, err error) *Error {
	details := map[string]interface{}{"coupon": code}
	switch {
	case errors.Is(err, coupon.ErrCouponExpired):
		return persistenceError(CodeCouponExpired, "Cupom expirado", details)
	case errors.Is(err, coupon.ErrCouponExhausted):
		return persistenceError(CodeCouponExhausted, "Cupom esgotado", details)
	case errors.Is(err, coupon.ErrCouponMinOrder):
		details["minOrder"] = c.MinOrder.StringFixed(2)
		return persistenceError(CodeCouponMinOrder, "Pedido abaixo do mínimo do cupom", details)
	default:
		return persistenceError(CodeCouponInvalid, "Cupom inválido", details)
	}
}

func insertEvent(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, eventType, actor string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_events (order_id, type, actor)
		VALUES ($1, $2, $3)
	`, orderID, eventType, actor)
	if err != nil {
		return fmt.Errorf("insert order event: %w", err)
	}
	return nil
}

func (r *repository) TransitionStatus(ctx context.Context, storeID, orderID uuid.UUID, from, to OrderStatus, actor string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		method PaymentMethod
		total  decimal.Decimal
	)
	err = tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND store_id = $3 AND status = $4
		RETURNING payment_method, total
	`, to, orderID, storeID, from).Scan(&method, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStatusConflict
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if err := insertEvent(ctx, tx, orderID, string(to), actor); err != nil {
		return err
	}

	// delivered cash orders book their sale in the same tx
	if to == StatusDelivered && method == PaymentCash && total.IsPositive() {
		booked, err := cashregister.BookSale(ctx, tx, storeID, orderID, total, string(method), actor, time.Now())
		if err != nil {
			return err
		}
		if !booked {
			logger.FromCtx(ctx).Info("sale already in ledger",
				zap.String("layer", "repository"),
				zap.String("method", "TransitionStatus"),
				zap.String("order_id", orderID.String()),
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	committed = true
	return nil
}

// UpdatePaymentStatus reports false when the order already had status.
func (r *repository) UpdatePaymentStatus(ctx context.Context, storeID, orderID uuid.UUID, status PaymentStatus, actor string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin payment update: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, updated_at = NOW()
		WHERE id = $2 AND store_id = $3 AND payment_status <> $1
	`, status, orderID, storeID)
	if err != nil {
		return false, fmt.Errorf("update payment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if n == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1 AND store_id = $2)`,
			orderID, storeID,
		).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("check order: %w", err)
		}
		if !exists {
			return false, ErrOrderNotFound
		}
		return false, nil
	}

	if err := insertEvent(ctx, tx, orderID, "PAYMENT_"+string(status), actor); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit payment update: %w", err)
	}
	committed = true
	return true, nil
}
