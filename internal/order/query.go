package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-be/internal/address"
	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const orderColumns = `
	o.id, o.store_id, o.customer_id, COALESCE(c.name, ''), c.phone, o.code,
	o.channel, o.payment_method, o.status, o.payment_status,
	o.subtotal, o.discount, o.delivery_fee, o.total, o.notes,
	o.coupon_id, o.coupon_code, o.idempotency_key, o.delivery_address,
	o.scheduled_for, o.created_at, o.updated_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner, extra ...interface{}) (*Order, error) {
	var (
		o          Order
		customerID uuid.NullUUID
		couponID   uuid.NullUUID
		phone      sql.NullString
		notes      sql.NullString
		couponCode sql.NullString
		addr       []byte
		scheduled  sql.NullTime
	)

	dest := []interface{}{
		&o.ID, &o.StoreID, &customerID, &o.CustomerName, &phone, &o.Code,
		&o.Channel, &o.PaymentMethod, &o.Status, &o.PaymentStatus,
		&o.Subtotal, &o.Discount, &o.DeliveryFee, &o.Total, &notes,
		&couponID, &couponCode, &o.IdempotencyKey, &addr,
		&scheduled, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if customerID.Valid {
		o.CustomerID = &customerID.UUID
	}
	if couponID.Valid {
		o.CouponID = &couponID.UUID
	}
	if phone.Valid {
		o.CustomerPhone = &phone.String
	}
	if notes.Valid {
		o.Notes = &notes.String
	}
	if couponCode.Valid {
		o.CouponCode = &couponCode.String
	}
	if scheduled.Valid {
		o.ScheduledFor = &scheduled.Time
	}
	if len(addr) > 0 {
		var a address.Address
		if err := json.Unmarshal(addr, &a); err == nil {
			o.DeliveryAddress = &a
		}
	}
	return &o, nil
}

func (r *repository) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.store_id = $1 AND o.id = $2
	`, storeID, orderID)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if o.Items, err = r.fetchItems(ctx, orderID); err != nil {
		return nil, err
	}
	if o.Events, err = r.fetchEvents(ctx, orderID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) fetchItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, unit_price, quantity, unit_type, notes, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			it    OrderItem
			notes sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.UnitPrice,
			&it.Quantity, &it.UnitType, &notes, &it.TotalPrice); err != nil {
			return nil, err
		}
		it.OrderID = orderID
		if notes.Valid {
			it.Notes = &notes.String
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return items, nil
	}

	modRows, err := r.db.QueryContext(ctx, `
		SELECT m.order_item_id, m.option_id, m.name, m.price
		FROM order_item_modifiers m
		JOIN order_items i ON i.id = m.order_item_id
		WHERE i.order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order item modifiers: %w", err)
	}
	defer modRows.Close()

	for modRows.Next() {
		var (
			itemID uuid.UUID
			m      OrderItemModifier
		)
		if err := modRows.Scan(&itemID, &m.OptionID, &m.Name, &m.Price); err != nil {
			return nil, err
		}
		if i, ok := index[itemID]; ok {
			items[i].Modifiers = append(items[i].Modifiers, m)
		}
	}
	return items, modRows.Err()
}

func (r *repository) fetchEvents(ctx context.Context, orderID uuid.UUID) ([]OrderEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, actor, created_at
		FROM order_events
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order events: %w", err)
	}
	defer rows.Close()

	var events []OrderEvent
	for rows.Next() {
		e := OrderEvent{OrderID: orderID}
		if err := rows.Scan(&e.ID, &e.Type, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *repository) ListOrders(ctx context.Context, storeID uuid.UUID, filter ListFilter) (*OrderPage, error) {
	// ---------- PAGINATION ----------
	limit := int32(20)
	page := int32(1)
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	if filter.Page > 0 {
		page = filter.Page
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListOrders"),
		zap.Int32("limit", limit),
		zap.Int32("page", page),
	)

	// ---------- BASE QUERY ----------
	query := `
		SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.store_id = $1
	`
	args := []interface{}{storeID}
	argIndex := 2

	// ---------- FILTERING ----------
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query += fmt.Sprintf(" AND o.status = ANY($%d)", argIndex)
		args = append(args, pq.Array(statuses))
		argIndex++
	}
	if filter.PaymentStatus != nil {
		query += fmt.Sprintf(" AND o.payment_status = $%d", argIndex)
		args = append(args, *filter.PaymentStatus)
		argIndex++
	}
	if filter.Channel != nil {
		query += fmt.Sprintf(" AND o.channel = $%d", argIndex)
		args = append(args, *filter.Channel)
		argIndex++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND o.created_at >= $%d", argIndex)
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND o.created_at < $%d", argIndex)
		args = append(args, *filter.To)
		argIndex++
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (o.code ILIKE $%d OR c.name ILIKE $%d OR c.phone ILIKE $%d)", argIndex, argIndex, argIndex)
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	// ---------- SORT + PAGE ----------
	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := &OrderPage{Orders: []*Order{}, Limit: limit, Page: page}
	for rows.Next() {
		var total int64
		o, err := scanOrder(rows, &total)
		if err != nil {
			return nil, err
		}
		out.Total = total
		out.Orders = append(out.Orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("orders listed", zap.Int("count", len(out.Orders)), zap.Int64("total", out.Total))
	return out, nil
}
