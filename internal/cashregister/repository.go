package cashregister

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	constraintOneOpenPerStore = "cash_registers_one_open_per_store"
	constraintSalePerOrder    = "cash_movements_order_id_uniq"
)

type Repository interface {
	// Open fails with ErrRegisterAlreadyOpen when the partial unique index
	// on open registers fires.
	Open(ctx context.Context, storeID uuid.UUID, opening decimal.Decimal, actor string, at time.Time) (*Register, error)
	GetOpen(ctx context.Context, storeID uuid.UUID) (*Register, error)
	GetByID(ctx context.Context, storeID, registerID uuid.UUID) (*Register, error)
	List(ctx context.Context, storeID uuid.UUID, limit int) ([]*Register, error)
	// InsertMovement attaches m to the store's open register, if any, and
	// fills in ID, RegisterID and CreatedAt.
	InsertMovement(ctx context.Context, m *Movement) error
	ListMovements(ctx context.Context, storeID, registerID uuid.UUID) ([]Movement, error)
	Close(ctx context.Context, p closeParams) (*Register, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const registerColumns = `
	id, store_id, status, opening_amount, closing_amount, expected_amount,
	difference, opened_by, opened_at, closed_by, closed_at
`

const movementColumns = `
	id, store_id, register_id, order_id, type, amount,
	description, payment_method, actor, created_at
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRegister(row rowScanner) (*Register, error) {
	var (
		r        Register
		closing  decimal.NullDecimal
		expected decimal.NullDecimal
		diff     decimal.NullDecimal
		closedBy sql.NullString
		closedAt sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.StoreID, &r.Status, &r.OpeningAmount, &closing, &expected,
		&diff, &r.OpenedBy, &r.OpenedAt, &closedBy, &closedAt,
	)
	if err != nil {
		return nil, err
	}

	if closing.Valid {
		r.ClosingAmount = &closing.Decimal
	}
	if expected.Valid {
		r.ExpectedAmount = &expected.Decimal
	}
	if diff.Valid {
		r.Difference = &diff.Decimal
	}
	if closedBy.Valid {
		r.ClosedBy = &closedBy.String
	}
	if closedAt.Valid {
		r.ClosedAt = &closedAt.Time
	}
	return &r, nil
}

func scanMovement(row rowScanner) (Movement, error) {
	var (
		m          Movement
		registerID uuid.NullUUID
		orderID    uuid.NullUUID
		desc       sql.NullString
		method     sql.NullString
	)
	err := row.Scan(
		&m.ID, &m.StoreID, &registerID, &orderID, &m.Type, &m.Amount,
		&desc, &method, &m.Actor, &m.CreatedAt,
	)
	if err != nil {
		return m, err
	}

	if registerID.Valid {
		m.RegisterID = &registerID.UUID
	}
	if orderID.Valid {
		m.OrderID = &orderID.UUID
	}
	if desc.Valid {
		m.Description = &desc.String
	}
	if method.Valid {
		m.PaymentMethod = &method.String
	}
	return m, nil
}

func (r *repository) Open(ctx context.Context, storeID uuid.UUID, opening decimal.Decimal, actor string, at time.Time) (*Register, error) {
	reg := &Register{
		StoreID:       storeID,
		Status:        StatusOpen,
		OpeningAmount: opening,
		OpenedBy:      actor,
		OpenedAt:      at,
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cash_registers (store_id, status, opening_amount, opened_by, opened_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, storeID, StatusOpen, opening, actor, at).Scan(&reg.ID)
	if err != nil {
		if db.IsUniqueViolation(err, constraintOneOpenPerStore) {
			return nil, ErrRegisterAlreadyOpen
		}
		return nil, fmt.Errorf("insert cash register: %w", err)
	}
	return reg, nil
}

func (r *repository) GetOpen(ctx context.Context, storeID uuid.UUID) (*Register, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+registerColumns+`
		FROM cash_registers
		WHERE store_id = $1 AND status = 'open'
	`, storeID)

	reg, err := scanRegister(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOpenRegister
	}
	if err != nil {
		return nil, fmt.Errorf("load open register: %w", err)
	}
	return reg, nil
}

func (r *repository) GetByID(ctx context.Context, storeID, registerID uuid.UUID) (*Register, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+registerColumns+`
		FROM cash_registers
		WHERE store_id = $1 AND id = $2
	`, storeID, registerID)

	reg, err := scanRegister(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegisterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load register: %w", err)
	}
	return reg, nil
}

func (r *repository) List(ctx context.Context, storeID uuid.UUID, limit int) ([]*Register, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+registerColumns+`
		FROM cash_registers
		WHERE store_id = $1
		ORDER BY opened_at DESC
		LIMIT $2
	`, storeID, limit)
	if err != nil {
		return nil, fmt.Errorf("list registers: %w", err)
	}
	defer rows.Close()

	out := []*Register{}
	for rows.Next() {
		reg, err := scanRegister(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (r *repository) InsertMovement(ctx context.Context, m *Movement) error {
	var registerID uuid.NullUUID
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cash_movements (
			store_id, register_id, order_id, type, amount,
			description, payment_method, actor, created_at
		) VALUES (
			$1,
			(SELECT id FROM cash_registers WHERE store_id = $1 AND status = 'open' FOR SHARE),
			$2, $3, $4, $5, $6, $7, $8
		)
		RETURNING id, register_id
	`,
		m.StoreID, m.OrderID, m.Type, m.Amount,
		m.Description, m.PaymentMethod, m.Actor, m.CreatedAt,
	).Scan(&m.ID, &registerID)
	if err != nil {
		if db.IsUniqueViolation(err, constraintSalePerOrder) {
			return ErrSaleAlreadyRecorded
		}
		return fmt.Errorf("insert cash movement: %w", err)
	}

	m.RegisterID = nil
	if registerID.Valid {
		m.RegisterID = &registerID.UUID
	}
	return nil
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// BookSale records the sale of a delivered order inside the caller's
// transaction, attached to the store's open register if there is one. It
// reports false when the order already has a sale in the ledger.
func BookSale(ctx context.Context, tx Execer, storeID, orderID uuid.UUID, amount decimal.Decimal, paymentMethod, actor string, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO cash_movements (
			store_id, register_id, order_id, type, amount,
			description, payment_method, actor, created_at
		) VALUES (
			$1,
			(SELECT id FROM cash_registers WHERE store_id = $1 AND status = 'open' FOR SHARE),
			$2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (order_id) WHERE order_id IS NOT NULL DO NOTHING
	`,
		storeID, orderID, MovementSale, amount.Round(2),
		"Pedido entregue", utils.NilIfBlank(paymentMethod), actor, at,
	)
	if err != nil {
		return false, fmt.Errorf("book sale: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) ListMovements(ctx context.Context, storeID, registerID uuid.UUID) ([]Movement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+movementColumns+`
		FROM cash_movements
		WHERE store_id = $1 AND register_id = $2
		ORDER BY created_at
	`, storeID, registerID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	out := []Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close locks the open register, sums its own movements and stores the
// counted amount, the expected amount and their difference in one tx.
func (r *repository) Close(ctx context.Context, p closeParams) (*Register, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CloseRegister"),
		zap.String("store_id", p.StoreID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin close register: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	reg, err := scanRegister(tx.QueryRowContext(ctx, `
		SELECT `+registerColumns+`
		FROM cash_registers
		WHERE store_id = $1 AND status = 'open'
		FOR UPDATE
	`, p.StoreID))
	if errors.Is(err, sql.ErrNoRows) {
		if p.RegisterID == nil {
			return nil, ErrNoOpenRegister
		}
		return nil, r.missingRegister(ctx, tx, p.StoreID, *p.RegisterID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock open register: %w", err)
	}
	if p.RegisterID != nil && reg.ID != *p.RegisterID {
		// the register the caller saw was closed and another one opened
		return nil, ErrRegisterClosed
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT type, amount
		FROM cash_movements
		WHERE register_id = $1
	`, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("load register movements: %w", err)
	}
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.Type, &m.Amount); err != nil {
			rows.Close()
			return nil, err
		}
		movements = append(movements, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summary := Summarize(reg.OpeningAmount, movements)
	difference := Reconcile(p.Counted, summary.Expected)

	_, err = tx.ExecContext(ctx, `
		UPDATE cash_registers
		SET status = $1, closing_amount = $2, expected_amount = $3, difference = $4,
			closed_by = $5, closed_at = $6
		WHERE id = $7 AND status = 'open'
	`, StatusClosed, p.Counted, summary.Expected, difference, utils.NilIfBlank(p.Actor), p.Now, reg.ID)
	if err != nil {
		return nil, fmt.Errorf("close register: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit close register: %w", err)
	}
	committed = true

	reg.Status = StatusClosed
	reg.ClosingAmount = &p.Counted
	reg.ExpectedAmount = &summary.Expected
	reg.Difference = &difference
	reg.ClosedBy = utils.NilIfBlank(p.Actor)
	reg.ClosedAt = &p.Now

	log.Info("register closed",
		zap.String("register_id", reg.ID.String()),
		zap.Int("movements", summary.Movements),
		zap.String("expected", summary.Expected.StringFixed(2)),
		zap.String("difference", difference.StringFixed(2)),
	)
	return reg, nil
}

func (r *repository) missingRegister(ctx context.Context, tx *sql.Tx, storeID, registerID uuid.UUID) error {
	var status Status
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM cash_registers WHERE id = $1 AND store_id = $2`,
		registerID, storeID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRegisterNotFound
	}
	if err != nil {
		return fmt.Errorf("load register: %w", err)
	}
	return ErrRegisterClosed
}
