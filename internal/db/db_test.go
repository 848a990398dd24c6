package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"storefront-be/internal/config"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "localhost",
		DBUser:     "test_user",
		DBPassword: "test_password",
		DBName:     "test_db",
		DBPort:     "5432",
	}

	expected := "host=localhost user=test_user password=test_password dbname=test_db port=5432 sslmode=disable"
	assert.Equal(t, expected, buildDSN(cfg))

	cfg.DBSSLMode = "require"
	assert.Contains(t, buildDSN(cfg), "sslmode=require")
}

func TestNewDatabase_InvalidDriver(t *testing.T) {
	cfg := &config.Config{}
	db, err := newDatabaseWithDriver(cfg, "invalid_driver_name")

	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to connect to DB")
}

func TestNewDatabase_PingFailure(t *testing.T) {
	cfg := &config.Config{DBHost: "localhost"}
	db, err := newDatabaseWithDriver(cfg, "mock_driver_ping_failure")

	assert.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "failed to ping DB")
}

func TestNewDatabase_Success(t *testing.T) {
	cfg := &config.Config{DBHost: "localhost"}
	db, err := newDatabaseWithDriver(cfg, "mock_driver_success")
	assert.NoError(t, err)
	assert.NotNil(t, db)
}

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pq.Error{Code: PgUniqueViolation, Constraint: "orders_store_idempotency_key"}

	assert.True(t, IsUniqueViolation(uniqueErr))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert order: %w", uniqueErr)))
	assert.True(t, IsUniqueViolation(uniqueErr, "other", "orders_store_idempotency_key"))
	assert.False(t, IsUniqueViolation(uniqueErr, "cash_registers_one_open_per_store"))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: PgForeignKeyViolation}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsCheckViolation(t *testing.T) {
	assert.True(t, IsCheckViolation(&pq.Error{Code: PgCheckViolation}))
	assert.False(t, IsCheckViolation(&pq.Error{Code: PgUniqueViolation}))
}

// --- Mock drivers ---

type mockDriver struct{}

func (m *mockDriver) Open(name string) (driver.Conn, error) {
	return &mockConn{}, nil
}

type mockConn struct{}

func (c *mockConn) Prepare(query string) (driver.Stmt, error) { return &mockStmt{}, nil }
func (c *mockConn) Close() error                              { return nil }
func (c *mockConn) Begin() (driver.Tx, error)                 { return nil, nil }

type mockStmt struct{}

func (s *mockStmt) Close() error                                    { return nil }
func (s *mockStmt) NumInput() int                                   { return 0 }
func (s *mockStmt) Exec(args []driver.Value) (driver.Result, error) { return nil, nil }
func (s *mockStmt) Query(args []driver.Value) (driver.Rows, error)  { return nil, nil }

type failingDriver struct{}

func (failingDriver) Open(name string) (driver.Conn, error) {
	return nil, errors.New("connection refused")
}

func init() {
	sql.Register("mock_driver_success", &mockDriver{})
	sql.Register("mock_driver_ping_failure", failingDriver{})
}
