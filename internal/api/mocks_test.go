package api

import (
	"context"
	"net/http"

	"storefront-be/internal/cashregister"
	"storefront-be/internal/coupon"
	"storefront-be/internal/finance"
	"storefront-be/internal/order"
	"storefront-be/internal/storefront"
	"storefront-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---------- ORDER SERVICE ----------

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) SubmitOrder(ctx context.Context, in order.SubmitInput) order.SubmitResult {
	return m.Called(ctx, in).Get(0).(order.SubmitResult)
}

func (m *MockOrderService) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, storeID, orderID)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, storeID uuid.UUID, filter order.ListFilter) (*order.OrderPage, error) {
	args := m.Called(ctx, storeID, filter)
	p, _ := args.Get(0).(*order.OrderPage)
	return p, args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, to order.OrderStatus) (*order.Order, error) {
	args := m.Called(ctx, storeID, orderID, to)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) UpdatePaymentStatus(ctx context.Context, storeID, orderID uuid.UUID, status order.PaymentStatus) (*order.Order, error) {
	args := m.Called(ctx, storeID, orderID, status)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

// ---------- CASH REGISTER SERVICE ----------

type MockRegisterService struct {
	mock.Mock
}

func (m *MockRegisterService) OpenRegister(ctx context.Context, storeID uuid.UUID, opening decimal.Decimal) (*cashregister.Register, error) {
	args := m.Called(ctx, storeID, opening)
	r, _ := args.Get(0).(*cashregister.Register)
	return r, args.Error(1)
}

func (m *MockRegisterService) CloseRegister(ctx context.Context, in cashregister.CloseInput) (*cashregister.Register, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*cashregister.Register)
	return r, args.Error(1)
}

func (m *MockRegisterService) RecordMovement(ctx context.Context, in cashregister.MovementInput) (*cashregister.Movement, error) {
	args := m.Called(ctx, in)
	mv, _ := args.Get(0).(*cashregister.Movement)
	return mv, args.Error(1)
}

func (m *MockRegisterService) CurrentRegister(ctx context.Context, storeID uuid.UUID) (*cashregister.Register, *cashregister.Summary, error) {
	args := m.Called(ctx, storeID)
	r, _ := args.Get(0).(*cashregister.Register)
	s, _ := args.Get(1).(*cashregister.Summary)
	return r, s, args.Error(2)
}

func (m *MockRegisterService) RegisterSummary(ctx context.Context, storeID, registerID uuid.UUID) (*cashregister.Summary, error) {
	args := m.Called(ctx, storeID, registerID)
	s, _ := args.Get(0).(*cashregister.Summary)
	return s, args.Error(1)
}

func (m *MockRegisterService) ListRegisters(ctx context.Context, storeID uuid.UUID, limit int) ([]*cashregister.Register, error) {
	args := m.Called(ctx, storeID, limit)
	r, _ := args.Get(0).([]*cashregister.Register)
	return r, args.Error(1)
}

func (m *MockRegisterService) ListMovements(ctx context.Context, storeID, registerID uuid.UUID) ([]cashregister.Movement, error) {
	args := m.Called(ctx, storeID, registerID)
	mv, _ := args.Get(0).([]cashregister.Movement)
	return mv, args.Error(1)
}

// ---------- OTHERS ----------

type MockFinanceService struct {
	mock.Mock
}

func (m *MockFinanceService) Summary(ctx context.Context, storeID uuid.UUID, period finance.Period) (*finance.Summary, error) {
	args := m.Called(ctx, storeID, period)
	s, _ := args.Get(0).(*finance.Summary)
	return s, args.Error(1)
}

type MockStores struct {
	mock.Mock
}

func (m *MockStores) GetBySlug(ctx context.Context, slug string) (*storefront.Store, error) {
	args := m.Called(ctx, slug)
	s, _ := args.Get(0).(*storefront.Store)
	return s, args.Error(1)
}

type MockCoupons struct {
	mock.Mock
}

func (m *MockCoupons) GetByCode(ctx context.Context, storeID uuid.UUID, code string) (*coupon.Coupon, error) {
	args := m.Called(ctx, storeID, code)
	c, _ := args.Get(0).(*coupon.Coupon)
	return c, args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error { return p.err }

// ---------- FIXTURE ----------

type testAPI struct {
	orders    *MockOrderService
	registers *MockRegisterService
	finance   *MockFinanceService
	stores    *MockStores
	coupons   *MockCoupons
	handler   *Handler
	router    *gin.Engine
}

func newTestAPI() *testAPI {
	a := &testAPI{
		orders:    new(MockOrderService),
		registers: new(MockRegisterService),
		finance:   new(MockFinanceService),
		stores:    new(MockStores),
		coupons:   new(MockCoupons),
	}
	a.handler = NewHandler(Deps{
		Orders:    a.orders,
		Registers: a.registers,
		Finance:   a.finance,
		Stores:    a.stores,
		Coupons:   a.coupons,
		DB:        stubPinger{},
	})
	a.router = NewRouter(a.handler, nil)
	return a
}

// asStaff mimics the auth middleware for a staff member bound to storeIDs.
func asStaff(req *http.Request, storeIDs ...uuid.UUID) *http.Request {
	ctx := utils.SetStaffContext(req.Context(), uuid.New(), "Ana", "manager", storeIDs)
	return req.WithContext(ctx)
}

var mockAny = mock.Anything
