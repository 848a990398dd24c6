package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-be/internal/coupon"
	"storefront-be/internal/order"
	"storefront-be/internal/realtime"
	"storefront-be/internal/storefront"
	"storefront-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const orderBody = `{
	"checkoutMode": "guest",
	"customer": {"name": "Maria", "phone": "(11) 99999-8888"},
	"channel": "TAKEAWAY",
	"paymentMethod": "PIX",
	"items": [{"productId": "6f1c2a8e-0d4b-4c36-9d7e-1f2a3b4c5d6e", "quantity": "1", "unitType": "UNIT"}],
	"idempotencyKey": "body-key"
}`

func TestSubmitOrder(t *testing.T) {
	orderID := uuid.New()

	t.Run("Success uses header key", func(t *testing.T) {
		a := newTestAPI()
		a.orders.On("SubmitOrder", mockAny, mock.MatchedBy(func(in order.SubmitInput) bool {
			return in.StoreSlug == "pizzaria" &&
				in.IdempotencyKey == "header-key" &&
				in.Customer.Name == "Maria" &&
				in.Channel == order.ChannelTakeaway &&
				len(in.Items) == 1 && in.Items[0].Quantity.Equal(decimal.NewFromInt(1))
		})).Return(order.SubmitResult{Success: true, OrderID: &orderID, OrderCode: "K7M2QX"})

		req := httptest.NewRequest(http.MethodPost, "/stores/pizzaria/orders", strings.NewReader(orderBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(IdempotencyKeyHeader, "header-key")
		w := httptest.NewRecorder()

		a.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var res order.SubmitResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Success)
		assert.Equal(t, "K7M2QX", res.OrderCode)
		a.orders.AssertExpectations(t)
	})

	failures := []struct {
		name     string
		result   order.SubmitResult
		wantCode int
	}{
		{"Validation", order.SubmitResult{Error: "Nome é obrigatório", ErrorCode: "VALIDATION_ERROR", Kind: order.KindValidation}, http.StatusBadRequest},
		{"Billing", order.SubmitResult{Error: "Assinatura suspensa", ErrorCode: "BILLING_BLOCKED", Kind: order.KindBilling}, http.StatusPaymentRequired},
		{"Store not found", order.SubmitResult{Error: "Loja não encontrada", ErrorCode: "STORE_NOT_FOUND", Kind: order.KindStoreNotFound}, http.StatusNotFound},
		{"Persistence", order.SubmitResult{Error: "Cupom expirado", ErrorCode: order.CodeCouponExpired, Kind: order.KindPersistence}, http.StatusUnprocessableEntity},
		{"Unknown", order.SubmitResult{Error: "Erro", ErrorCode: "UNKNOWN_ERROR", Kind: order.KindUnknown}, http.StatusInternalServerError},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAPI()
			a.orders.On("SubmitOrder", mockAny, mockAny).Return(tt.result)

			req := httptest.NewRequest(http.MethodPost, "/stores/pizzaria/orders", strings.NewReader(orderBody))
			w := httptest.NewRecorder()
			a.router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			var res order.SubmitResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.False(t, res.Success)
			assert.Equal(t, tt.result.ErrorCode, res.ErrorCode)
		})
	}

	t.Run("Malformed body", func(t *testing.T) {
		a := newTestAPI()
		req := httptest.NewRequest(http.MethodPost, "/stores/pizzaria/orders", strings.NewReader(`{"items": "nope"`))
		w := httptest.NewRecorder()

		a.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
		a.orders.AssertNotCalled(t, "SubmitOrder", mockAny, mockAny)
	})
}

func TestPreviewCoupon(t *testing.T) {
	store := &storefront.Store{ID: uuid.New(), Slug: "pizzaria", Settings: storefront.DefaultSettings()}
	now := time.Date(2026, 10, 16, 19, 0, 0, 0, time.UTC)

	t.Run("Valid percentage", func(t *testing.T) {
		a := newTestAPI()
		a.handler.now = func() time.Time { return now }
		a.stores.On("GetBySlug", mockAny, "pizzaria").Return(store, nil)
		a.coupons.On("GetByCode", mockAny, store.ID, "DEZ").Return(&coupon.Coupon{
			Code: "DEZ", DiscountType: coupon.DiscountPercentage, Value: decimal.NewFromInt(10), Active: true,
		}, nil)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores/pizzaria/coupons/%20dez?subtotal=40.00", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var res couponPreviewResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Valid)
		assert.Equal(t, "DEZ", res.Code)
		assert.True(t, res.Discount.Equal(decimal.NewFromInt(4)), res.Discount.String())
	})

	t.Run("Expired", func(t *testing.T) {
		a := newTestAPI()
		a.handler.now = func() time.Time { return now }
		expired := now.Add(-time.Hour)
		a.stores.On("GetBySlug", mockAny, "pizzaria").Return(store, nil)
		a.coupons.On("GetByCode", mockAny, store.ID, "DEZ").Return(&coupon.Coupon{
			Code: "DEZ", DiscountType: coupon.DiscountPercentage, Value: decimal.NewFromInt(10), Active: true, ExpiresAt: &expired,
		}, nil)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores/pizzaria/coupons/DEZ?subtotal=40", nil))

		var res couponPreviewResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.False(t, res.Valid)
		assert.Equal(t, order.CodeCouponExpired, res.ErrorCode)
	})

	t.Run("Unknown code", func(t *testing.T) {
		a := newTestAPI()
		a.stores.On("GetBySlug", mockAny, "pizzaria").Return(store, nil)
		a.coupons.On("GetByCode", mockAny, store.ID, "NADA").Return(nil, coupon.ErrCouponNotFound)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores/pizzaria/coupons/nada", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), order.CodeCouponInvalid)
	})

	t.Run("Unknown store", func(t *testing.T) {
		a := newTestAPI()
		a.stores.On("GetBySlug", mockAny, "nada").Return(nil, storefront.ErrStoreNotFound)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores/nada/coupons/DEZ", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Free delivery only discounts delivery carts", func(t *testing.T) {
		withFee := &storefront.Store{ID: store.ID, Slug: "pizzaria", Settings: storefront.DefaultSettings()}
		withFee.Settings.Delivery.Fee = decimal.RequireFromString("7.00")
		frete := &coupon.Coupon{Code: "FRETE", DiscountType: coupon.DiscountFreeDelivery, Active: true}

		cases := []struct {
			query string
			want  string
		}{
			{"?subtotal=40&channel=delivery", "7"},
			{"?subtotal=40&channel=TAKEAWAY", "0"},
			{"?subtotal=40", "0"},
		}
		for _, tc := range cases {
			a := newTestAPI()
			a.handler.now = func() time.Time { return now }
			a.stores.On("GetBySlug", mockAny, "pizzaria").Return(withFee, nil)
			a.coupons.On("GetByCode", mockAny, store.ID, "FRETE").Return(frete, nil)

			w := httptest.NewRecorder()
			a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores/pizzaria/coupons/FRETE"+tc.query, nil))

			require.Equal(t, http.StatusOK, w.Code, tc.query)
			var res couponPreviewResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.True(t, res.Valid, tc.query)
			assert.True(t, res.Discount.Equal(decimal.RequireFromString(tc.want)), "%s: %s", tc.query, res.Discount)
		}
	})

	t.Run("Bad channel", func(t *testing.T) {
		a := newTestAPI()
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores/pizzaria/coupons/FRETE?channel=drone", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_CHANNEL")
		a.stores.AssertNotCalled(t, "GetBySlug", mockAny, mockAny)
	})

	t.Run("Unreadable store settings", func(t *testing.T) {
		a := newTestAPI()
		a.stores.On("GetBySlug", mockAny, "pizzaria").Return(nil, storefront.ErrInvalidSettings)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores/pizzaria/coupons/DEZ", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "STORE_UNAVAILABLE")
		a.coupons.AssertNotCalled(t, "GetByCode", mockAny, mockAny, mockAny)
	})

	t.Run("Bad subtotal", func(t *testing.T) {
		a := newTestAPI()
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores/pizzaria/coupons/DEZ?subtotal=-1", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		a.stores.AssertNotCalled(t, "GetBySlug", mockAny, mockAny)
	})
}

func TestListOrders(t *testing.T) {
	storeID := uuid.New()
	created := time.Date(2026, 10, 16, 18, 30, 0, 0, time.UTC)

	t.Run("Filters are parsed", func(t *testing.T) {
		a := newTestAPI()
		paid := order.PaymentStatusPaid
		want := order.ListFilter{
			Statuses:      []order.OrderStatus{order.StatusPending, order.StatusAccepted, order.StatusReady},
			PaymentStatus: &paid,
			Search:        "maria",
			Limit:         10,
			Page:          2,
		}
		page := &order.OrderPage{
			Orders: []*order.Order{{
				ID: uuid.New(), Code: "K7M2QX", Channel: order.ChannelDelivery,
				Status: order.StatusReady, PaymentStatus: order.PaymentStatusPaid,
				Total: decimal.RequireFromString("46.40"), CreatedAt: created, UpdatedAt: created,
			}},
			Total: 11, Limit: 10, Page: 2,
		}
		a.orders.On("ListOrders", mockAny, storeID, want).Return(page, nil)

		url := "/admin/stores/" + storeID.String() + "/orders?status=pending,accepted&status=READY&paymentStatus=paid&q=%20maria%20&limit=10&page=2"
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodGet, url, nil), storeID))

		require.Equal(t, http.StatusOK, w.Code)
		var res orderPageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.EqualValues(t, 11, res.Total)
		require.Len(t, res.Orders, 1)
		require.NotNil(t, res.Orders[0].NextStatus)
		assert.Equal(t, "OUT_FOR_DELIVERY", *res.Orders[0].NextStatus)
		assert.Equal(t, []string{"OUT_FOR_DELIVERY", "CANCELLED"}, res.Orders[0].AllowedTransitions)
		a.orders.AssertExpectations(t)
	})

	t.Run("Bad date", func(t *testing.T) {
		a := newTestAPI()
		url := "/admin/stores/" + storeID.String() + "/orders?from=yesterday"
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodGet, url, nil), storeID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_DATE")
	})
}

func TestGetOrder(t *testing.T) {
	storeID := uuid.New()

	t.Run("Not found", func(t *testing.T) {
		a := newTestAPI()
		orderID := uuid.New()
		a.orders.On("GetOrder", mockAny, storeID, orderID).Return(nil, order.ErrOrderNotFound)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodGet, "/admin/stores/"+storeID.String()+"/orders/"+orderID.String(), nil), storeID))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ORDER_NOT_FOUND")
	})

	t.Run("Malformed id", func(t *testing.T) {
		a := newTestAPI()
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodGet, "/admin/stores/"+storeID.String()+"/orders/123", nil), storeID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_ID")
	})
}

func TestUpdateOrderStatus(t *testing.T) {
	storeID := uuid.New()
	orderID := uuid.New()
	path := "/admin/stores/" + storeID.String() + "/orders/" + orderID.String() + "/status"

	t.Run("Advances", func(t *testing.T) {
		a := newTestAPI()
		a.orders.On("UpdateStatus", mockAny, storeID, orderID, order.StatusAccepted).Return(&order.Order{
			ID: orderID, Status: order.StatusAccepted, Channel: order.ChannelTakeaway,
		}, nil)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"status":"accepted"}`)), storeID))

		require.Equal(t, http.StatusOK, w.Code)
		var res orderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "ACCEPTED", res.Status)
		assert.Equal(t, "IN_PREPARATION", *res.NextStatus)
		assert.Equal(t, []string{"IN_PREPARATION", "CANCELLED"}, res.AllowedTransitions)
	})

	t.Run("Counter order skips delivery", func(t *testing.T) {
		a := newTestAPI()
		a.orders.On("UpdateStatus", mockAny, storeID, orderID, order.StatusReady).Return(&order.Order{
			ID: orderID, Status: order.StatusReady, Channel: order.ChannelCounter,
		}, nil)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"status":"READY"}`)), storeID))

		require.Equal(t, http.StatusOK, w.Code)
		var res orderResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, []string{"DELIVERED", "CANCELLED"}, res.AllowedTransitions)
	})

	t.Run("Illegal transition", func(t *testing.T) {
		a := newTestAPI()
		a.orders.On("UpdateStatus", mockAny, storeID, orderID, order.StatusDelivered).Return(nil, order.ErrInvalidTransition)

		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"status":"DELIVERED"}`)), storeID))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_TRANSITION")
	})

	t.Run("Missing status", func(t *testing.T) {
		a := newTestAPI()
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{}`)), storeID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdatePaymentStatus(t *testing.T) {
	storeID := uuid.New()
	orderID := uuid.New()
	a := newTestAPI()
	a.orders.On("UpdatePaymentStatus", mockAny, storeID, orderID, order.PaymentStatusPaid).Return(&order.Order{
		ID: orderID, Status: order.StatusDelivered, PaymentStatus: order.PaymentStatusPaid,
	}, nil)

	path := "/admin/stores/" + storeID.String() + "/orders/" + orderID.String() + "/payment-status"
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, asStaff(httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"paymentStatus":"paid"}`)), storeID))

	require.Equal(t, http.StatusOK, w.Code)
	var res orderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "PAID", res.PaymentStatus)
	assert.Nil(t, res.NextStatus)
	assert.Empty(t, res.AllowedTransitions)
	assert.Contains(t, w.Body.String(), `"allowedTransitions":[]`)
}

func TestStreamOrders(t *testing.T) {
	storeID := uuid.New()
	broker := realtime.NewLocalBroker()
	h := NewHandler(Deps{Changes: broker})
	h.keepAlive = time.Hour
	router := NewRouter(h, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := utils.SetStaffContext(r.Context(), uuid.New(), "Ana", "manager", []uuid.UUID{storeID})
		router.ServeHTTP(w, r.WithContext(ctx))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/admin/stores/"+storeID.String()+"/orders/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	waitFor := func(prefix string) string {
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", prefix)
				}
				if strings.HasPrefix(line, prefix) {
					return line
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for %q", prefix)
			}
		}
	}

	waitFor("event:ready")

	orderID := uuid.New()
	require.NoError(t, broker.Publish(context.Background(), realtime.OrderChange{
		Type: realtime.ChangeUpdate, StoreID: storeID, OrderID: orderID, Status: "ACCEPTED",
	}))
	// Changes for other stores never reach this subscriber.
	require.NoError(t, broker.Publish(context.Background(), realtime.OrderChange{
		Type: realtime.ChangeInsert, StoreID: uuid.New(), OrderID: uuid.New(),
	}))

	waitFor("event:order")
	data := waitFor("data:")
	assert.Contains(t, data, orderID.String())
	assert.Contains(t, data, "ACCEPTED")
}
