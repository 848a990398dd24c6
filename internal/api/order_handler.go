package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront-be/internal/coupon"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/storefront"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const IdempotencyKeyHeader = "Idempotency-Key"

func (h *Handler) submitOrder(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, order.SubmitResult{
			Error:     "Dados do pedido inválidos",
			ErrorCode: string(order.KindValidation),
		})
		return
	}
	if key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)); key != "" {
		req.IdempotencyKey = key
	}

	res := h.orders.SubmitOrder(c.Request.Context(), req.toInput(c.Param("slug")))
	c.JSON(submitStatus(res), res)
}

func (h *Handler) previewCoupon(c *gin.Context) {
	ctx := c.Request.Context()

	subtotal := decimal.Zero
	if raw := c.Query("subtotal"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			respondError(c, http.StatusBadRequest, "INVALID_SUBTOTAL", "invalid subtotal")
			return
		}
		subtotal = v
	}
	var channel order.Channel
	if raw := c.Query("channel"); raw != "" {
		channel = order.Channel(strings.ToUpper(raw))
		if !channel.IsValid() {
			respondError(c, http.StatusBadRequest, "INVALID_CHANNEL", "invalid channel")
			return
		}
	}

	store, err := h.stores.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	code := coupon.NormalizeCode(c.Param("code"))
	res := couponPreviewResponse{Code: code, Discount: decimal.Zero}

	cp, err := h.coupons.GetByCode(ctx, store.ID, code)
	switch {
	case errors.Is(err, coupon.ErrCouponNotFound):
		res.ErrorCode = order.CodeCouponInvalid
	case err != nil:
		respondDomainError(c, err)
		return
	default:
		res.DiscountType = string(cp.DiscountType)
		if verr := cp.Validate(h.now(), subtotal); verr != nil {
			res.ErrorCode = couponErrorCode(verr)
		} else {
			res.Valid = true
			res.Discount = cp.Discount(subtotal, deliveryFeeFor(store, channel, subtotal))
		}
	}
	c.JSON(http.StatusOK, res)
}

// deliveryFeeFor mirrors order creation: only delivery carts pay a fee.
func deliveryFeeFor(store *storefront.Store, channel order.Channel, subtotal decimal.Decimal) decimal.Decimal {
	if channel != order.ChannelDelivery || !store.Settings.Delivery.Enabled {
		return decimal.Zero
	}
	return store.Settings.DeliveryFeeFor(subtotal)
}

func couponErrorCode(err error) string {
	switch {
	case errors.Is(err, coupon.ErrCouponExpired):
		return order.CodeCouponExpired
	case errors.Is(err, coupon.ErrCouponExhausted):
		return order.CodeCouponExhausted
	case errors.Is(err, coupon.ErrCouponMinOrder):
		return order.CodeCouponMinOrder
	default:
		return order.CodeCouponInvalid
	}
}

func (h *Handler) listOrders(c *gin.Context) {
	filter := order.ListFilter{Search: strings.TrimSpace(c.Query("q"))}

	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, order.OrderStatus(strings.ToUpper(s)))
			}
		}
	}
	if v := c.Query("paymentStatus"); v != "" {
		ps := order.PaymentStatus(strings.ToUpper(v))
		filter.PaymentStatus = &ps
	}
	if v := c.Query("channel"); v != "" {
		ch := order.Channel(strings.ToUpper(v))
		filter.Channel = &ch
	}

	var ok bool
	if filter.From, ok = timeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = timeQuery(c, "to"); !ok {
		return
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		filter.Limit = int32(v)
	}
	if v, err := strconv.Atoi(c.DefaultQuery("page", "0")); err == nil {
		filter.Page = int32(v)
	}

	page, err := h.orders.ListOrders(c.Request.Context(), storeIDFrom(c), filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapOrderPage(page))
}

func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_DATE", name+" must be RFC3339")
		return nil, false
	}
	return &t, true
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := uuidParam(c, "orderId")
	if !ok {
		return
	}

	o, err := h.orders.GetOrder(c.Request.Context(), storeIDFrom(c), orderID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapOrder(o))
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	orderID, ok := uuidParam(c, "orderId")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", "status is required")
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), storeIDFrom(c), orderID, order.OrderStatus(strings.ToUpper(req.Status)))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapOrder(o))
}

func (h *Handler) updatePaymentStatus(c *gin.Context) {
	orderID, ok := uuidParam(c, "orderId")
	if !ok {
		return
	}
	var req updatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BODY", "paymentStatus is required")
		return
	}

	o, err := h.orders.UpdatePaymentStatus(c.Request.Context(), storeIDFrom(c), orderID, order.PaymentStatus(strings.ToUpper(req.PaymentStatus)))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapOrder(o))
}

// streamOrders relays order changes for the store as server-sent events.
// Dashboards refetch on every "order" event.
func (h *Handler) streamOrders(c *gin.Context) {
	ctx := c.Request.Context()
	storeID := storeIDFrom(c)
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "api"),
		zap.String("method", "streamOrders"),
	)

	changes, cancel, err := h.changes.Subscribe(ctx, storeID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	log.Debug("order stream opened")

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	c.SSEvent("ready", gin.H{"storeId": storeID})
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case change, ok := <-changes:
			if !ok {
				return false
			}
			c.SSEvent("order", change)
			return true
		case <-ping.C:
			c.SSEvent("ping", h.now().Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})
	log.Debug("order stream closed")
}
