package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine. An empty origins list allows any origin,
// which is what the public storefront needs in development.
func NewRouter(h *Handler, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-ID", "X-Device-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.health)
	r.GET("/metrics", h.metricsSnapshot)

	// Public storefront
	public := r.Group("/stores/:slug")
	{
		public.POST("/orders", h.submitOrder)
		public.GET("/coupons/:code", h.previewCoupon)
	}

	// Staff dashboard
	admin := r.Group("/admin/stores/:storeId")
	admin.Use(requireStaff(), requireStoreAccess())
	{
		admin.GET("/orders", h.listOrders)
		admin.GET("/orders/stream", h.streamOrders)
		admin.GET("/orders/:orderId", h.getOrder)
		admin.PATCH("/orders/:orderId/status", h.updateOrderStatus)
		admin.PATCH("/orders/:orderId/payment-status", h.updatePaymentStatus)

		admin.POST("/cash-register/open", h.openRegister)
		admin.POST("/cash-register/close", h.closeRegister)
		admin.GET("/cash-register/current", h.currentRegister)
		admin.GET("/cash-register/history", h.registerHistory)
		admin.GET("/cash-register/:registerId/movements", h.listMovements)
		admin.POST("/cash-movements", h.recordMovement)

		admin.GET("/financial-summary", h.financialSummary)
	}

	return r
}

func (h *Handler) health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "database": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) metricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"counters": h.metrics.Snapshot()})
}
