package api

import (
	"errors"
	"net/http"

	"storefront-be/internal/cashregister"
	"storefront-be/internal/finance"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"storefront-be/internal/storefront"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorBody{Error: message, Code: code})
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorBody{Error: message, Code: code})
}

var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{order.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{order.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{order.ErrStatusConflict, http.StatusConflict, "STATUS_CONFLICT"},
	{order.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{order.ErrInvalidPaymentStatus, http.StatusBadRequest, "INVALID_PAYMENT_STATUS"},
	{storefront.ErrStoreNotFound, http.StatusNotFound, "STORE_NOT_FOUND"},
	{storefront.ErrInvalidSettings, http.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
	{cashregister.ErrNoOpenRegister, http.StatusConflict, "NO_OPEN_REGISTER"},
	{cashregister.ErrRegisterAlreadyOpen, http.StatusConflict, "REGISTER_ALREADY_OPEN"},
	{cashregister.ErrRegisterNotFound, http.StatusNotFound, "REGISTER_NOT_FOUND"},
	{cashregister.ErrRegisterClosed, http.StatusConflict, "REGISTER_CLOSED"},
	{cashregister.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{cashregister.ErrInvalidMovementType, http.StatusBadRequest, "INVALID_MOVEMENT_TYPE"},
	{cashregister.ErrInvalidPin, http.StatusForbidden, "INVALID_PIN"},
	{finance.ErrInvalidPeriod, http.StatusBadRequest, "INVALID_PERIOD"},
}

// respondDomainError maps service errors to HTTP. Anything unrecognised is
// logged and reported as a bare 500.
func respondDomainError(c *gin.Context, err error) {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			respondError(c, d.status, d.code, d.err.Error())
			return
		}
	}

	logger.FromCtx(c.Request.Context()).Error("request failed",
		zap.String("layer", "api"),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// submitStatus picks the HTTP status for an order submission result.
func submitStatus(res order.SubmitResult) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Kind {
	case order.KindValidation:
		return http.StatusBadRequest
	case order.KindStoreNotFound:
		return http.StatusNotFound
	case order.KindBilling:
		return http.StatusPaymentRequired
	case order.KindPersistence:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
