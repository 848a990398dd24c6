package api

import (
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const storeIDKey = "storeID"

// requireStaff rejects requests the auth middleware left anonymous.
func requireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetStaffIDFromContext(c.Request.Context()); !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		c.Next()
	}
}

// requireStoreAccess parses :storeId and checks it against the staff claims.
func requireStoreAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, err := uuid.Parse(c.Param("storeId"))
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "INVALID_STORE_ID", "invalid store id")
			return
		}
		if !utils.CanAccessStore(c.Request.Context(), storeID) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "no access to this store")
			return
		}

		c.Set(storeIDKey, storeID)
		c.Request = c.Request.WithContext(logger.WithStoreID(c.Request.Context(), storeID.String()))
		c.Next()
	}
}

func storeIDFrom(c *gin.Context) uuid.UUID {
	return c.MustGet(storeIDKey).(uuid.UUID)
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
