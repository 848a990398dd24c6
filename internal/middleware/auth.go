package middleware

import (
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware authenticates staff tokens. Requests without a token pass
// through anonymously; a token that fails validation is rejected.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejecting staff token",
					zap.String("layer", "middleware"),
					zap.String("method", "AuthMiddleware"),
					zap.Error(err),
				)
				utils.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := utils.SetStaffContext(r.Context(), claims.UserID, claims.Name, claims.Role, claims.StoreIDs)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
