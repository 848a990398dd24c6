package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleOwner      = "owner"
	RoleManager    = "manager"
	RoleCashier    = "cashier"
	RoleSuperAdmin = "super_admin"
)

var (
	ErrMissingSecret = errors.New("jwt secret is not set")
	ErrInvalidToken  = errors.New("invalid token")
)

// StaffClaims identifies a member of a tenant's staff and the stores
// they may operate on.
type StaffClaims struct {
	UserID   uuid.UUID   `json:"user_id"`
	Name     string      `json:"name"`
	Role     string      `json:"role"`
	TenantID uuid.UUID   `json:"tenant_id"`
	StoreIDs []uuid.UUID `json:"store_ids,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, claims StaffClaims, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Subject == "" {
		claims.Subject = claims.UserID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*StaffClaims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&StaffClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*StaffClaims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
