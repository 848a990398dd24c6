package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	StaffIDKey     contextKey = "staff_id"
	StaffNameKey   contextKey = "staff_name"
	StaffRoleKey   contextKey = "staff_role"
	StaffStoresKey contextKey = "staff_store_ids"
)

const roleSuperAdmin = "super_admin"

// SetStaffContext sets staff info into context (called by middleware)
func SetStaffContext(ctx context.Context, id uuid.UUID, name, role string, storeIDs []uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, StaffIDKey, id)
	ctx = context.WithValue(ctx, StaffNameKey, name)
	ctx = context.WithValue(ctx, StaffRoleKey, role)
	ctx = context.WithValue(ctx, StaffStoresKey, storeIDs)
	return ctx
}

func GetStaffIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(StaffIDKey).(uuid.UUID)
	return id, ok
}

func GetStaffNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(StaffNameKey).(string)
	return name
}

func GetStaffRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(StaffRoleKey).(string)
	return role
}

// CanAccessStore reports whether the authenticated staff member may act on storeID.
func CanAccessStore(ctx context.Context, storeID uuid.UUID) bool {
	if _, ok := GetStaffIDFromContext(ctx); !ok {
		return false
	}
	if GetStaffRoleFromContext(ctx) == roleSuperAdmin {
		return true
	}

	stores, _ := ctx.Value(StaffStoresKey).([]uuid.UUID)
	for _, id := range stores {
		if id == storeID {
			return true
		}
	}
	return false
}

// ActorFromContext names who performed an action for audit rows: the staff
// name, else the staff id, else "system".
func ActorFromContext(ctx context.Context) string {
	if name := GetStaffNameFromContext(ctx); name != "" {
		return name
	}
	if id, ok := GetStaffIDFromContext(ctx); ok {
		return id.String()
	}
	return "system"
}
