package storefront

import "errors"

var (
	ErrStoreNotFound   = errors.New("store not found")
	ErrInvalidSettings = errors.New("invalid store settings")
)
