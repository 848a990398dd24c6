package cashregister

import "errors"

var (
	ErrNoOpenRegister      = errors.New("no open cash register for store")
	ErrRegisterAlreadyOpen = errors.New("cash register already open for store")
	ErrRegisterNotFound    = errors.New("cash register not found")
	ErrRegisterClosed      = errors.New("cash register is closed")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidMovementType = errors.New("invalid movement type")
	ErrInvalidPin          = errors.New("invalid close pin")
	ErrSaleAlreadyRecorded = errors.New("sale already recorded for order")
)
