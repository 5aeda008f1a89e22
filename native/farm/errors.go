package farm

import "errors"

var (
	ErrUnauthorized       = errors.New("farm: unauthorized")
	ErrAlreadyInitialized = errors.New("farm: already initialized")
	ErrNotInitialized     = errors.New("farm: not initialized")
	ErrInvalidPool        = errors.New("farm: invalid pool")
	ErrInsufficientStake  = errors.New("farm: insufficient stake")
	ErrDuplicateToken     = errors.New("farm: token already registered")
	ErrTransferFailed     = errors.New("farm: transfer failed")
	ErrArithmeticOverflow = errors.New("farm: arithmetic overflow")
	ErrInvalidAmount      = errors.New("farm: invalid amount")
	ErrInvalidAddress     = errors.New("farm: invalid address")
	ErrReentrantCall      = errors.New("farm: reentrant call")
	ErrNilState           = errors.New("farm: state not configured")
)
