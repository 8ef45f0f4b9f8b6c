package payment

import "errors"

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("payment not found")
	ErrForbidden       = errors.New("payment belongs to another merchant")
	ErrInvalidRequest  = errors.New("invalid request fields")
)
