// Package service holds the error taxonomy shared by the cart and
// order services. Handlers map these sentinels to HTTP statuses with
// errors.Is.
package service

import "errors"

var (
	ErrNotFound         = errors.New("not found")          // 404
	ErrOutOfStock       = errors.New("out of stock")       // 400
	ErrInvalidArgument  = errors.New("invalid argument")   // 400
	ErrAlreadyPaid      = errors.New("already paid")       // 400
	ErrAlreadyDelivered = errors.New("already delivered")  // 400
	ErrForbidden        = errors.New("forbidden")          // 403
	ErrConflict         = errors.New("conflict")           // 409
	ErrExternalService  = errors.New("external service")   // 502, retryable
)
