package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without
// leaking infrastructure details.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrInvalidCode  = errors.New("invalid code")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrDelivery     = errors.New("delivery failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEntropy      = errors.New("entropy source unavailable")
)
