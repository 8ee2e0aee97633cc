// Package pkg holds utilities shared across layers.
// This file defines the domain-level errors.
//
// Services wrap these sentinels with context:
//
//	return fmt.Errorf("%w: not a participant", pkg.ErrForbidden)
//
// and handlers map them to HTTP status codes with errors.Is, so wrapped
// errors still match.
package pkg

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)
