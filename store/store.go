// Package store is the gateway between handlers and the relational store.
// Every transaction read and write is scoped by the owning user id.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means no row owned by the caller matches. Rows owned by
	// someone else are reported the same way.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail means the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnknownUser means the owning account no longer exists.
	ErrUnknownUser = errors.New("user no longer exists")
)

// withTimeout bounds one store operation. A zero timeout leaves ctx as is.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
