// Package ratelimit decides whether a caller identified by a key may make
// another request within a rolling budget.
package ratelimit

import "context"

// Limiter reports whether key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}
