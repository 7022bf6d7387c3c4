// Package ratelimit bounds how many attempts a (tenant, action) pair may make
// in a rolling one-minute window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Window is the rolling period every ceiling applies to.
const Window = time.Minute

var ErrEmptyKey = errors.New("rate limiter key is empty")

// Decision reports the outcome of one Check. ResetIn is how long until the
// oldest recorded attempt leaves the window.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter is advisory throttling; implementations must be safe for
// concurrent use.
type Limiter interface {
	Check(ctx context.Context, tenantKey, action string) (Decision, error)
}

// Ceilings resolves the per-minute ceiling for an action.
type Ceilings interface {
	Ceiling(action string) int
}

type noopLimiter struct{}

// NewNoop returns a Limiter that allows everything.
func NewNoop() Limiter {
	return noopLimiter{}
}

func (noopLimiter) Check(context.Context, string, string) (Decision, error) {
	return Decision{Allowed: true, Limit: -1, Remaining: -1}, nil
}

func bucketKey(tenantKey, action string) (string, error) {
	tenantKey = strings.TrimSpace(tenantKey)
	action = strings.ToLower(strings.TrimSpace(action))
	if tenantKey == "" || action == "" {
		return "", ErrEmptyKey
	}
	return fmt.Sprintf("ratelimit:%s:%s", action, tenantKey), nil
}

func resetAfter(oldest, now time.Time) time.Duration {
	d := Window - now.Sub(oldest)
	if d < 0 {
		return 0
	}
	return d
}
