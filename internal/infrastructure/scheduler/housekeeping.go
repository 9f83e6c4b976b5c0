package scheduler

import (
	"context"
	"time"
)

// Task names
const (
	TaskExpireCheckoutSessions = "expire_checkout_sessions"
)

// CheckoutSweeper closes checkout sessions past their TTL
type CheckoutSweeper interface {
	ExpireStaleSessions(ctx context.Context) (int64, error)
}

// ExpireCheckoutSessionsTask sweeps expired checkout sessions every interval
func ExpireCheckoutSessionsTask(sweeper CheckoutSweeper, interval time.Duration) Task {
	return Task{
		Name:       TaskExpireCheckoutSessions,
		Interval:   interval,
		Timeout:    time.Minute,
		Run:        sweeper.ExpireStaleSessions,
		RunOnStart: true,
	}
}
