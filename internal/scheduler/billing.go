// Package scheduler fires the recurring billing sweep at the first
// instant of each calendar month.  A Redis lock keyed by the cycle
// ensures that when several instances of the service run, exactly one
// of them executes the sweep; the others skip the cycle.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shubhamuu/hostel-solutions-sub001/internal/service"
)

// lockTTL bounds how long a crashed sweep can keep the cycle locked.
const lockTTL = time.Hour

// Billing drives the monthly fee generation.  When rdb is nil (no
// Redis configured) the lock is skipped and the sweep runs
// unconditionally, which is correct for single-instance deployments.
type Billing struct {
	billing *service.BillingService
	rdb     *redis.Client
}

// NewBilling constructs the billing trigger.
func NewBilling(billing *service.BillingService, rdb *redis.Client) *Billing {
	if billing == nil {
		panic("nil billing service passed to NewBilling")
	}
	return &Billing{billing: billing, rdb: rdb}
}

// Start blocks until ctx is cancelled, running the sweep at the start
// of every month.  It is intended to be launched as a goroutine from
// main.
func (b *Billing) Start(ctx context.Context) {
	for {
		next := nextCycleStart(time.Now().UTC())
		log.Printf("scheduler: next billing sweep at %s", next.Format(time.RFC3339))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.C:
			b.RunOnce(ctx, now.UTC())
		}
	}
}

// RunOnce executes one sweep for the cycle containing now, guarded by
// the cycle lock.  Exposed separately so an operator endpoint or a
// test can trigger a cycle directly.
func (b *Billing) RunOnce(ctx context.Context, now time.Time) {
	if !b.acquireLock(ctx, now) {
		log.Printf("scheduler: cycle %s already swept by another instance", now.Format("2006-01"))
		return
	}
	if _, err := b.billing.RunCycle(ctx, now); err != nil {
		log.Printf("scheduler: billing sweep failed: %v", err)
	}
}

// acquireLock takes the per-cycle Redis lock.  SET NX makes the
// acquisition a single atomic operation across instances.
func (b *Billing) acquireLock(ctx context.Context, now time.Time) bool {
	if b.rdb == nil {
		return true
	}
	key := "billing:cycle:" + now.Format("2006-01")
	ok, err := b.rdb.SetNX(ctx, key, "1", lockTTL).Result()
	if err != nil {
		// Redis being down should not stop billing; fall back to running.
		log.Printf("scheduler: cycle lock unavailable: %v", err)
		return true
	}
	return ok
}

// nextCycleStart returns the first instant of the month after now.
func nextCycleStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
