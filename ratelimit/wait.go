// CLAUDE:SUMMARY Backoff helper that sleeps until a gate admits a call or the context ends.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// maxWaitAttempts bounds how many windows Wait will sleep through before
// giving up. Keeps a stuck key from pinning a goroutine forever.
const maxWaitAttempts = 8

// Wait repeatedly checks the gate for key and sleeps until a call is
// admitted, the context is cancelled, or maxWaitAttempts windows have
// passed. The sleep is the gate's reported ResetIn, capped at windowDur,
// so the caller never busy-loops.
func (g *Gate) Wait(ctx context.Context, key string, max int, windowDur time.Duration) error {
	for attempt := 0; attempt < maxWaitAttempts; attempt++ {
		d := g.Allow(key, max, windowDur)
		if d.OK {
			return nil
		}

		sleep := d.ResetIn
		if sleep <= 0 || sleep > windowDur {
			sleep = windowDur
		}

		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("ratelimit: gave up waiting for %q after %d windows", key, maxWaitAttempts)
}
