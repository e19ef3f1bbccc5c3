package poller

import (
	"context"
	"time"
)

// alarmClock drives poll cycles: one immediate wakeup at start, then a fixed
// cadence. Per-guild poll_seconds is stored but reserved; every guild rides
// this single process-wide clock.
type alarmClock struct {
	interval time.Duration
	cancel   func()
	C        chan time.Time
}

func newAlarmClock(interval time.Duration) *alarmClock {
	return &alarmClock{
		interval: interval,
		C:        make(chan time.Time, 1),
	}
}

func (a *alarmClock) Start(ctx context.Context) <-chan time.Time {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	go func() {
		defer close(a.C)

		a.C <- time.Now().UTC()

		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				a.C <- t.UTC()
			case <-ctx.Done():
				return
			}
		}
	}()

	return a.C
}

func (a *alarmClock) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}
