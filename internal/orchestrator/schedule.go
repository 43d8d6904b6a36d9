package orchestrator

import (
	"context"
	"log"
	"time"

	"github.com/jasonlvhit/gocron"
)

// RunContinuously schedules RunAll to fire every interval using gocron,
// blocking until ctx is cancelled. A zero or negative interval is treated
// as "run once and return" so callers don't need a separate code path for
// one-shot vs. scheduled invocations.
func (o *Orchestrator) RunContinuously(ctx context.Context, sites []Site, interval time.Duration) error {
	if interval <= 0 {
		return o.RunAll(ctx, sites)
	}

	scheduler := gocron.NewScheduler()
	_, err := scheduler.Every(uint64(interval.Seconds())).Seconds().Do(func() {
		if err := o.RunAll(ctx, sites); err != nil {
			log.Printf("[WARN] orchestrator: scheduled run reported site failures: %v", err)
		}
	})
	if err != nil {
		return err
	}

	stop := scheduler.Start()
	<-ctx.Done()
	stop <- true
	return nil
}
