package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

// Every runs task on a fixed interval until ctx is done. Runs never overlap;
// a failed run is logged and the next tick proceeds.
func Every(ctx context.Context, interval time.Duration, name string, task Task, log zerolog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			start := time.Now()
			if err := task(ctx); err != nil {
				log.Warn().Err(err).Str("task", name).Msg("scheduled task failed")
				continue
			}
			log.Debug().Str("task", name).Dur("dur", time.Since(start)).Msg("scheduled task done")
		}
	}
}
