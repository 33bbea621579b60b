// Package stats periodically samples queue depths and reports them
// through a pluggable Sink, replacing the original's debug-only stderr
// dump with a sink abstraction the scheduler and the mo-broker each
// satisfy differently (spec.md §4.7, §9).
package stats

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/typefo/lamb/internal/queue"
)

// sampleInterval is how often the pool is walked and reported, per
// spec.md §4.7.
const sampleInterval = 3 * time.Second

// Sink receives queue depth samples. Reset is called once before the
// first sample is taken; Set is called once per queue per tick.
type Sink interface {
	Reset(ctx context.Context) error
	Set(ctx context.Context, id uint32, depth int) error
}

// Run samples pool on sampleInterval until ctx is cancelled. sink.Reset
// is called once up front; a Reset or Set error is logged and does not
// stop sampling, since a transient cache outage shouldn't take down the
// broker's own routing.
func Run(ctx context.Context, pool *queue.Pool, sink Sink, log *logrus.Logger) {
	if err := sink.Reset(ctx); err != nil {
		log.WithError(err).Warn("stats: reset failed")
	}

	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample(ctx, pool, sink, log)
		}
	}
}

func sample(ctx context.Context, pool *queue.Pool, sink Sink, log *logrus.Logger) {
	for _, q := range pool.Snapshot() {
		if err := sink.Set(ctx, q.ID, q.Depth()); err != nil {
			log.WithError(err).WithField("id", q.ID).Warn("stats: sample publish failed")
		}
	}
}
