package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/metrics"
)

const janitorBatch = 500

// SignalJanitor periodically prunes expired signals of every active meeting.
type SignalJanitor struct {
	meetings *MeetingService
	signals  *SignalService
	interval time.Duration
}

func NewSignalJanitor(sess *Session, interval time.Duration) *SignalJanitor {
	return &SignalJanitor{
		meetings: sess.meetings,
		signals:  sess.signals,
		interval: interval,
	}
}

// Run blocks until ctx is done. A non-positive interval disables the janitor.
func (j *SignalJanitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		return
	}
	t := time.NewTicker(j.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := j.PruneOnce(ctx)
			if err != nil {
				slog.Warn("signal.janitor pass failed", slog.Any("err", err))
				continue
			}
			if n > 0 {
				slog.Debug("signal.janitor pruned", slog.Int64("deleted", n))
			}
		}
	}
}

// PruneOnce applies the configured retention to active meetings and
// returns the total number of deleted signals. Failures on one meeting do
// not stop the pass; the last error is returned.
func (j *SignalJanitor) PruneOnce(ctx context.Context) (int64, error) {
	ms, err := j.meetings.ListActive(ctx, janitorBatch)
	if err != nil {
		return 0, err
	}

	var (
		total   int64
		lastErr error
	)
	for i := range ms {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		n, err := j.signals.Prune(ctx, &ms[i], 0)
		if err != nil {
			lastErr = err
			continue
		}
		total += n
	}
	metrics.RecordPruned(total)

	return total, lastErr
}
