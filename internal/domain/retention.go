package domain

import "time"

const DefaultSignalRetention = 5 * time.Minute

// RetentionPolicy decides which signals are stale.
type RetentionPolicy struct {
	Window time.Duration
}

func NewRetentionPolicy(window time.Duration) RetentionPolicy {
	if window <= 0 {
		window = DefaultSignalRetention
	}
	return RetentionPolicy{Window: window}
}

// Cutoff returns the instant before which signals are stale. Signals created
// exactly at the cutoff are kept.
func (p RetentionPolicy) Cutoff(now time.Time) time.Time {
	return now.Add(-p.Window)
}

func (p RetentionPolicy) Expired(s Signal, now time.Time) bool {
	return s.CreatedAt.Before(p.Cutoff(now))
}
