// Package repository defines the job store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithRetention sets how long terminal jobs are kept before the
// janitor removes them. Zero keeps them forever.
func WithRetention(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.retention = ttl
		}
	}
}

// WithSweepInterval sets how often the janitor scans for expired jobs.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
