package cache

import (
	"context"
	"log"
	"time"
)

// Purger is implemented by stores that keep expired entries until swept.
// Redis expires keys itself and does not implement it.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// Janitor periodically purges expired payloads from a store.
type Janitor struct {
	store Purger
	every time.Duration
}

// NewJanitor returns a Janitor for s, or nil if s needs no sweeping.
func NewJanitor(s Store, every time.Duration) *Janitor {
	p, ok := s.(Purger)
	if !ok || every <= 0 {
		return nil
	}
	return &Janitor{store: p, every: every}
}

// Run sweeps every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	t := time.NewTicker(j.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one purge and logs what it removed.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	n, err := j.store.Purge(ctx)
	if err != nil {
		log.Printf("cache: purge: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("cache: purged %d expired payloads", n)
	}
	return n
}
