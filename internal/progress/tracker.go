// Package progress tracks the per-search pipeline stage exposed to polling
// clients.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopsense/internal/domain"
)

type record struct {
	domain.ProgressRecord
	updatedAt time.Time
}

// Tracker is a concurrency-safe store of progress records keyed by search id.
// Records for terminal searches are reclaimed by a background janitor after a
// retention window; cleanup is advisory only, completed results remain served
// from the orchestrator's completed store.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]record

	retention time.Duration
	logger    *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	now      func() time.Time // replaced in tests
}

// NewTracker creates a Tracker and starts its cleanup janitor.
func NewTracker(cleanupInterval, retention time.Duration, logger *zap.Logger) *Tracker {
	t := &Tracker{
		records:   make(map[string]record),
		retention: retention,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		now:       time.Now,
	}
	go t.janitor(cleanupInterval)
	return t
}

// CreateID generates a globally unique opaque search id.
func (t *Tracker) CreateID() string {
	return uuid.NewString()
}

// Update upserts the progress record for a search. The previous record is
// overwritten; callers are responsible for non-decreasing percentages within
// one search.
func (t *Tracker) Update(searchID string, stage domain.Stage, message string, percentage int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[searchID] = record{
		ProgressRecord: domain.ProgressRecord{
			SearchID:   searchID,
			Stage:      stage,
			Message:    message,
			Percentage: percentage,
		},
		updatedAt: t.now(),
	}
}

// Get returns the current progress for a search. The second return value is
// false for unknown ids; lookups never fail otherwise.
func (t *Tracker) Get(searchID string) (domain.ProgressRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[searchID]
	return r.ProgressRecord, ok
}

// Stop terminates the janitor. Safe to call more than once.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stop)
		<-t.done
	})
}

func (t *Tracker) janitor(interval time.Duration) {
	defer close(t.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := t.cleanup(); removed > 0 {
				t.logger.Debug("reclaimed terminal progress records", zap.Int("removed", removed))
			}
		case <-t.stop:
			return
		}
	}
}

// cleanup removes terminal records past the retention window and returns how
// many were removed.
func (t *Tracker) cleanup() int {
	cutoff := t.now().Add(-t.retention)

	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for id, r := range t.records {
		if r.Stage.Terminal() && r.updatedAt.Before(cutoff) {
			delete(t.records, id)
			removed++
		}
	}
	return removed
}
