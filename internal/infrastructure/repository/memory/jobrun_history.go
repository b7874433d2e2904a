// Package memory holds in-process repository implementations for state that
// does not need to survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/liamjsc/courtside/internal/domain/jobrun"
)

const defaultHistoryCapacity = 200

// JobRunHistory is a bounded, most-recent-first run log. Once capacity is
// reached the oldest run is evicted on append.
type JobRunHistory struct {
	mu       sync.RWMutex
	capacity int
	runs     []jobrun.Run
}

func NewJobRunHistory(capacity int) *JobRunHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &JobRunHistory{capacity: capacity}
}

func (h *JobRunHistory) Append(_ context.Context, run jobrun.Run) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs = append(h.runs, jobrun.Run{})
	copy(h.runs[1:], h.runs)
	h.runs[0] = run
	if len(h.runs) > h.capacity {
		h.runs = h.runs[:h.capacity]
	}
	return nil
}

func (h *JobRunHistory) List(_ context.Context, limit int) ([]jobrun.Run, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.runs) {
		limit = len(h.runs)
	}
	out := make([]jobrun.Run, limit)
	copy(out, h.runs[:limit])
	return out, nil
}

func (h *JobRunHistory) ListByJob(_ context.Context, jobName string, limit int) ([]jobrun.Run, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := []jobrun.Run{}
	for _, run := range h.runs {
		if run.JobName != jobName {
			continue
		}
		out = append(out, run)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
