package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/liamjsc/courtside/internal/domain/jobrun"
)

func appendRun(t *testing.T, h *JobRunHistory, name string, seq int) {
	t.Helper()
	err := h.Append(context.Background(), jobrun.Run{
		JobName:   name,
		Status:    jobrun.StatusSucceeded,
		StartedAt: time.Date(2026, 2, 9, 0, 0, seq, 0, time.UTC),
		Result:    map[string]any{"seq": seq},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestJobRunHistoryMostRecentFirst(t *testing.T) {
	t.Parallel()

	h := NewJobRunHistory(10)
	for i := 0; i < 3; i++ {
		appendRun(t, h, "sync-today", i)
	}

	runs, err := h.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	for i, run := range runs {
		if want := 2 - i; run.Result["seq"] != want {
			t.Errorf("runs[%d].seq = %v, want %d", i, run.Result["seq"], want)
		}
	}
}

func TestJobRunHistoryEvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	h := NewJobRunHistory(5)
	for i := 0; i < 8; i++ {
		appendRun(t, h, "sync-today", i)
	}

	runs, _ := h.List(context.Background(), 0)
	if len(runs) != 5 {
		t.Fatalf("got %d runs, want capacity 5", len(runs))
	}
	if runs[0].Result["seq"] != 7 {
		t.Errorf("newest seq = %v, want 7", runs[0].Result["seq"])
	}
	if runs[4].Result["seq"] != 3 {
		t.Errorf("oldest kept seq = %v, want 3", runs[4].Result["seq"])
	}
}

func TestJobRunHistoryListLimitAndByJob(t *testing.T) {
	t.Parallel()

	h := NewJobRunHistory(20)
	for i := 0; i < 4; i++ {
		appendRun(t, h, fmt.Sprintf("job-%d", i%2), i)
	}

	limited, _ := h.List(context.Background(), 2)
	if len(limited) != 2 {
		t.Errorf("List(2) returned %d runs", len(limited))
	}

	byJob, _ := h.ListByJob(context.Background(), "job-1", 10)
	if len(byJob) != 2 {
		t.Fatalf("ListByJob returned %d runs, want 2", len(byJob))
	}
	for _, run := range byJob {
		if run.JobName != "job-1" {
			t.Errorf("run for %s leaked into job-1 history", run.JobName)
		}
	}

	none, _ := h.ListByJob(context.Background(), "missing", 10)
	if len(none) != 0 {
		t.Errorf("unknown job returned %d runs", len(none))
	}
}
