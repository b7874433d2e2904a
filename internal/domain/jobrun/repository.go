package jobrun

import "context"

// History stores finished runs most-recent-first with bounded capacity.
type History interface {
	Append(ctx context.Context, run Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	ListByJob(ctx context.Context, jobName string, limit int) ([]Run, error)
}
