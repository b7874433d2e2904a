package game

import (
	"context"
	"time"
)

// Repository exposes game lookups plus the two writes reconciliation is
// allowed to make: insert on first sighting, result-only update afterwards.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Game, bool, error)
	GetByExternalID(ctx context.Context, externalID int64) (Game, bool, error)
	Insert(ctx context.Context, item Game) (Game, error)
	UpdateResult(ctx context.Context, id int64, status Status, homeScore, awayScore *int) error
	ListByDate(ctx context.Context, date time.Time) ([]Game, error)
	ListFinishedWithoutVideo(ctx context.Context, limit int) ([]Game, error)
	ListFinishedWithoutVideoOnDate(ctx context.Context, date time.Time, limit int) ([]Game, error)
}
