package usecase

import (
	"context"
	"time"

	"github.com/liamjsc/courtside/internal/domain/game"
)

// ScheduleProvider fetches upstream event records for a date window. The
// client owns pagination, pacing and retry; callers see a flat slice.
type ScheduleProvider interface {
	FetchRange(ctx context.Context, start, end time.Time) ([]ExternalGame, error)
}

// ExternalGame is one upstream event record with its embedded team
// sub-records, already mapped to the internal three-state status.
type ExternalGame struct {
	ExternalID int64
	Date       time.Time
	StartTime  string
	Status     game.Status
	Period     int
	HomeScore  *int
	AwayScore  *int
	HomeTeam   ExternalTeam
	AwayTeam   ExternalTeam
}

type ExternalTeam struct {
	ExternalID   int64
	Abbreviation string
	ShortName    string
	FullName     string
	Conference   string
	Division     string
}

// VideoProvider searches the upstream video source and hydrates candidates
// with detail fields. Implementations report spent quota units to a
// CostRecorder after every upstream call.
type VideoProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]VideoCandidate, error)
	FetchStats(ctx context.Context, externalVideoID string) (VideoStats, error)
}

// VideoCandidate is one search hit in upstream relevance order.
type VideoCandidate struct {
	ExternalVideoID string
	Title           string
	ChannelID       string
	ChannelName     string
	Duration        string
	DurationSeconds int
	ThumbnailURL    string
	PublishedAt     time.Time
	ViewCount       *int64
	WatchURL        string
}

type VideoStats struct {
	ExternalVideoID string
	ViewCount       *int64
}

// CostRecorder absorbs the per-call quota cost charged by the video source.
type CostRecorder interface {
	Spend(units int)
}
