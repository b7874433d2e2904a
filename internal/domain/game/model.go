package game

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusFinished:
		return true
	default:
		return false
	}
}

// Game is one scheduled matchup. ExternalID is the upstream idempotency key;
// after first insert only Status and scores are mutated by reconciliation.
type Game struct {
	ID         int64
	ExternalID *int64
	Date       time.Time
	StartTime  *string
	HomeTeamID int64
	AwayTeamID int64
	Status     Status
	HomeScore  *int
	AwayScore  *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (g Game) Validate() error {
	if g.HomeTeamID <= 0 || g.AwayTeamID <= 0 {
		return fmt.Errorf("game team references are required")
	}
	if g.HomeTeamID == g.AwayTeamID {
		return fmt.Errorf("game home and away teams must differ")
	}
	if g.Date.IsZero() {
		return fmt.Errorf("game date is required")
	}
	if !g.Status.Valid() {
		return fmt.Errorf("game status %q is not valid", g.Status)
	}
	return nil
}

func (g Game) Finished() bool {
	return g.Status == StatusFinished
}
