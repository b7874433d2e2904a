package video

import (
	"fmt"
	"time"
)

// Video is the matched highlight for one game. At most one row per game and
// per external video id; after insert only ViewCount is refreshed.
type Video struct {
	ID              int64
	GameID          int64
	ExternalVideoID string
	Title           string
	ChannelID       string
	ChannelName     string
	DurationSeconds int
	ThumbnailURL    string
	PublishedAt     time.Time
	ViewCount       *int64
	WatchURL        string
	Verified        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (v Video) Validate() error {
	if v.GameID <= 0 {
		return fmt.Errorf("video game reference is required")
	}
	if v.ExternalVideoID == "" {
		return fmt.Errorf("video external id is required")
	}
	if v.DurationSeconds <= 0 {
		return fmt.Errorf("video duration must be greater than zero seconds")
	}
	if v.WatchURL == "" {
		return fmt.Errorf("video watch url is required")
	}
	return nil
}
