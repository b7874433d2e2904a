package postgres

import (
	"database/sql"
	"time"

	"github.com/liamjsc/courtside/internal/domain/video"
)

type videoTableModel struct {
	ID              int64         `db:"id"`
	GameID          int64         `db:"game_id"`
	ExternalVideoID string        `db:"external_video_id"`
	Title           string        `db:"title"`
	ChannelID       string        `db:"channel_id"`
	ChannelName     string        `db:"channel_name"`
	DurationSeconds int           `db:"duration_seconds"`
	ThumbnailURL    string        `db:"thumbnail_url"`
	PublishedAt     time.Time     `db:"published_at"`
	ViewCount       sql.NullInt64 `db:"view_count"`
	WatchURL        string        `db:"watch_url"`
	Verified        bool          `db:"verified"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

func (m videoTableModel) toDomain() video.Video {
	return video.Video{
		ID:              m.ID,
		GameID:          m.GameID,
		ExternalVideoID: m.ExternalVideoID,
		Title:           m.Title,
		ChannelID:       m.ChannelID,
		ChannelName:     m.ChannelName,
		DurationSeconds: m.DurationSeconds,
		ThumbnailURL:    m.ThumbnailURL,
		PublishedAt:     m.PublishedAt,
		ViewCount:       nullInt64Ptr(m.ViewCount),
		WatchURL:        m.WatchURL,
		Verified:        m.Verified,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
