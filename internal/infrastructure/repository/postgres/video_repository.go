package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/liamjsc/courtside/internal/domain/video"
	qb "github.com/liamjsc/courtside/internal/platform/querybuilder"
	"github.com/liamjsc/courtside/internal/usecase"
)

type VideoRepository struct {
	db *sqlx.DB
}

func NewVideoRepository(db *sqlx.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) GetByID(ctx context.Context, id int64) (video.Video, bool, error) {
	return r.getOne(ctx, qb.Eq("id", id), "get video by id")
}

func (r *VideoRepository) GetByGameID(ctx context.Context, gameID int64) (video.Video, bool, error) {
	return r.getOne(ctx, qb.Eq("game_id", gameID), "get video by game id")
}

func (r *VideoRepository) getOne(ctx context.Context, condition qb.Condition, action string) (video.Video, bool, error) {
	query, args, err := qb.Select("*").From("videos").Where(condition).ToSQL()
	if err != nil {
		return video.Video{}, false, fmt.Errorf("build %s query: %w", action, err)
	}

	var row videoTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return video.Video{}, false, nil
		}
		return video.Video{}, false, fmt.Errorf("%s: %w", action, err)
	}
	return row.toDomain(), true, nil
}

func (r *VideoRepository) Insert(ctx context.Context, item video.Video) (video.Video, error) {
	query, args, err := qb.InsertInto("videos").
		Columns("game_id", "external_video_id", "title", "channel_id", "channel_name",
			"duration_seconds", "thumbnail_url", "published_at", "view_count", "watch_url", "verified").
		Values(
			item.GameID,
			item.ExternalVideoID,
			item.Title,
			item.ChannelID,
			item.ChannelName,
			item.DurationSeconds,
			item.ThumbnailURL,
			item.PublishedAt,
			int64PtrToNull(item.ViewCount),
			item.WatchURL,
			item.Verified,
		).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return video.Video{}, fmt.Errorf("build insert video query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isUniqueViolation(err) {
			return video.Video{}, fmt.Errorf("%w: video for game %d already exists", usecase.ErrDuplicateConflict, item.GameID)
		}
		return video.Video{}, fmt.Errorf("insert video: %w", err)
	}

	item.ID = id
	return item, nil
}

func (r *VideoRepository) UpdateViewCount(ctx context.Context, id int64, viewCount *int64) error {
	query, args, err := qb.Update("videos").
		Set("view_count", int64PtrToNull(viewCount)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update video view count query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update video view count: %w", err)
	}
	return nil
}

// ListForStatsRefresh returns stored videos stalest first.
func (r *VideoRepository) ListForStatsRefresh(ctx context.Context, limit int) ([]video.Video, error) {
	query, args, err := qb.Select("*").From("videos").
		OrderBy("updated_at", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select videos for refresh query: %w", err)
	}

	var rows []videoTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select videos for refresh: %w", err)
	}

	out := make([]video.Video, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
