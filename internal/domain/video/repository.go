package video

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int64) (Video, bool, error)
	GetByGameID(ctx context.Context, gameID int64) (Video, bool, error)
	Insert(ctx context.Context, item Video) (Video, error)
	UpdateViewCount(ctx context.Context, id int64, viewCount *int64) error
	ListForStatsRefresh(ctx context.Context, limit int) ([]Video, error)
}
