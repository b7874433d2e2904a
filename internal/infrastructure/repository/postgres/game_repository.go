package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/liamjsc/courtside/internal/domain/game"
	qb "github.com/liamjsc/courtside/internal/platform/querybuilder"
	"github.com/liamjsc/courtside/internal/usecase"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, id int64) (game.Game, bool, error) {
	return r.getOne(ctx, qb.Eq("id", id), "get game by id")
}

func (r *GameRepository) GetByExternalID(ctx context.Context, externalID int64) (game.Game, bool, error) {
	return r.getOne(ctx, qb.Eq("external_id", externalID), "get game by external id")
}

func (r *GameRepository) getOne(ctx context.Context, condition qb.Condition, action string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").Where(condition).ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build %s query: %w", action, err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("%s: %w", action, err)
	}
	return row.toDomain(), true, nil
}

func (r *GameRepository) Insert(ctx context.Context, item game.Game) (game.Game, error) {
	query, args, err := qb.InsertInto("games").
		Columns("external_id", "game_date", "start_time", "home_team_id", "away_team_id", "status", "home_score", "away_score").
		Values(
			int64PtrToNull(item.ExternalID),
			item.Date,
			stringPtrToNull(item.StartTime),
			item.HomeTeamID,
			item.AwayTeamID,
			string(item.Status),
			intPtrToNull(item.HomeScore),
			intPtrToNull(item.AwayScore),
		).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return game.Game{}, fmt.Errorf("build insert game query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isUniqueViolation(err) {
			return game.Game{}, fmt.Errorf("%w: game already exists", usecase.ErrDuplicateConflict)
		}
		return game.Game{}, fmt.Errorf("insert game: %w", err)
	}

	item.ID = id
	return item, nil
}

func (r *GameRepository) UpdateResult(ctx context.Context, id int64, status game.Status, homeScore, awayScore *int) error {
	query, args, err := qb.Update("games").
		Set("status", string(status)).
		Set("home_score", intPtrToNull(homeScore)).
		Set("away_score", intPtrToNull(awayScore)).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update game result query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update game result: %w", err)
	}
	return nil
}

func (r *GameRepository) ListByDate(ctx context.Context, date time.Time) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("game_date", date)).
		OrderBy("start_time", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games by date query: %w", err)
	}
	return r.list(ctx, query, args, "select games by date")
}

// ListFinishedWithoutVideo returns finished games that have no matched
// highlight yet, oldest first so backfill drains in order.
func (r *GameRepository) ListFinishedWithoutVideo(ctx context.Context, limit int) ([]game.Game, error) {
	query, args, err := qb.Select("g.*").From("games g").
		Where(
			qb.Eq("g.status", string(game.StatusFinished)),
			qb.Expr("NOT EXISTS (SELECT 1 FROM videos v WHERE v.game_id = g.id)"),
		).
		OrderBy("g.game_date", "g.id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games pending video query: %w", err)
	}
	return r.list(ctx, query, args, "select games pending video")
}

func (r *GameRepository) ListFinishedWithoutVideoOnDate(ctx context.Context, date time.Time, limit int) ([]game.Game, error) {
	query, args, err := qb.Select("g.*").From("games g").
		Where(
			qb.Eq("g.status", string(game.StatusFinished)),
			qb.Eq("g.game_date", date),
			qb.Expr("NOT EXISTS (SELECT 1 FROM videos v WHERE v.game_id = g.id)"),
		).
		OrderBy("g.id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select dated games pending video query: %w", err)
	}
	return r.list(ctx, query, args, "select dated games pending video")
}

func (r *GameRepository) list(ctx context.Context, query string, args []any, action string) ([]game.Game, error) {
	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
