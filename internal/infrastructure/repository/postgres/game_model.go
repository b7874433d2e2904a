package postgres

import (
	"database/sql"
	"time"

	"github.com/liamjsc/courtside/internal/domain/game"
)

type gameTableModel struct {
	ID         int64          `db:"id"`
	ExternalID sql.NullInt64  `db:"external_id"`
	GameDate   time.Time      `db:"game_date"`
	StartTime  sql.NullString `db:"start_time"`
	HomeTeamID int64          `db:"home_team_id"`
	AwayTeamID int64          `db:"away_team_id"`
	Status     string         `db:"status"`
	HomeScore  sql.NullInt64  `db:"home_score"`
	AwayScore  sql.NullInt64  `db:"away_score"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (m gameTableModel) toDomain() game.Game {
	return game.Game{
		ID:         m.ID,
		ExternalID: nullInt64Ptr(m.ExternalID),
		Date:       m.GameDate.UTC(),
		StartTime:  nullStringPtr(m.StartTime),
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		Status:     game.Status(m.Status),
		HomeScore:  nullIntPtr(m.HomeScore),
		AwayScore:  nullIntPtr(m.AwayScore),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
