package postgres

import (
	"database/sql"
	"time"

	"github.com/liamjsc/courtside/internal/domain/team"
)

type teamTableModel struct {
	ID           int64         `db:"id"`
	ShortName    string        `db:"short_name"`
	FullName     string        `db:"full_name"`
	Abbreviation string        `db:"abbreviation"`
	Conference   string        `db:"conference"`
	Division     string        `db:"division"`
	ExternalID   sql.NullInt64 `db:"external_id"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:           m.ID,
		ShortName:    m.ShortName,
		FullName:     m.FullName,
		Abbreviation: m.Abbreviation,
		Conference:   m.Conference,
		Division:     m.Division,
		ExternalID:   nullInt64Ptr(m.ExternalID),
	}
}
