package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/liamjsc/courtside/internal/domain/team"
	qb "github.com/liamjsc/courtside/internal/platform/querybuilder"
	"github.com/liamjsc/courtside/internal/usecase"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, id int64) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("id", id), "get team by id")
}

func (r *TeamRepository) GetByExternalID(ctx context.Context, externalID int64) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("external_id", externalID), "get team by external id")
}

func (r *TeamRepository) GetByAbbreviation(ctx context.Context, abbreviation string) (team.Team, bool, error) {
	return r.getOne(ctx, qb.Eq("abbreviation", abbreviation), "get team by abbreviation")
}

func (r *TeamRepository) getOne(ctx context.Context, condition qb.Condition, action string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").Where(condition).ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build %s query: %w", action, err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("%s: %w", action, err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) SetExternalID(ctx context.Context, id int64, externalID int64) error {
	query, args, err := qb.Update("teams").
		Set("external_id", externalID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set team external id query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: external id %d is already mapped", usecase.ErrDuplicateConflict, externalID)
		}
		return fmt.Errorf("set team external id: %w", err)
	}
	return nil
}

func (r *TeamRepository) Insert(ctx context.Context, item team.Team) (team.Team, error) {
	query, args, err := qb.InsertInto("teams").
		Columns("short_name", "full_name", "abbreviation", "conference", "division", "external_id").
		Values(item.ShortName, item.FullName, item.Abbreviation, item.Conference, item.Division, int64PtrToNull(item.ExternalID)).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return team.Team{}, fmt.Errorf("build insert team query: %w", err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isUniqueViolation(err) {
			return team.Team{}, fmt.Errorf("%w: team %s already exists", usecase.ErrDuplicateConflict, item.Abbreviation)
		}
		return team.Team{}, fmt.Errorf("insert team: %w", err)
	}

	item.ID = id
	return item, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").OrderBy("full_name").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
