package team

import "context"

// Repository exposes team lookup and the write paths used by reconciliation.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Team, bool, error)
	GetByExternalID(ctx context.Context, externalID int64) (Team, bool, error)
	GetByAbbreviation(ctx context.Context, abbreviation string) (Team, bool, error)
	SetExternalID(ctx context.Context, id int64, externalID int64) error
	Insert(ctx context.Context, item Team) (Team, error)
	List(ctx context.Context) ([]Team, error)
}
