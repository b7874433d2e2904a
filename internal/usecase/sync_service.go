package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/liamjsc/courtside/internal/domain/game"
	"github.com/liamjsc/courtside/internal/domain/team"
	"github.com/liamjsc/courtside/internal/platform/logging"
)

// SyncResult summarizes one reconciliation pass. Errors carries per-record
// failure messages; a non-empty slice does not fail the pass.
type SyncResult struct {
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

type SyncService struct {
	provider ScheduleProvider
	teams    team.Repository
	games    game.Repository
	logger   *logging.Logger

	now func() time.Time
}

func NewSyncService(provider ScheduleProvider, teams team.Repository, games game.Repository, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		provider: provider,
		teams:    teams,
		games:    games,
		logger:   logger,
		now:      time.Now,
	}
}

// SyncRange reconciles every upstream record in [start, end] against stored
// state. Records are processed strictly in order; a bad record is logged,
// appended to the result, and never stops the rest of the batch.
func (s *SyncService) SyncRange(ctx context.Context, start, end time.Time) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncService.SyncRange",
		oteltrace.WithAttributes(
			attribute.String("sync.start", start.Format(time.DateOnly)),
			attribute.String("sync.end", end.Format(time.DateOnly)),
		))
	defer span.End()

	if end.Before(start) {
		return SyncResult{}, fmt.Errorf("%w: range end %s precedes start %s",
			ErrInvalidInput, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	records, err := s.provider.FetchRange(ctx, start, end)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch schedule range: %w", err)
	}

	result := SyncResult{}
	for _, record := range records {
		added, updated, err := s.reconcileGame(ctx, record)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping schedule record",
				"externalID", record.ExternalID, "error", err.Error())
			result.Errors = append(result.Errors, fmt.Sprintf("game %d: %v", record.ExternalID, err))
			continue
		}
		if added {
			result.Added++
		}
		if updated {
			result.Updated++
		}
	}

	s.logger.InfoContext(ctx, "schedule sync completed",
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
		"fetched", len(records),
		"added", result.Added,
		"updated", result.Updated,
		"failed", len(result.Errors))
	return result, nil
}

// SyncToday reconciles the current local date.
func (s *SyncService) SyncToday(ctx context.Context) (SyncResult, error) {
	today := dateOnly(s.now())
	return s.SyncRange(ctx, today, today)
}

// SyncYesterday reconciles the previous local date, the window where final
// scores land.
func (s *SyncService) SyncYesterday(ctx context.Context) (SyncResult, error) {
	yesterday := dateOnly(s.now()).AddDate(0, 0, -1)
	return s.SyncRange(ctx, yesterday, yesterday)
}

// SyncUpcoming reconciles today plus the next days-1 dates.
func (s *SyncService) SyncUpcoming(ctx context.Context, days int) (SyncResult, error) {
	if days <= 0 {
		return SyncResult{}, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidInput, days)
	}
	start := dateOnly(s.now())
	return s.SyncRange(ctx, start, start.AddDate(0, 0, days-1))
}

// UpdateLiveScores refreshes status and scores for today's already-known
// games. Unknown records are ignored, never created.
func (s *SyncService) UpdateLiveScores(ctx context.Context) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "SyncService.UpdateLiveScores")
	defer span.End()

	today := dateOnly(s.now())
	records, err := s.provider.FetchRange(ctx, today, today)
	if err != nil {
		return SyncResult{}, fmt.Errorf("fetch live schedule: %w", err)
	}

	result := SyncResult{}
	for _, record := range records {
		existing, found, err := s.games.GetByExternalID(ctx, record.ExternalID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("game %d: %v", record.ExternalID, err))
			continue
		}
		if !found {
			continue
		}

		updated, err := s.applyResult(ctx, existing, record)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("game %d: %v", record.ExternalID, err))
			continue
		}
		if updated {
			result.Updated++
		}
	}

	s.logger.InfoContext(ctx, "live score update completed",
		"fetched", len(records), "updated", result.Updated, "failed", len(result.Errors))
	return result, nil
}

// reconcileGame upserts one upstream record. New games are inserted with the
// upstream status; existing games only get status and scores mutated.
func (s *SyncService) reconcileGame(ctx context.Context, record ExternalGame) (added, updated bool, err error) {
	existing, found, err := s.games.GetByExternalID(ctx, record.ExternalID)
	if err != nil {
		return false, false, fmt.Errorf("lookup game: %w", err)
	}
	if found {
		changed, err := s.applyResult(ctx, existing, record)
		return false, changed, err
	}

	homeTeam, err := s.findOrCreateTeam(ctx, record.HomeTeam)
	if err != nil {
		return false, false, fmt.Errorf("resolve home team: %w", err)
	}
	awayTeam, err := s.findOrCreateTeam(ctx, record.AwayTeam)
	if err != nil {
		return false, false, fmt.Errorf("resolve away team: %w", err)
	}

	externalID := record.ExternalID
	item := game.Game{
		ExternalID: &externalID,
		Date:       dateOnly(record.Date),
		HomeTeamID: homeTeam.ID,
		AwayTeamID: awayTeam.ID,
		Status:     record.Status,
		HomeScore:  record.HomeScore,
		AwayScore:  record.AwayScore,
	}
	if record.StartTime != "" {
		startTime := record.StartTime
		item.StartTime = &startTime
	}
	if err := item.Validate(); err != nil {
		return false, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := s.games.Insert(ctx, item); err != nil {
		return false, false, fmt.Errorf("insert game: %w", err)
	}
	return true, false, nil
}

// applyResult writes status/score changes to an existing game, skipping the
// write when nothing moved.
func (s *SyncService) applyResult(ctx context.Context, existing game.Game, record ExternalGame) (bool, error) {
	if existing.Status == record.Status &&
		intPtrEqual(existing.HomeScore, record.HomeScore) &&
		intPtrEqual(existing.AwayScore, record.AwayScore) {
		return false, nil
	}
	if err := s.games.UpdateResult(ctx, existing.ID, record.Status, record.HomeScore, record.AwayScore); err != nil {
		return false, fmt.Errorf("update game result: %w", err)
	}
	return true, nil
}

// findOrCreateTeam resolves an upstream team record to a stored team:
// external id first, then abbreviation with an external-id patch, then a
// fresh insert from the upstream metadata.
func (s *SyncService) findOrCreateTeam(ctx context.Context, record ExternalTeam) (team.Team, error) {
	if record.ExternalID > 0 {
		found, ok, err := s.teams.GetByExternalID(ctx, record.ExternalID)
		if err != nil {
			return team.Team{}, fmt.Errorf("lookup team by external id: %w", err)
		}
		if ok {
			return found, nil
		}
	}

	if record.Abbreviation != "" {
		found, ok, err := s.teams.GetByAbbreviation(ctx, record.Abbreviation)
		if err != nil {
			return team.Team{}, fmt.Errorf("lookup team by abbreviation: %w", err)
		}
		if ok {
			if found.ExternalID == nil && record.ExternalID > 0 {
				if err := s.teams.SetExternalID(ctx, found.ID, record.ExternalID); err != nil {
					return team.Team{}, fmt.Errorf("patch team external id: %w", err)
				}
				externalID := record.ExternalID
				found.ExternalID = &externalID
			}
			return found, nil
		}
	}

	item := team.Team{
		ShortName:    record.ShortName,
		FullName:     record.FullName,
		Abbreviation: record.Abbreviation,
		Conference:   record.Conference,
		Division:     record.Division,
	}
	if record.ExternalID > 0 {
		externalID := record.ExternalID
		item.ExternalID = &externalID
	}
	if err := item.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.teams.Insert(ctx, item)
	if err != nil {
		return team.Team{}, fmt.Errorf("insert team: %w", err)
	}
	s.logger.InfoContext(ctx, "created team from upstream metadata",
		"abbreviation", created.Abbreviation, "teamID", created.ID)
	return created, nil
}

func dateOnly(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
