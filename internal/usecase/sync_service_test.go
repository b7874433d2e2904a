package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/liamjsc/courtside/internal/domain/game"
	"github.com/liamjsc/courtside/internal/domain/team"
	"github.com/liamjsc/courtside/internal/platform/logging"
)

type stubScheduleProvider struct {
	records []ExternalGame
	err     error
	calls   int
}

func (s *stubScheduleProvider) FetchRange(_ context.Context, _, _ time.Time) ([]ExternalGame, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type memTeamRepo struct {
	nextID int64
	items  map[int64]team.Team
}

func newMemTeamRepo() *memTeamRepo {
	return &memTeamRepo{nextID: 1, items: map[int64]team.Team{}}
}

func (r *memTeamRepo) GetByID(_ context.Context, id int64) (team.Team, bool, error) {
	item, ok := r.items[id]
	return item, ok, nil
}

func (r *memTeamRepo) GetByExternalID(_ context.Context, externalID int64) (team.Team, bool, error) {
	for _, item := range r.items {
		if item.ExternalID != nil && *item.ExternalID == externalID {
			return item, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *memTeamRepo) GetByAbbreviation(_ context.Context, abbreviation string) (team.Team, bool, error) {
	for _, item := range r.items {
		if item.Abbreviation == abbreviation {
			return item, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *memTeamRepo) SetExternalID(_ context.Context, id int64, externalID int64) error {
	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("team %d not found", id)
	}
	item.ExternalID = &externalID
	r.items[id] = item
	return nil
}

func (r *memTeamRepo) Insert(_ context.Context, item team.Team) (team.Team, error) {
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = item
	return item, nil
}

func (r *memTeamRepo) List(_ context.Context) ([]team.Team, error) {
	out := make([]team.Team, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

type memGameRepo struct {
	nextID    int64
	items     map[int64]game.Game
	insertErr error
	updateErr error
	inserts   int
	updates   int
}

func newMemGameRepo() *memGameRepo {
	return &memGameRepo{nextID: 1, items: map[int64]game.Game{}}
}

func (r *memGameRepo) GetByID(_ context.Context, id int64) (game.Game, bool, error) {
	item, ok := r.items[id]
	return item, ok, nil
}

func (r *memGameRepo) GetByExternalID(_ context.Context, externalID int64) (game.Game, bool, error) {
	for _, item := range r.items {
		if item.ExternalID != nil && *item.ExternalID == externalID {
			return item, true, nil
		}
	}
	return game.Game{}, false, nil
}

func (r *memGameRepo) Insert(_ context.Context, item game.Game) (game.Game, error) {
	if r.insertErr != nil {
		return game.Game{}, r.insertErr
	}
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = item
	r.inserts++
	return item, nil
}

func (r *memGameRepo) UpdateResult(_ context.Context, id int64, status game.Status, homeScore, awayScore *int) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("game %d not found", id)
	}
	item.Status = status
	item.HomeScore = homeScore
	item.AwayScore = awayScore
	r.items[id] = item
	r.updates++
	return nil
}

func (r *memGameRepo) ListByDate(_ context.Context, date time.Time) ([]game.Game, error) {
	out := []game.Game{}
	for _, item := range r.items {
		if item.Date.Equal(date) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *memGameRepo) ListFinishedWithoutVideo(_ context.Context, limit int) ([]game.Game, error) {
	return r.finishedWithoutVideo(limit, nil)
}

func (r *memGameRepo) ListFinishedWithoutVideoOnDate(_ context.Context, date time.Time, limit int) ([]game.Game, error) {
	return r.finishedWithoutVideo(limit, &date)
}

func (r *memGameRepo) finishedWithoutVideo(limit int, date *time.Time) ([]game.Game, error) {
	out := []game.Game{}
	for id := int64(1); id < r.nextID; id++ {
		item, ok := r.items[id]
		if !ok || !item.Finished() {
			continue
		}
		if date != nil && !item.Date.Equal(*date) {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

func externalGameFixture(externalID int64, date time.Time) ExternalGame {
	return ExternalGame{
		ExternalID: externalID,
		Date:       date,
		StartTime:  "7:30 PM ET",
		Status:     game.StatusScheduled,
		HomeTeam: ExternalTeam{
			ExternalID:   2,
			Abbreviation: "BOS",
			ShortName:    "Celtics",
			FullName:     "Boston Celtics",
			Conference:   team.ConferenceEast,
			Division:     "Atlantic",
		},
		AwayTeam: ExternalTeam{
			ExternalID:   14,
			Abbreviation: "LAL",
			ShortName:    "Lakers",
			FullName:     "Los Angeles Lakers",
			Conference:   team.ConferenceWest,
			Division:     "Pacific",
		},
	}
}

func TestSyncRangeCreatesGamesAndTeams(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	provider := &stubScheduleProvider{records: []ExternalGame{externalGameFixture(1001, date)}}
	teams := newMemTeamRepo()
	games := newMemGameRepo()

	svc := NewSyncService(provider, teams, games, logging.NewNop())

	result, err := svc.SyncRange(context.Background(), date, date)
	if err != nil {
		t.Fatalf("SyncRange returned error: %v", err)
	}
	if result.Added != 1 || result.Updated != 0 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v, want 1 added", result)
	}
	if len(teams.items) != 2 {
		t.Errorf("created %d teams, want 2", len(teams.items))
	}
	stored, found, _ := games.GetByExternalID(context.Background(), 1001)
	if !found {
		t.Fatal("game not stored")
	}
	if stored.Status != game.StatusScheduled {
		t.Errorf("status = %s, want scheduled", stored.Status)
	}
	if stored.HomeTeamID == stored.AwayTeamID {
		t.Error("home and away resolved to the same team")
	}
}

func TestSyncRangeIsIdempotent(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	provider := &stubScheduleProvider{records: []ExternalGame{externalGameFixture(1001, date)}}
	teams := newMemTeamRepo()
	games := newMemGameRepo()
	svc := NewSyncService(provider, teams, games, logging.NewNop())

	if _, err := svc.SyncRange(context.Background(), date, date); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	result, err := svc.SyncRange(context.Background(), date, date)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Added != 0 || result.Updated != 0 {
		t.Errorf("second pass result = %+v, want no changes", result)
	}
	if len(games.items) != 1 {
		t.Errorf("stored %d games, want 1", len(games.items))
	}
	if len(teams.items) != 2 {
		t.Errorf("stored %d teams, want 2", len(teams.items))
	}
}

func TestSyncRangeUpdatesStatusAndScores(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	record := externalGameFixture(1001, date)
	provider := &stubScheduleProvider{records: []ExternalGame{record}}
	teams := newMemTeamRepo()
	games := newMemGameRepo()
	svc := NewSyncService(provider, teams, games, logging.NewNop())

	if _, err := svc.SyncRange(context.Background(), date, date); err != nil {
		t.Fatalf("first pass: %v", err)
	}

	record.Status = game.StatusFinished
	record.HomeScore = intPtr(112)
	record.AwayScore = intPtr(104)
	provider.records = []ExternalGame{record}

	result, err := svc.SyncRange(context.Background(), date, date)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if result.Added != 0 || result.Updated != 1 {
		t.Fatalf("result = %+v, want 1 updated", result)
	}

	stored, _, _ := games.GetByExternalID(context.Background(), 1001)
	if stored.Status != game.StatusFinished {
		t.Errorf("status = %s, want finished", stored.Status)
	}
	if stored.HomeScore == nil || *stored.HomeScore != 112 {
		t.Errorf("home score = %v, want 112", stored.HomeScore)
	}
}

func TestSyncRangePatchesTeamExternalID(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	teams := newMemTeamRepo()
	// Pre-seeded team without an upstream id, matched by abbreviation.
	_, _ = teams.Insert(context.Background(), team.Team{
		ShortName:    "Celtics",
		FullName:     "Boston Celtics",
		Abbreviation: "BOS",
		Conference:   team.ConferenceEast,
	})

	provider := &stubScheduleProvider{records: []ExternalGame{externalGameFixture(1001, date)}}
	games := newMemGameRepo()
	svc := NewSyncService(provider, teams, games, logging.NewNop())

	if _, err := svc.SyncRange(context.Background(), date, date); err != nil {
		t.Fatalf("SyncRange: %v", err)
	}

	patched, found, _ := teams.GetByExternalID(context.Background(), 2)
	if !found {
		t.Fatal("seeded team did not receive the upstream id")
	}
	if patched.Abbreviation != "BOS" {
		t.Errorf("patched team = %+v", patched)
	}
	// The upstream record must not have spawned a duplicate.
	if len(teams.items) != 2 {
		t.Errorf("stored %d teams, want 2 (BOS patched + LAL created)", len(teams.items))
	}
}

func TestSyncRangeAggregatesPerRecordErrors(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	records := make([]ExternalGame, 0, 10)
	for i := 0; i < 10; i++ {
		record := externalGameFixture(int64(2000+i), date)
		record.HomeTeam.ExternalID += int64(i * 100)
		record.AwayTeam.ExternalID += int64(i * 100)
		record.HomeTeam.Abbreviation = fmt.Sprintf("H%02d", i)
		record.AwayTeam.Abbreviation = fmt.Sprintf("A%02d", i)
		if i == 3 || i == 7 {
			// Same team on both sides fails validation.
			record.AwayTeam = record.HomeTeam
		}
		records = append(records, record)
	}

	provider := &stubScheduleProvider{records: records}
	svc := NewSyncService(provider, newMemTeamRepo(), newMemGameRepo(), logging.NewNop())

	result, err := svc.SyncRange(context.Background(), date, date)
	if err != nil {
		t.Fatalf("SyncRange returned error: %v", err)
	}
	if result.Added != 8 {
		t.Errorf("Added = %d, want 8", result.Added)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2 entries", result.Errors)
	}
	for _, msg := range result.Errors {
		if !strings.Contains(msg, "game 2") {
			t.Errorf("error message %q missing record reference", msg)
		}
	}
}

func TestSyncRangeRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := NewSyncService(&stubScheduleProvider{}, newMemTeamRepo(), newMemGameRepo(), logging.NewNop())

	start := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	if _, err := svc.SyncRange(context.Background(), start, start.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateLiveScoresNeverCreates(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

	known := externalGameFixture(1001, today)
	unknown := externalGameFixture(9999, today)
	unknown.Status = game.StatusInProgress

	teams := newMemTeamRepo()
	games := newMemGameRepo()
	provider := &stubScheduleProvider{records: []ExternalGame{known}}
	svc := NewSyncService(provider, teams, games, logging.NewNop())
	svc.now = func() time.Time { return today.Add(19 * time.Hour) }

	if _, err := svc.SyncRange(context.Background(), today, today); err != nil {
		t.Fatalf("seed sync: %v", err)
	}

	known.Status = game.StatusInProgress
	known.HomeScore = intPtr(55)
	known.AwayScore = intPtr(51)
	provider.records = []ExternalGame{known, unknown}

	result, err := svc.UpdateLiveScores(context.Background())
	if err != nil {
		t.Fatalf("UpdateLiveScores: %v", err)
	}
	if result.Updated != 1 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want 1 updated", result)
	}
	if len(games.items) != 1 {
		t.Errorf("stored %d games, want 1 (unknown record must not be created)", len(games.items))
	}
}

func TestSyncWindowsUseInjectedClock(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 9, 15, 0, 0, 0, time.UTC)
	provider := &stubScheduleProvider{}
	svc := NewSyncService(provider, newMemTeamRepo(), newMemGameRepo(), logging.NewNop())
	svc.now = func() time.Time { return now }

	if _, err := svc.SyncToday(context.Background()); err != nil {
		t.Fatalf("SyncToday: %v", err)
	}
	if _, err := svc.SyncYesterday(context.Background()); err != nil {
		t.Fatalf("SyncYesterday: %v", err)
	}
	if _, err := svc.SyncUpcoming(context.Background(), 7); err != nil {
		t.Fatalf("SyncUpcoming: %v", err)
	}
	if provider.calls != 3 {
		t.Errorf("provider calls = %d, want 3", provider.calls)
	}
	if _, err := svc.SyncUpcoming(context.Background(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SyncUpcoming(0) err = %v, want ErrInvalidInput", err)
	}
}
