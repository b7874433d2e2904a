package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/liamjsc/courtside/internal/domain/game"
	"github.com/liamjsc/courtside/internal/domain/team"
	"github.com/liamjsc/courtside/internal/domain/video"
	"github.com/liamjsc/courtside/internal/platform/logging"
)

type stubVideoProvider struct {
	candidates  []VideoCandidate
	searchErr   error
	stats       VideoStats
	statsErr    error
	searchCalls int
	lastQuery   string
}

func (s *stubVideoProvider) Search(_ context.Context, query string, _ int) ([]VideoCandidate, error) {
	s.searchCalls++
	s.lastQuery = query
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.candidates, nil
}

func (s *stubVideoProvider) FetchStats(_ context.Context, _ string) (VideoStats, error) {
	if s.statsErr != nil {
		return VideoStats{}, s.statsErr
	}
	return s.stats, nil
}

type memVideoRepo struct {
	nextID    int64
	items     map[int64]video.Video
	insertErr error
}

func newMemVideoRepo() *memVideoRepo {
	return &memVideoRepo{nextID: 1, items: map[int64]video.Video{}}
}

func (r *memVideoRepo) GetByID(_ context.Context, id int64) (video.Video, bool, error) {
	item, ok := r.items[id]
	return item, ok, nil
}

func (r *memVideoRepo) GetByGameID(_ context.Context, gameID int64) (video.Video, bool, error) {
	for _, item := range r.items {
		if item.GameID == gameID {
			return item, true, nil
		}
	}
	return video.Video{}, false, nil
}

func (r *memVideoRepo) Insert(_ context.Context, item video.Video) (video.Video, error) {
	if r.insertErr != nil {
		return video.Video{}, r.insertErr
	}
	for _, stored := range r.items {
		if stored.GameID == item.GameID || stored.ExternalVideoID == item.ExternalVideoID {
			return video.Video{}, fmt.Errorf("%w: video for game %d", ErrDuplicateConflict, item.GameID)
		}
	}
	item.ID = r.nextID
	r.nextID++
	r.items[item.ID] = item
	return item, nil
}

func (r *memVideoRepo) UpdateViewCount(_ context.Context, id int64, viewCount *int64) error {
	item, ok := r.items[id]
	if !ok {
		return fmt.Errorf("video %d not found", id)
	}
	item.ViewCount = viewCount
	r.items[id] = item
	return nil
}

func (r *memVideoRepo) ListForStatsRefresh(_ context.Context, limit int) ([]video.Video, error) {
	out := []video.Video{}
	for id := int64(1); id < r.nextID; id++ {
		if item, ok := r.items[id]; ok {
			out = append(out, item)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type discoveryFixture struct {
	provider *stubVideoProvider
	teams    *memTeamRepo
	games    *memGameRepo
	videos   *memVideoRepo
	svc      *VideoDiscoveryService
}

func newDiscoveryFixture(t *testing.T, verified VerifiedChannelFunc) *discoveryFixture {
	t.Helper()

	f := &discoveryFixture{
		provider: &stubVideoProvider{},
		teams:    newMemTeamRepo(),
		games:    newMemGameRepo(),
		videos:   newMemVideoRepo(),
	}
	f.svc = NewVideoDiscoveryService(VideoDiscoveryConfig{
		Provider:   f.provider,
		Games:      f.games,
		Teams:      f.teams,
		Videos:     f.videos,
		Quota:      NewQuotaTracker(QuotaTrackerConfig{DailyLimit: 10000, MinReserve: 500}),
		IsVerified: verified,
		Logger:     logging.NewNop(),
	})
	return f
}

// seedFinishedGame stores teams plus a finished game and returns its id.
func (f *discoveryFixture) seedFinishedGame(t *testing.T, date time.Time) int64 {
	t.Helper()

	home, _ := f.teams.Insert(context.Background(), team.Team{
		ShortName: "Celtics", FullName: "Boston Celtics", Abbreviation: "BOS", Conference: team.ConferenceEast,
	})
	away, _ := f.teams.Insert(context.Background(), team.Team{
		ShortName: "Lakers", FullName: "Los Angeles Lakers", Abbreviation: "LAL", Conference: team.ConferenceWest,
	})
	externalID := int64(1000 + f.games.nextID)
	stored, err := f.games.Insert(context.Background(), game.Game{
		ExternalID: &externalID,
		Date:       date,
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		Status:     game.StatusFinished,
		HomeScore:  intPtr(112),
		AwayScore:  intPtr(104),
	})
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}
	return stored.ID
}

func candidateFixture(id, channelID, channelName string) VideoCandidate {
	return VideoCandidate{
		ExternalVideoID: id,
		Title:           "Full Game Highlights",
		ChannelID:       channelID,
		ChannelName:     channelName,
		Duration:        "PT10M30S",
		DurationSeconds: 630,
		ThumbnailURL:    "https://img/" + id + ".jpg",
		PublishedAt:     time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC),
		WatchURL:        "https://www.youtube.com/watch?v=" + id,
	}
}

func TestDiscoverVideoForGamePrefersVerifiedChannel(t *testing.T) {
	t.Parallel()

	verified := func(channelID, _ string) bool { return channelID == "ch-official" }
	f := newDiscoveryFixture(t, verified)
	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	gameID := f.seedFinishedGame(t, date)

	f.provider.candidates = []VideoCandidate{
		candidateFixture("vid-fan", "ch-fan", "Fan Cuts"),
		candidateFixture("vid-official", "ch-official", "League Channel"),
		candidateFixture("vid-other", "ch-other", "Other"),
	}

	outcome, err := f.svc.DiscoverVideoForGame(context.Background(), gameID)
	if err != nil {
		t.Fatalf("DiscoverVideoForGame: %v", err)
	}
	if !outcome.Matched || outcome.Existing {
		t.Fatalf("outcome = %+v", outcome)
	}

	saved, _, _ := f.videos.GetByGameID(context.Background(), gameID)
	if saved.ExternalVideoID != "vid-official" {
		t.Errorf("selected %s, want the allow-listed channel's video", saved.ExternalVideoID)
	}
	if !saved.Verified {
		t.Error("verified flag not set on allow-listed selection")
	}

	wantQuery := "Boston Celtics vs Los Angeles Lakers 2026-02-09 highlights"
	if f.provider.lastQuery != wantQuery {
		t.Errorf("query = %q, want %q", f.provider.lastQuery, wantQuery)
	}
}

func TestDiscoverVideoForGameFallsBackToTopResult(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, func(string, string) bool { return false })
	gameID := f.seedFinishedGame(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))

	f.provider.candidates = []VideoCandidate{
		candidateFixture("vid-first", "ch-1", "First"),
		candidateFixture("vid-second", "ch-2", "Second"),
	}

	if _, err := f.svc.DiscoverVideoForGame(context.Background(), gameID); err != nil {
		t.Fatalf("DiscoverVideoForGame: %v", err)
	}
	saved, _, _ := f.videos.GetByGameID(context.Background(), gameID)
	if saved.ExternalVideoID != "vid-first" {
		t.Errorf("selected %s, want the top relevance hit", saved.ExternalVideoID)
	}
	if saved.Verified {
		t.Error("fallback selection must not be flagged verified")
	}
}

func TestDiscoverVideoForGameShortCircuitsOnExistingVideo(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)
	gameID := f.seedFinishedGame(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))

	existing := candidateFixture("vid-existing", "ch-1", "First")
	_, _ = f.videos.Insert(context.Background(), video.Video{
		GameID:          gameID,
		ExternalVideoID: existing.ExternalVideoID,
		DurationSeconds: existing.DurationSeconds,
		WatchURL:        existing.WatchURL,
	})

	outcome, err := f.svc.DiscoverVideoForGame(context.Background(), gameID)
	if err != nil {
		t.Fatalf("DiscoverVideoForGame: %v", err)
	}
	if !outcome.Matched || !outcome.Existing {
		t.Errorf("outcome = %+v, want existing match", outcome)
	}
	if f.provider.searchCalls != 0 {
		t.Errorf("search called %d times, want 0", f.provider.searchCalls)
	}
}

func TestDiscoverVideoForGameEligibility(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)

	if _, err := f.svc.DiscoverVideoForGame(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing game err = %v, want ErrNotFound", err)
	}

	gameID := f.seedFinishedGame(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))
	stored := f.games.items[gameID]
	stored.Status = game.StatusInProgress
	f.games.items[gameID] = stored

	if _, err := f.svc.DiscoverVideoForGame(context.Background(), gameID); !errors.Is(err, ErrNotEligible) {
		t.Errorf("in-progress game err = %v, want ErrNotEligible", err)
	}
	if f.provider.searchCalls != 0 {
		t.Errorf("ineligible game must not reach the provider, got %d calls", f.provider.searchCalls)
	}
}

func TestDiscoverVideoForGameNoResults(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)
	gameID := f.seedFinishedGame(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))
	f.provider.candidates = []VideoCandidate{}

	if _, err := f.svc.DiscoverVideoForGame(context.Background(), gameID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(f.videos.items) != 0 {
		t.Error("no video must be persisted on empty results")
	}
}

func TestDiscoverVideoForGameDuplicateConflict(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)
	gameID := f.seedFinishedGame(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))
	f.provider.candidates = []VideoCandidate{candidateFixture("vid-a", "ch-1", "First")}
	f.videos.insertErr = fmt.Errorf("%w: duplicate key", ErrDuplicateConflict)

	if _, err := f.svc.DiscoverVideoForGame(context.Background(), gameID); !errors.Is(err, ErrDuplicateConflict) {
		t.Fatalf("err = %v, want ErrDuplicateConflict", err)
	}
}

func TestDiscoverForFinishedGamesAggregatesOutcomes(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)
	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		f.seedFinishedGame(t, date)
	}
	f.provider.candidates = []VideoCandidate{candidateFixture("vid-shared", "ch-1", "First")}

	result, err := f.svc.DiscoverForFinishedGames(context.Background(), 10)
	if err != nil {
		t.Fatalf("DiscoverForFinishedGames: %v", err)
	}
	// The stub repo rejects the duplicate external id, so only the first
	// game matches and the rest fail without aborting the batch.
	if result.Processed != 3 {
		t.Errorf("Processed = %d, want 3", result.Processed)
	}
	if result.Matched != 1 {
		t.Errorf("Matched = %d, want 1", result.Matched)
	}
	if result.Failed != 2 {
		t.Errorf("Failed = %d, want 2", result.Failed)
	}
}

func TestDiscoverForFinishedGamesSkipsOnDepletedQuota(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)
	f.seedFinishedGame(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))
	f.svc.quota.Spend(9700)

	result, err := f.svc.DiscoverForFinishedGames(context.Background(), 10)
	if err != nil {
		t.Fatalf("DiscoverForFinishedGames: %v", err)
	}
	if result.Skipped != 1 || result.Processed != 0 {
		t.Errorf("result = %+v, want skipped run", result)
	}
	if f.provider.searchCalls != 0 {
		t.Errorf("depleted quota must not reach the provider, got %d calls", f.provider.searchCalls)
	}
}

func TestDiscoverForYesterdayScopesToDate(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)
	yesterday := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

	f.seedFinishedGame(t, yesterday)
	f.seedFinishedGame(t, today)
	f.provider.candidates = []VideoCandidate{candidateFixture("vid-a", "ch-1", "First")}
	f.svc.now = func() time.Time { return today.Add(9 * time.Hour) }

	result, err := f.svc.DiscoverForYesterday(context.Background())
	if err != nil {
		t.Fatalf("DiscoverForYesterday: %v", err)
	}
	if result.Processed != 1 || result.Matched != 1 {
		t.Errorf("result = %+v, want exactly yesterday's game processed", result)
	}
}

func TestUpdateStats(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)
	gameID := f.seedFinishedGame(t, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))
	saved, _ := f.videos.Insert(context.Background(), video.Video{
		GameID:          gameID,
		ExternalVideoID: "vid-a",
		DurationSeconds: 630,
		WatchURL:        "https://www.youtube.com/watch?v=vid-a",
	})

	views := int64(424242)
	f.provider.stats = VideoStats{ExternalVideoID: "vid-a", ViewCount: &views}

	if err := f.svc.UpdateStats(context.Background(), saved.ID); err != nil {
		t.Fatalf("UpdateStats: %v", err)
	}
	refreshed, _, _ := f.videos.GetByID(context.Background(), saved.ID)
	if refreshed.ViewCount == nil || *refreshed.ViewCount != views {
		t.Errorf("ViewCount = %v, want %d", refreshed.ViewCount, views)
	}

	if err := f.svc.UpdateStats(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing video err = %v, want ErrNotFound", err)
	}
}

func TestRefreshAllStats(t *testing.T) {
	t.Parallel()

	f := newDiscoveryFixture(t, nil)
	date := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		gameID := f.seedFinishedGame(t, date)
		_, _ = f.videos.Insert(context.Background(), video.Video{
			GameID:          gameID,
			ExternalVideoID: fmt.Sprintf("vid-%d", i),
			DurationSeconds: 630,
			WatchURL:        fmt.Sprintf("https://www.youtube.com/watch?v=vid-%d", i),
		})
	}
	views := int64(777)
	f.provider.stats = VideoStats{ViewCount: &views}

	result, err := f.svc.RefreshAllStats(context.Background(), 10)
	if err != nil {
		t.Fatalf("RefreshAllStats: %v", err)
	}
	if result.Processed != 2 || result.Matched != 2 || result.Failed != 0 {
		t.Errorf("result = %+v, want 2 refreshed", result)
	}
}
