package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/liamjsc/courtside/internal/domain/game"
	"github.com/liamjsc/courtside/internal/domain/team"
	"github.com/liamjsc/courtside/internal/domain/video"
	"github.com/liamjsc/courtside/internal/platform/logging"
)

const (
	defaultSearchTopK = 5

	// Worst case per game: one search plus one detail unit per candidate.
	discoveryUnitCost = 105
	statsUnitCost     = 1
)

// VerifiedChannelFunc reports whether a candidate's channel is on the
// trusted allow-list, by id or by name.
type VerifiedChannelFunc func(channelID, channelName string) bool

// DiscoveryOutcome is the per-game result of one matching attempt.
type DiscoveryOutcome struct {
	GameID   int64  `json:"gameId"`
	VideoID  int64  `json:"videoId,omitempty"`
	Matched  bool   `json:"matched"`
	Existing bool   `json:"existing,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// DiscoveryBatchResult aggregates a batch pass. A batch never aborts on a
// per-game failure.
type DiscoveryBatchResult struct {
	Processed int                `json:"processed"`
	Matched   int                `json:"matched"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Outcomes  []DiscoveryOutcome `json:"outcomes,omitempty"`
}

type VideoDiscoveryService struct {
	provider   VideoProvider
	games      game.Repository
	teams      team.Repository
	videos     video.Repository
	quota      *QuotaTracker
	isVerified VerifiedChannelFunc
	logger     *logging.Logger
	searchTopK int

	now func() time.Time
}

type VideoDiscoveryConfig struct {
	Provider   VideoProvider
	Games      game.Repository
	Teams      team.Repository
	Videos     video.Repository
	Quota      *QuotaTracker
	IsVerified VerifiedChannelFunc
	Logger     *logging.Logger
	SearchTopK int
}

func NewVideoDiscoveryService(cfg VideoDiscoveryConfig) *VideoDiscoveryService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	isVerified := cfg.IsVerified
	if isVerified == nil {
		isVerified = func(string, string) bool { return false }
	}
	topK := cfg.SearchTopK
	if topK <= 0 {
		topK = defaultSearchTopK
	}
	return &VideoDiscoveryService{
		provider:   cfg.Provider,
		games:      cfg.Games,
		teams:      cfg.Teams,
		videos:     cfg.Videos,
		quota:      cfg.Quota,
		isVerified: isVerified,
		logger:     logger,
		searchTopK: topK,
		now:        time.Now,
	}
}

// DiscoverVideoForGame finds and persists the best highlight candidate for
// one finished game. A game that already has a video returns it without any
// upstream call.
func (s *VideoDiscoveryService) DiscoverVideoForGame(ctx context.Context, gameID int64) (DiscoveryOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "VideoDiscoveryService.DiscoverVideoForGame",
		oteltrace.WithAttributes(attribute.Int64("game.id", gameID)))
	defer span.End()

	existing, found, err := s.videos.GetByGameID(ctx, gameID)
	if err != nil {
		return DiscoveryOutcome{GameID: gameID}, fmt.Errorf("lookup existing video: %w", err)
	}
	if found {
		return DiscoveryOutcome{GameID: gameID, VideoID: existing.ID, Matched: true, Existing: true}, nil
	}

	item, found, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return DiscoveryOutcome{GameID: gameID}, fmt.Errorf("lookup game: %w", err)
	}
	if !found {
		return DiscoveryOutcome{GameID: gameID}, fmt.Errorf("%w: game %d", ErrNotFound, gameID)
	}
	if !item.Finished() {
		return DiscoveryOutcome{GameID: gameID}, fmt.Errorf("%w: game %d is %s, not finished", ErrNotEligible, gameID, item.Status)
	}

	query, err := s.buildQuery(ctx, item)
	if err != nil {
		return DiscoveryOutcome{GameID: gameID}, err
	}

	candidates, err := s.provider.Search(ctx, query, s.searchTopK)
	if err != nil {
		return DiscoveryOutcome{GameID: gameID}, fmt.Errorf("search videos: %w", err)
	}
	if len(candidates) == 0 {
		return DiscoveryOutcome{GameID: gameID}, fmt.Errorf("%w: no search results for game %d", ErrNotFound, gameID)
	}

	chosen, verified := s.selectCandidate(candidates)

	record := video.Video{
		GameID:          gameID,
		ExternalVideoID: chosen.ExternalVideoID,
		Title:           chosen.Title,
		ChannelID:       chosen.ChannelID,
		ChannelName:     chosen.ChannelName,
		DurationSeconds: chosen.DurationSeconds,
		ThumbnailURL:    chosen.ThumbnailURL,
		PublishedAt:     chosen.PublishedAt,
		ViewCount:       chosen.ViewCount,
		WatchURL:        chosen.WatchURL,
		Verified:        verified,
	}
	if err := record.Validate(); err != nil {
		return DiscoveryOutcome{GameID: gameID}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	saved, err := s.videos.Insert(ctx, record)
	if err != nil {
		return DiscoveryOutcome{GameID: gameID}, fmt.Errorf("persist video: %w", err)
	}

	s.logger.InfoContext(ctx, "matched highlight video",
		"gameID", gameID,
		"videoID", saved.ID,
		"channel", saved.ChannelName,
		"verified", saved.Verified)
	return DiscoveryOutcome{GameID: gameID, VideoID: saved.ID, Matched: true}, nil
}

// selectCandidate picks the first allow-listed channel; without one, the
// top relevance hit wins.
func (s *VideoDiscoveryService) selectCandidate(candidates []VideoCandidate) (VideoCandidate, bool) {
	for _, candidate := range candidates {
		if s.isVerified(candidate.ChannelID, candidate.ChannelName) {
			return candidate, true
		}
	}
	return candidates[0], false
}

func (s *VideoDiscoveryService) buildQuery(ctx context.Context, item game.Game) (string, error) {
	home, found, err := s.teams.GetByID(ctx, item.HomeTeamID)
	if err != nil {
		return "", fmt.Errorf("lookup home team: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w: team %d", ErrNotFound, item.HomeTeamID)
	}
	away, found, err := s.teams.GetByID(ctx, item.AwayTeamID)
	if err != nil {
		return "", fmt.Errorf("lookup away team: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w: team %d", ErrNotFound, item.AwayTeamID)
	}
	return fmt.Sprintf("%s vs %s %s highlights",
		home.FullName, away.FullName, item.Date.Format(time.DateOnly)), nil
}

// DiscoverForFinishedGames matches highlights for finished games that have
// none yet. The batch size is shrunk to what the remaining quota can safely
// cover; an empty budget skips the run instead of failing it.
func (s *VideoDiscoveryService) DiscoverForFinishedGames(ctx context.Context, limit int) (DiscoveryBatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "VideoDiscoveryService.DiscoverForFinishedGames")
	defer span.End()
	return s.discoverBatch(ctx, limit, nil)
}

// DiscoverForYesterday runs the same batch scoped to yesterday's games, the
// morning-after pass where every final score already landed.
func (s *VideoDiscoveryService) DiscoverForYesterday(ctx context.Context) (DiscoveryBatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "VideoDiscoveryService.DiscoverForYesterday")
	defer span.End()

	yesterday := dateOnly(s.now()).AddDate(0, 0, -1)
	return s.discoverBatch(ctx, s.searchTopK*4, &yesterday)
}

func (s *VideoDiscoveryService) discoverBatch(ctx context.Context, limit int, date *time.Time) (DiscoveryBatchResult, error) {
	if limit <= 0 {
		return DiscoveryBatchResult{}, fmt.Errorf("%w: batch limit must be positive, got %d", ErrInvalidInput, limit)
	}

	if !s.quota.HasReserve() {
		s.logger.WarnContext(ctx, "skipping video discovery batch, quota reserve depleted",
			"remaining", s.quota.Remaining())
		return DiscoveryBatchResult{Skipped: 1}, nil
	}
	batchSize := s.quota.SafeBatchSize(discoveryUnitCost, s.quota.minReserve, limit)
	if batchSize == 0 {
		s.logger.WarnContext(ctx, "skipping video discovery batch, no safe batch budget",
			"remaining", s.quota.Remaining())
		return DiscoveryBatchResult{Skipped: 1}, nil
	}

	var (
		pending []game.Game
		err     error
	)
	if date != nil {
		pending, err = s.games.ListFinishedWithoutVideoOnDate(ctx, *date, batchSize)
	} else {
		pending, err = s.games.ListFinishedWithoutVideo(ctx, batchSize)
	}
	if err != nil {
		return DiscoveryBatchResult{}, fmt.Errorf("list games pending video: %w", err)
	}

	result := DiscoveryBatchResult{}
	for _, item := range pending {
		if err := s.quota.Pace(ctx); err != nil {
			return result, fmt.Errorf("pacing interrupted: %w", err)
		}

		outcome, err := s.DiscoverVideoForGame(ctx, item.ID)
		result.Processed++
		switch {
		case err == nil:
			result.Matched++
		case errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotEligible):
			outcome.Skipped = true
			outcome.Error = err.Error()
			result.Skipped++
		default:
			outcome.Error = err.Error()
			result.Failed++
			s.logger.WarnContext(ctx, "video discovery failed for game",
				"gameID", item.ID, "error", err.Error())
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.logger.InfoContext(ctx, "video discovery batch completed",
		"processed", result.Processed,
		"matched", result.Matched,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}

// UpdateStats refreshes the stored view count for one video.
func (s *VideoDiscoveryService) UpdateStats(ctx context.Context, videoID int64) error {
	ctx, span := startUsecaseSpan(ctx, "VideoDiscoveryService.UpdateStats",
		oteltrace.WithAttributes(attribute.Int64("video.id", videoID)))
	defer span.End()

	item, found, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("lookup video: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: video %d", ErrNotFound, videoID)
	}

	stats, err := s.provider.FetchStats(ctx, item.ExternalVideoID)
	if err != nil {
		return fmt.Errorf("fetch video stats: %w", err)
	}
	if err := s.videos.UpdateViewCount(ctx, item.ID, stats.ViewCount); err != nil {
		return fmt.Errorf("store view count: %w", err)
	}
	return nil
}

// RefreshAllStats re-pulls view counts for the stalest stored videos, paced
// and budget-aware like discovery.
func (s *VideoDiscoveryService) RefreshAllStats(ctx context.Context, limit int) (DiscoveryBatchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "VideoDiscoveryService.RefreshAllStats")
	defer span.End()

	if limit <= 0 {
		return DiscoveryBatchResult{}, fmt.Errorf("%w: refresh limit must be positive, got %d", ErrInvalidInput, limit)
	}
	batchSize := s.quota.SafeBatchSize(statsUnitCost, s.quota.minReserve, limit)
	if batchSize == 0 {
		return DiscoveryBatchResult{Skipped: 1}, nil
	}

	items, err := s.videos.ListForStatsRefresh(ctx, batchSize)
	if err != nil {
		return DiscoveryBatchResult{}, fmt.Errorf("list videos for refresh: %w", err)
	}

	result := DiscoveryBatchResult{}
	for _, item := range items {
		if err := s.quota.Pace(ctx); err != nil {
			return result, fmt.Errorf("pacing interrupted: %w", err)
		}
		result.Processed++
		if err := s.UpdateStats(ctx, item.ID); err != nil {
			result.Failed++
			result.Outcomes = append(result.Outcomes, DiscoveryOutcome{
				GameID: item.GameID, VideoID: item.ID, Error: err.Error(),
			})
			continue
		}
		result.Matched++
	}

	s.logger.InfoContext(ctx, "video stats refresh completed",
		"processed", result.Processed, "refreshed", result.Matched, "failed", result.Failed)
	return result, nil
}
