// Package app wires configuration, storage, external clients and services
// into a runnable process.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/liamjsc/courtside/external/balldontlie"
	"github.com/liamjsc/courtside/external/youtube"
	"github.com/liamjsc/courtside/internal/config"
	"github.com/liamjsc/courtside/internal/infrastructure/repository/memory"
	"github.com/liamjsc/courtside/internal/infrastructure/repository/postgres"
	"github.com/liamjsc/courtside/internal/interfaces/httpapi"
	"github.com/liamjsc/courtside/internal/platform/logging"
	"github.com/liamjsc/courtside/internal/platform/resilience"
	"github.com/liamjsc/courtside/internal/usecase"
)

type App struct {
	Server    *http.Server
	Scheduler *usecase.SchedulerService
	DB        *sqlx.DB

	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Connect("postgres", cfg.DBURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName("courtside"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	teamRepo := postgres.NewTeamRepository(db)
	gameRepo := postgres.NewGameRepository(db)
	videoRepo := postgres.NewVideoRepository(db)
	jobHistory := memory.NewJobRunHistory(cfg.JobHistoryCapacity)

	quota := usecase.NewQuotaTracker(usecase.QuotaTrackerConfig{
		DailyLimit: cfg.QuotaDailyLimit,
		MinReserve: cfg.QuotaMinReserve,
		PaceEvery:  cfg.QuotaPaceEvery,
	})

	scheduleClient := balldontlie.NewClient(balldontlie.ClientConfig{
		BaseURL:       cfg.ScheduleBaseURL,
		APIKey:        cfg.ScheduleAPIKey,
		Timeout:       cfg.ScheduleTimeout,
		MaxAttempts:   cfg.ScheduleMaxAttempts,
		BackoffBase:   cfg.ScheduleBackoffBase,
		MinRequestGap: cfg.ScheduleMinRequestGap,
		Logger:        logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ScheduleCircuitEnabled,
			FailureThreshold: cfg.ScheduleCircuitFailureCount,
			OpenTimeout:      cfg.ScheduleCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ScheduleCircuitHalfOpenMax,
		},
	})

	videoClient := youtube.NewClient(youtube.ClientConfig{
		BaseURL: cfg.VideoBaseURL,
		APIKey:  cfg.VideoAPIKey,
		Timeout: cfg.VideoTimeout,
		Logger:  logger,
		Costs:   quota,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.VideoCircuitEnabled,
			FailureThreshold: cfg.VideoCircuitFailureCount,
			OpenTimeout:      cfg.VideoCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.VideoCircuitHalfOpenMax,
		},
	})

	syncService := usecase.NewSyncService(scheduleClient, teamRepo, gameRepo, logger)
	discoveryService := usecase.NewVideoDiscoveryService(usecase.VideoDiscoveryConfig{
		Provider:   videoClient,
		Games:      gameRepo,
		Teams:      teamRepo,
		Videos:     videoRepo,
		Quota:      quota,
		IsVerified: verifiedChannelFunc(cfg.VideoVerifiedChannelIDs, cfg.VideoVerifiedChannels),
		Logger:     logger,
		SearchTopK: cfg.VideoSearchTopK,
	})

	scheduler := usecase.NewSchedulerService(jobHistory, logger)
	if err := registerJobs(cfg, scheduler, syncService, discoveryService); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	handler := httpapi.NewHandler(
		syncService,
		discoveryService,
		scheduler,
		quota,
		teamRepo,
		gameRepo,
		videoRepo,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server:    server,
		Scheduler: scheduler,
		DB:        db,
		logger:    logger,
	}, nil
}

// Start begins scheduled job dispatch. The HTTP server is started by the
// caller so it owns the listen error.
func (a *App) Start() {
	a.Scheduler.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Scheduler.Shutdown(ctx); err != nil {
		return err
	}
	if err := a.Server.Shutdown(ctx); err != nil {
		return err
	}
	return a.DB.Close()
}

// verifiedChannelFunc builds the allow-list predicate: channel ids match
// exactly, channel names case-insensitively.
func verifiedChannelFunc(ids, names []string) usecase.VerifiedChannelFunc {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	nameSet := make(map[string]struct{}, len(names))
	for _, name := range names {
		nameSet[strings.ToLower(name)] = struct{}{}
	}

	return func(channelID, channelName string) bool {
		if _, ok := idSet[channelID]; ok {
			return true
		}
		_, ok := nameSet[strings.ToLower(strings.TrimSpace(channelName))]
		return ok
	}
}

func registerJobs(
	cfg config.Config,
	scheduler *usecase.SchedulerService,
	syncService *usecase.SyncService,
	discoveryService *usecase.VideoDiscoveryService,
) error {
	jobs := []usecase.JobSpec{
		{
			Name:     "sync-today",
			Schedule: cfg.JobSyncTodaySchedule,
			Enabled:  cfg.JobsEnabled,
			Handler: func(ctx context.Context) (map[string]any, error) {
				result, err := syncService.SyncToday(ctx)
				return syncResultPayload(result), err
			},
		},
		{
			Name:     "sync-yesterday",
			Schedule: cfg.JobSyncYesterdaySched,
			Enabled:  cfg.JobsEnabled,
			Handler: func(ctx context.Context) (map[string]any, error) {
				result, err := syncService.SyncYesterday(ctx)
				return syncResultPayload(result), err
			},
		},
		{
			Name:     "sync-upcoming",
			Schedule: cfg.JobSyncUpcomingSched,
			Enabled:  cfg.JobsEnabled,
			Handler: func(ctx context.Context) (map[string]any, error) {
				result, err := syncService.SyncUpcoming(ctx, cfg.JobSyncUpcomingDays)
				return syncResultPayload(result), err
			},
		},
		{
			Name:     "live-scores",
			Schedule: cfg.JobLiveScoresSchedule,
			Enabled:  cfg.JobsEnabled,
			Handler: func(ctx context.Context) (map[string]any, error) {
				result, err := syncService.UpdateLiveScores(ctx)
				return syncResultPayload(result), err
			},
		},
		{
			Name:     "discover-videos",
			Schedule: cfg.JobDiscoverSchedule,
			Enabled:  cfg.JobsEnabled,
			Handler: func(ctx context.Context) (map[string]any, error) {
				result, err := discoveryService.DiscoverForFinishedGames(ctx, cfg.JobDiscoverLimit)
				return discoveryResultPayload(result), err
			},
		},
		{
			Name:     "refresh-video-stats",
			Schedule: cfg.JobStatsRefreshSched,
			Enabled:  cfg.JobsEnabled,
			Handler: func(ctx context.Context) (map[string]any, error) {
				result, err := discoveryService.RefreshAllStats(ctx, cfg.JobStatsRefreshLimit)
				return discoveryResultPayload(result), err
			},
		},
	}

	for _, job := range jobs {
		if err := scheduler.Register(job); err != nil {
			return err
		}
	}
	return nil
}

func syncResultPayload(result usecase.SyncResult) map[string]any {
	payload := map[string]any{
		"added":   result.Added,
		"updated": result.Updated,
	}
	if len(result.Errors) > 0 {
		payload["errors"] = result.Errors
	}
	return payload
}

func discoveryResultPayload(result usecase.DiscoveryBatchResult) map[string]any {
	return map[string]any{
		"processed": result.Processed,
		"matched":   result.Matched,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	}
}
