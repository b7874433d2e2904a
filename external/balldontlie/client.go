// Package balldontlie talks to the upstream schedule source. It owns
// pagination, proactive pacing between page fetches and the reactive
// backoff ladder for rate-limit responses.
package balldontlie

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/liamjsc/courtside/internal/domain/game"
	"github.com/liamjsc/courtside/internal/platform/logging"
	"github.com/liamjsc/courtside/internal/platform/resilience"
	"github.com/liamjsc/courtside/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.balldontlie.io/v1"
	defaultPerPage     = 100
	defaultMaxAttempts = 5
	defaultBackoffBase = 2 * time.Second
	maxResponseBytes   = 6 << 20
)

var errScheduleTransient = crerr.New("schedule provider transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	MinRequestGap  time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxAttempts    int
	backoffBase    time.Duration
	pacer          *rate.Limiter
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	sleep          func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}

	// Proactive pacing between successive page fetches, independent of the
	// reactive backoff ladder.
	gap := cfg.MinRequestGap
	if gap <= 0 {
		gap = time.Second
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		maxAttempts:    maxAttempts,
		backoffBase:    backoffBase,
		pacer:          rate.NewLimiter(rate.Every(gap), 1),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
		sleep:          sleepContext,
	}
}

// FetchRange returns every event record whose date falls inside [start, end],
// following the provider's cursor until exhausted.
func (c *Client) FetchRange(ctx context.Context, start, end time.Time) ([]usecase.ExternalGame, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: date range is required", usecase.ErrInvalidInput)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end %s is before start %s", usecase.ErrInvalidInput, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	out := make([]usecase.ExternalGame, 0, 32)
	var cursor *int64
	for {
		envelope, err := c.fetchPage(ctx, start, end, cursor)
		if err != nil {
			return nil, err
		}

		for _, record := range envelope.Data {
			mapped, err := mapGameRecord(record)
			if err != nil {
				c.logger.WarnContext(ctx, "skip malformed schedule record", "external_id", record.ID, "error", err)
				continue
			}
			out = append(out, mapped)
		}

		if envelope.Meta.NextCursor == nil {
			return out, nil
		}
		cursor = envelope.Meta.NextCursor
	}
}

func (c *Client) fetchPage(ctx context.Context, start, end time.Time, cursor *int64) (gamesEnvelope, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "schedule circuit breaker rejected request", "state", c.breaker.State())
			return gamesEnvelope{}, fmt.Errorf("%w: schedule provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return gamesEnvelope{}, err
	}

	values := url.Values{}
	values.Set("start_date", start.Format("2006-01-02"))
	values.Set("end_date", end.Format("2006-01-02"))
	values.Set("per_page", strconv.Itoa(defaultPerPage))
	if cursor != nil {
		values.Set("cursor", strconv.FormatInt(*cursor, 10))
	}
	fullURL := c.baseURL + "/games?" + values.Encode()

	raw, err := c.executeRequest(ctx, fullURL)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errScheduleTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return gamesEnvelope{}, err
	}

	var envelope gamesEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return gamesEnvelope{}, fmt.Errorf("%w: decode schedule payload: %v", usecase.ErrInvalidInput, err)
	}
	return envelope, nil
}

// executeRequest performs one GET with the backoff ladder: a 429 waits
// base, 2*base, 4*base, ... before retrying; every other non-2xx fails
// immediately.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	backoff := c.backoffBase
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, crerr.Mark(fmt.Errorf("%w: send request: %s", usecase.ErrUpstreamError, redactAPIKey(err.Error(), c.apiKey)), errScheduleTransient)
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, crerr.Mark(fmt.Errorf("%w: read response body: %v", usecase.ErrUpstreamError, readErr), errScheduleTransient)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return raw, nil
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrUpstreamError, resp.StatusCode, abbreviateBody(raw))
		}

		if attempt >= c.maxAttempts {
			err := crerr.Mark(
				fmt.Errorf("%w: max retries exceeded after %d attempts", usecase.ErrUpstreamRateLimited, attempt),
				errScheduleTransient,
			)
			c.logger.WarnContext(ctx, "schedule request exhausted retries", "url", fullURL, "attempts", attempt)
			return nil, err
		}

		c.logger.WarnContext(ctx, "schedule provider rate limited, backing off",
			"attempt", attempt,
			"wait", backoff.String(),
		)
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func mapGameRecord(record gameRecord) (usecase.ExternalGame, error) {
	if record.ID <= 0 {
		return usecase.ExternalGame{}, fmt.Errorf("record id is missing")
	}
	date, err := parseProviderDate(record.Date)
	if err != nil {
		return usecase.ExternalGame{}, fmt.Errorf("parse record date %q: %w", record.Date, err)
	}
	if record.HomeTeam.ID <= 0 || record.VisitorTeam.ID <= 0 {
		return usecase.ExternalGame{}, fmt.Errorf("record team sub-records are incomplete")
	}

	status := mapGameStatus(record.Status, record.Period)
	mapped := usecase.ExternalGame{
		ExternalID: record.ID,
		Date:       date,
		StartTime:  strings.TrimSpace(record.Time),
		Status:     status,
		Period:     record.Period,
		HomeTeam:   mapTeamRecord(record.HomeTeam),
		AwayTeam:   mapTeamRecord(record.VisitorTeam),
	}
	if status != game.StatusScheduled {
		home := record.HomeTeamScore
		away := record.VisitorTeamScore
		mapped.HomeScore = &home
		mapped.AwayScore = &away
	}
	return mapped, nil
}

// mapGameStatus folds the provider's free-form status strings into the
// three-state internal enum: a terminal marker wins, then a nonzero period
// means in progress, everything else is still scheduled.
func mapGameStatus(raw string, period int) game.Status {
	status := strings.TrimSpace(raw)
	if strings.Contains(strings.ToLower(status), "final") {
		return game.StatusFinished
	}
	if period > 0 {
		return game.StatusInProgress
	}
	return game.StatusScheduled
}

func mapTeamRecord(record teamRecord) usecase.ExternalTeam {
	return usecase.ExternalTeam{
		ExternalID:   record.ID,
		Abbreviation: strings.TrimSpace(record.Abbreviation),
		ShortName:    strings.TrimSpace(record.Name),
		FullName:     strings.TrimSpace(record.FullName),
		Conference:   strings.TrimSpace(record.Conference),
		Division:     strings.TrimSpace(record.Division),
	}
}

func parseProviderDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC().Truncate(24 * time.Hour), nil
}

func redactAPIKey(text, key string) string {
	text = strings.TrimSpace(text)
	if key == "" || text == "" {
		return text
	}
	return strings.ReplaceAll(text, key, "REDACTED")
}

func abbreviateBody(raw []byte) string {
	const maxLen = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}
