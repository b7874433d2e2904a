// Package youtube talks to the upstream video search source. Every upstream
// call reports its quota cost to the injected recorder: 100 units per search
// plus 1 unit per id in a details lookup.
package youtube

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

	"github.com/liamjsc/courtside/internal/platform/logging"
	"github.com/liamjsc/courtside/internal/platform/resilience"
	"github.com/liamjsc/courtside/internal/usecase"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"

	searchCostUnits      = 100
	detailsCostPerVideo  = 1
	defaultMaxResults    = 5
	maxResponseBytes     = 4 << 20
	watchURLPrefix       = "https://www.youtube.com/watch?v="
	searchVideoDuration  = "medium"
	searchOrderRelevance = "relevance"
)

var errVideoTransient = crerr.New("video provider transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Costs          usecase.CostRecorder
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	costs          usecase.CostRecorder
	flight         resilience.SingleFlight
}

type noopCosts struct{}

func (noopCosts) Spend(int) {}

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
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	costs := cfg.Costs
	if costs == nil {
		costs = noopCosts{}
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
		costs:          costs,
	}
}

// Search runs a relevance-ordered search filtered to embeddable,
// medium-length videos and hydrates each hit with detail fields. Concurrent
// identical queries share one upstream round trip.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]usecase.VideoCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", usecase.ErrInvalidInput)
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	key := "search:" + strconv.Itoa(maxResults) + ":" + query
	out, err, _ := c.flight.Do(key, func() (any, error) {
		return c.searchOnce(ctx, query, maxResults)
	})
	if err != nil {
		return nil, err
	}
	candidates, ok := out.([]usecase.VideoCandidate)
	if !ok {
		return nil, fmt.Errorf("unexpected search payload type %T", out)
	}
	return candidates, nil
}

func (c *Client) searchOnce(ctx context.Context, query string, maxResults int) ([]usecase.VideoCandidate, error) {
	values := url.Values{}
	values.Set("part", "snippet")
	values.Set("q", query)
	values.Set("type", "video")
	values.Set("videoEmbeddable", "true")
	values.Set("videoDuration", searchVideoDuration)
	values.Set("order", searchOrderRelevance)
	values.Set("maxResults", strconv.Itoa(maxResults))

	var envelope searchEnvelope
	if err := c.doJSON(ctx, "/search", values, searchCostUnits, &envelope); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(envelope.Items))
	for _, item := range envelope.Items {
		id := strings.TrimSpace(item.ID.VideoID)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []usecase.VideoCandidate{}, nil
	}

	details, err := c.fetchDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Preserve upstream relevance order; detail rows come back unordered.
	out := make([]usecase.VideoCandidate, 0, len(ids))
	for _, id := range ids {
		candidate, ok := details[id]
		if !ok {
			continue
		}
		out = append(out, candidate)
	}
	return out, nil
}

func (c *Client) fetchDetails(ctx context.Context, ids []string) (map[string]usecase.VideoCandidate, error) {
	values := url.Values{}
	values.Set("part", "snippet,contentDetails,statistics")
	values.Set("id", strings.Join(ids, ","))

	var envelope videosEnvelope
	if err := c.doJSON(ctx, "/videos", values, detailsCostPerVideo*len(ids), &envelope); err != nil {
		return nil, err
	}

	out := make(map[string]usecase.VideoCandidate, len(envelope.Items))
	for _, item := range envelope.Items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		out[id] = mapVideoItem(id, item)
	}
	return out, nil
}

// FetchStats re-queries only the popularity counters for one video.
func (c *Client) FetchStats(ctx context.Context, externalVideoID string) (usecase.VideoStats, error) {
	externalVideoID = strings.TrimSpace(externalVideoID)
	if externalVideoID == "" {
		return usecase.VideoStats{}, fmt.Errorf("%w: video id is required", usecase.ErrInvalidInput)
	}

	values := url.Values{}
	values.Set("part", "statistics")
	values.Set("id", externalVideoID)

	var envelope videosEnvelope
	if err := c.doJSON(ctx, "/videos", values, detailsCostPerVideo, &envelope); err != nil {
		return usecase.VideoStats{}, err
	}
	if len(envelope.Items) == 0 {
		return usecase.VideoStats{}, fmt.Errorf("%w: video %s", usecase.ErrNotFound, externalVideoID)
	}

	return usecase.VideoStats{
		ExternalVideoID: externalVideoID,
		ViewCount:       parseCount(envelope.Items[0].Statistics.ViewCount),
	}, nil
}

// doJSON performs one GET and charges its quota cost on any round trip that
// reached upstream, success or not: the provider bills failed calls too.
func (c *Client) doJSON(ctx context.Context, path string, values url.Values, costUnits int, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "video circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: video provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values.Set("key", c.apiKey)
	fullURL := c.baseURL + path + "?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordOutcome(false)
		return crerr.Mark(fmt.Errorf("%w: send request: %s", usecase.ErrUpstreamError, redactAPIKey(err.Error(), c.apiKey)), errVideoTransient)
	}
	c.costs.Spend(costUnits)

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		c.recordOutcome(false)
		return crerr.Mark(fmt.Errorf("%w: read response body: %v", usecase.ErrUpstreamError, readErr), errVideoTransient)
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		c.recordOutcome(false)
		return fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrUpstreamRateLimited, resp.StatusCode, abbreviateBody(raw))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordOutcome(false)
		return fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrUpstreamError, resp.StatusCode, abbreviateBody(raw))
	}
	c.recordOutcome(true)

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode video payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (c *Client) recordOutcome(success bool) {
	if !c.circuitEnabled {
		return
	}
	if success {
		c.breaker.RecordSuccess()
		return
	}
	c.breaker.RecordFailure()
}

func mapVideoItem(id string, item videoItem) usecase.VideoCandidate {
	published, _ := time.Parse(time.RFC3339, strings.TrimSpace(item.Snippet.PublishedAt))

	thumbnailURL := item.Snippet.Thumbnails.Medium.URL
	if thumbnailURL == "" {
		thumbnailURL = item.Snippet.Thumbnails.High.URL
	}
	if thumbnailURL == "" {
		thumbnailURL = item.Snippet.Thumbnails.Default.URL
	}

	return usecase.VideoCandidate{
		ExternalVideoID: id,
		Title:           strings.TrimSpace(item.Snippet.Title),
		ChannelID:       strings.TrimSpace(item.Snippet.ChannelID),
		ChannelName:     strings.TrimSpace(item.Snippet.ChannelTitle),
		Duration:        strings.TrimSpace(item.ContentDetails.Duration),
		DurationSeconds: ParseDuration(item.ContentDetails.Duration),
		ThumbnailURL:    strings.TrimSpace(thumbnailURL),
		PublishedAt:     published,
		ViewCount:       parseCount(item.Statistics.ViewCount),
		WatchURL:        watchURLPrefix + id,
	}
}

func parseCount(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &value
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
