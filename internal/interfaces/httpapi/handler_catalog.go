package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liamjsc/courtside/internal/domain/game"
	"github.com/liamjsc/courtside/internal/domain/team"
	"github.com/liamjsc/courtside/internal/domain/video"
	"github.com/liamjsc/courtside/internal/usecase"
)

type teamDTO struct {
	ID           int64  `json:"id"`
	ShortName    string `json:"shortName"`
	FullName     string `json:"fullName"`
	Abbreviation string `json:"abbreviation"`
	Conference   string `json:"conference,omitempty"`
	Division     string `json:"division,omitempty"`
}

type gameDTO struct {
	ID         int64   `json:"id"`
	Date       string  `json:"date"`
	StartTime  *string `json:"startTime,omitempty"`
	HomeTeamID int64   `json:"homeTeamId"`
	AwayTeamID int64   `json:"awayTeamId"`
	Status     string  `json:"status"`
	HomeScore  *int    `json:"homeScore,omitempty"`
	AwayScore  *int    `json:"awayScore,omitempty"`
}

type videoDTO struct {
	ID              int64  `json:"id"`
	GameID          int64  `json:"gameId"`
	ExternalVideoID string `json:"externalVideoId"`
	Title           string `json:"title"`
	ChannelName     string `json:"channelName"`
	DurationSeconds int    `json:"durationSeconds"`
	ThumbnailURL    string `json:"thumbnailUrl,omitempty"`
	PublishedAt     string `json:"publishedAt"`
	ViewCount       *int64 `json:"viewCount,omitempty"`
	WatchURL        string `json:"watchUrl"`
	Verified        bool   `json:"verified"`
}

func teamToDTO(item team.Team) teamDTO {
	return teamDTO{
		ID:           item.ID,
		ShortName:    item.ShortName,
		FullName:     item.FullName,
		Abbreviation: item.Abbreviation,
		Conference:   item.Conference,
		Division:     item.Division,
	}
}

func gameToDTO(item game.Game) gameDTO {
	return gameDTO{
		ID:         item.ID,
		Date:       item.Date.Format(time.DateOnly),
		StartTime:  item.StartTime,
		HomeTeamID: item.HomeTeamID,
		AwayTeamID: item.AwayTeamID,
		Status:     string(item.Status),
		HomeScore:  item.HomeScore,
		AwayScore:  item.AwayScore,
	}
}

func videoToDTO(item video.Video) videoDTO {
	return videoDTO{
		ID:              item.ID,
		GameID:          item.GameID,
		ExternalVideoID: item.ExternalVideoID,
		Title:           item.Title,
		ChannelName:     item.ChannelName,
		DurationSeconds: item.DurationSeconds,
		ThumbnailURL:    item.ThumbnailURL,
		PublishedAt:     item.PublishedAt.Format(time.RFC3339),
		ViewCount:       item.ViewCount,
		WatchURL:        item.WatchURL,
		Verified:        item.Verified,
	}
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	items, err := h.teamRepo.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]teamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, teamToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	rawDate := strings.TrimSpace(r.URL.Query().Get("date"))
	if rawDate == "" {
		writeError(ctx, w, fmt.Errorf("%w: date query parameter is required", usecase.ErrInvalidInput))
		return
	}
	date, err := time.Parse(time.DateOnly, rawDate)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: date: %v", usecase.ErrInvalidInput, err))
		return
	}

	items, err := h.gameRepo.ListByDate(ctx, date)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]gameDTO, 0, len(items))
	for _, item := range items {
		out = append(out, gameToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetQuota(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetQuota")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.quotaTracker.Snapshot())
}
