package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/liamjsc/courtside/internal/usecase"
)

type discoverVideosRequest struct {
	Limit int `json:"limit" validate:"required,min=1,max=100"`
}

func (h *Handler) DiscoverVideos(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DiscoverVideos")
	defer span.End()

	var req discoverVideosRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.discoveryService.DiscoverForFinishedGames(ctx, req.Limit)
	if err != nil {
		h.logger.WarnContext(ctx, "video discovery batch failed", "limit", req.Limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) DiscoverGameVideo(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DiscoverGameVideo")
	defer span.End()

	gameID, err := parseGameID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	outcome, err := h.discoveryService.DiscoverVideoForGame(ctx, gameID)
	if err != nil {
		h.logger.WarnContext(ctx, "video discovery failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if outcome.Existing {
		status = http.StatusOK
	}
	writeSuccess(ctx, w, status, outcome)
}

func (h *Handler) GetGameVideo(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGameVideo")
	defer span.End()

	gameID, err := parseGameID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, found, err := h.videoRepo.GetByGameID(ctx, gameID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: no video for game %d", usecase.ErrNotFound, gameID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, videoToDTO(item))
}

func parseGameID(r *http.Request) (int64, error) {
	raw := r.PathValue("gameID")
	gameID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || gameID <= 0 {
		return 0, fmt.Errorf("%w: invalid game id %q", usecase.ErrInvalidInput, raw)
	}
	return gameID, nil
}
