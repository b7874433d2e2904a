package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/liamjsc/courtside/internal/usecase"
)

type syncRangeRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) SyncRange(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SyncRange")
	defer span.End()

	var req syncRangeRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	start, err := time.Parse(time.DateOnly, req.Start)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: start date: %v", usecase.ErrInvalidInput, err))
		return
	}
	end, err := time.Parse(time.DateOnly, req.End)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: end date: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.syncService.SyncRange(ctx, start, end)
	if err != nil {
		h.logger.WarnContext(ctx, "sync range failed", "start", req.Start, "end", req.End, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
