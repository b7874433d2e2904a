package httpapi

import (
	"context"
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/liamjsc/courtside/internal/domain/game"
	"github.com/liamjsc/courtside/internal/domain/team"
	"github.com/liamjsc/courtside/internal/domain/video"
	"github.com/liamjsc/courtside/internal/platform/logging"
	"github.com/liamjsc/courtside/internal/usecase"
)

type Handler struct {
	syncService      *usecase.SyncService
	discoveryService *usecase.VideoDiscoveryService
	schedulerService *usecase.SchedulerService
	quotaTracker     *usecase.QuotaTracker
	teamRepo         team.Repository
	gameRepo         game.Repository
	videoRepo        video.Repository
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	syncService *usecase.SyncService,
	discoveryService *usecase.VideoDiscoveryService,
	schedulerService *usecase.SchedulerService,
	quotaTracker *usecase.QuotaTracker,
	teamRepo team.Repository,
	gameRepo game.Repository,
	videoRepo video.Repository,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		syncService:      syncService,
		discoveryService: discoveryService,
		schedulerService: schedulerService,
		quotaTracker:     quotaTracker,
		teamRepo:         teamRepo,
		gameRepo:         gameRepo,
		videoRepo:        videoRepo,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeRequest(r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
