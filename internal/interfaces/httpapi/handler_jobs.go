package httpapi

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/liamjsc/courtside/internal/usecase"
)

const defaultHistoryLimit = 20

var jobNameUnsafeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobs")
	defer span.End()

	type jobDTO struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
	}

	jobs := h.schedulerService.Jobs()
	out := make([]jobDTO, 0, len(jobs))
	for name, enabled := range jobs {
		out = append(out, jobDTO{Name: name, Enabled: enabled})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunJob")
	defer span.End()

	name, err := parseJobName(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	run, err := h.schedulerService.RunNow(ctx, name)
	if err != nil {
		h.logger.WarnContext(ctx, "manual job trigger failed", "job", name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, run)
}

func (h *Handler) JobHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JobHistory")
	defer span.End()

	name, err := parseJobName(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: invalid history limit %q", usecase.ErrInvalidInput, raw))
			return
		}
		limit = parsed
	}

	runs, err := h.schedulerService.History(ctx, name, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runs)
}

func parseJobName(r *http.Request) (string, error) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" || jobNameUnsafeRegex.MatchString(name) {
		return "", fmt.Errorf("%w: invalid job name %q", usecase.ErrInvalidInput, name)
	}
	return name, nil
}
