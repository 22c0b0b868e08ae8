package v1endpoints

import (
	"net/http"
	"strconv"
	"time"

	natscore "f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/scheduler"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/tasks"
)

type refreshResponse struct {
	Year  int    `json:"year"`
	Force bool   `json:"force"`
	RunAt string `json:"run_at,omitempty"`
}

// RefreshSeasonHandler queues a processSeason task. ?force=false keeps the
// stored documents; ?delay=10m hands the task to the scheduler instead.
func RefreshSeasonHandler(w http.ResponseWriter, r *http.Request, js natscore.Publisher) {
	start := time.Now()
	defer observe("admin_refresh", start)

	year, err := parseYear(r)
	if err != nil {
		writeError(w, "admin_refresh", http.StatusBadRequest, "bad_year", err.Error())
		return
	}

	force := true
	if raw := r.URL.Query().Get("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, "admin_refresh", http.StatusBadRequest, "bad_force", "invalid force value")
			return
		}
	}

	var delay time.Duration
	if raw := r.URL.Query().Get("delay"); raw != "" {
		delay, err = time.ParseDuration(raw)
		if err != nil || delay <= 0 {
			writeError(w, "admin_refresh", http.StatusBadRequest, "bad_delay", "invalid delay value")
			return
		}
	}

	resp := refreshResponse{Year: year, Force: force}
	if delay > 0 {
		runAt := start.Add(delay)
		err = scheduler.PublishScheduleRequestWithData(r.Context(), js, tasks.TaskTypeProcessSeason, runAt.UnixMilli(), tasks.ProcessSeasonData{Year: year, Force: force})
		resp.RunAt = runAt.UTC().Format(time.RFC3339)
	} else {
		err = scheduler.PublishProcessSeason(r.Context(), js, year, force)
	}
	if err != nil {
		logs.Error("failed to queue season refresh", "year", year, "error", err)
		writeError(w, "admin_refresh", http.StatusServiceUnavailable, "publish", "could not queue refresh")
		return
	}

	logs.Info("season refresh queued", "year", year, "force", force, "delay", delay.String())
	writeJSON(w, http.StatusAccepted, resp)
}
