package v1endpoints

import (
	"errors"
	"net/http"
	"time"

	"f1-pitwall/internal/live"
)

type Snapshotter interface {
	Snapshot(now time.Time) (live.Snapshot, error)
}

// LiveHandler returns the live timing snapshot of the current session.
func LiveHandler(w http.ResponseWriter, r *http.Request, feed Snapshotter) {
	start := time.Now()
	defer observe("live", start)

	snap, err := feed.Snapshot(start)
	if errors.Is(err, live.ErrNoSession) {
		writeError(w, "live", http.StatusNotFound, "no_session", err.Error())
		return
	}
	if err != nil {
		writeUpstreamError(w, r, "live", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
