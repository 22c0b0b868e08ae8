package v1endpoints

import (
	"net/http"
	"strconv"
	"time"

	"f1-pitwall/internal/telemetry"
)

const (
	maxPathLength = 64 << 10
	maxPositions  = 100
)

type trackPositionResponse struct {
	Length    float64                   `json:"length"`
	Positions []telemetry.TrackPosition `json:"positions"`
}

// TrackPositionHandler places lap fractions on an SVG track path.
// GET ?path=<svg d>&pos=0.25&pos=0.5
func TrackPositionHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer observe("track_position", start)

	query := r.URL.Query()
	d := query.Get("path")
	if d == "" || len(d) > maxPathLength {
		writeError(w, "track_position", http.StatusBadRequest, "bad_path", "missing or oversized 'path' query parameter")
		return
	}
	rawPositions := query["pos"]
	if len(rawPositions) == 0 || len(rawPositions) > maxPositions {
		writeError(w, "track_position", http.StatusBadRequest, "bad_pos", "between 1 and 100 'pos' values are required")
		return
	}

	positions := make([]float64, 0, len(rawPositions))
	for _, raw := range rawPositions {
		pos, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, "track_position", http.StatusBadRequest, "bad_pos", "invalid pos "+strconv.Quote(raw))
			return
		}
		positions = append(positions, pos)
	}

	path, err := telemetry.ParsePath(d)
	if err != nil {
		writeError(w, "track_position", http.StatusBadRequest, "bad_path", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, trackPositionResponse{Length: path.Length(), Positions: path.Positions(positions)})
}
