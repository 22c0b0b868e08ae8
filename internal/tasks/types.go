package tasks

// Task type identifiers for scheduler registration and NATS messaging
const (
	// TaskTypeProcessSeason rebuilds the processed documents of one season
	TaskTypeProcessSeason = "processSeason"
)

// ProcessSeasonData is the payload of a processSeason task.
type ProcessSeasonData struct {
	Year  int  `json:"year"`
	Force bool `json:"force"`
}
