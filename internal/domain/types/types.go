// Package types contains the wire shapes shared by the leaderboard API and its client.
package types

// Entry represents a leaderboard entry.
type Entry struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// SubmitRequest is the body of POST /leaderboard.
type SubmitRequest struct {
	SubmissionID string  `json:"submission_id,omitempty"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	DurationS    float64 `json:"duration_s,omitempty"`
	Clocks       int     `json:"clocks,omitempty"`
}

// Submission statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// SubmitResponse is returned by POST /leaderboard.
type SubmitResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// Stats summarizes the service state for GET /stats.
type Stats struct {
	Entries    int     `json:"entries"`
	QueueDepth int     `json:"queue_depth"`
	Deduped    int64   `json:"deduped"`
	TopScore   float64 `json:"top_score"`
	Viewers    int     `json:"viewers"`
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
