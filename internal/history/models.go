package history

import "time"

// Dashboard-facing records, shaped from carrier API rows. Nothing here is
// ever stored locally; the carrier remains the source of truth.

type Call struct {
	CallID string `json:"call_id"`

	From string `json:"from"`
	To   string `json:"to"`

	Status    CallStatus `json:"status"`
	Direction string     `json:"direction"`

	DurationSeconds int `json:"duration"`

	StartedAt time.Time `json:"started_at"`
}

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

type Message struct {
	MessageID string `json:"message_id"`

	From string `json:"from"`
	To   string `json:"to"`

	Body      string `json:"body"`
	Status    string `json:"status"`
	Direction string `json:"direction"`

	SentAt time.Time `json:"sent_at"`
}

type Recording struct {
	RecordingID string `json:"recording_id"`
	CallID      string `json:"call_id"`

	DurationSeconds int `json:"duration"`

	// MediaURL points at the carrier-hosted audio.
	MediaURL string `json:"media_url"`

	CreatedAt time.Time `json:"created_at"`
}

// CallsSummary aggregates one page of live call history for the dashboard.
type CallsSummary struct {
	TotalCalls           int `json:"total_calls"`
	CompletedCalls       int `json:"completed_calls"`
	MissedCalls          int `json:"missed_calls"`
	TotalDurationSeconds int `json:"total_duration_seconds"`
}
