package store

import (
	"context"
	"encoding/json"
	"time"
)

// Setting keys.
const (
	KeyUserID       = "user_id"
	KeyLastTopology = "last_topology"
	KeyHistoryID    = "history_id"
)

// SettingsRepo persists small key/value settings across runs.
type SettingsRepo interface {
	// Get returns the stored value, or "" if the key is unset.
	Get(ctx context.Context, key string) (string, error)

	// Put stores or replaces a value.
	Put(ctx context.Context, key, value string) error
}

// Event kinds.
const (
	KindAPIRequest = "api_request"
	KindQuizAnswer = "quiz_answer"
)

// Event is one row of the append-only event log.
type Event struct {
	Seq       int64
	ID        string
	Timestamp time.Time
	Kind      string
	Payload   json.RawMessage
}

// APIRequestEventData captures one API exchange.
type APIRequestEventData struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	RequestID    string `json:"request_id"`
	StatusCode   int    `json:"status_code"`
	LatencyMs    int64  `json:"latency_ms"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// QuizAnswerEventData captures one graded answer.
type QuizAnswerEventData struct {
	TopologyID         string `json:"topology_id"`
	NodeID             string `json:"node_id"`
	QuestionID         string `json:"question_id"`
	SessionID          string `json:"session_id"`
	Correct            bool   `json:"correct"`
	Mastered           bool   `json:"mastered"`
	ConsecutiveCorrect int    `json:"consecutive_correct"`
}

// EventRepo provides append access to the event log. It also satisfies the
// API client's Recorder interface, so a repo can be attached to a Client
// directly.
type EventRepo interface {
	// AppendAPIRequest records an API exchange.
	AppendAPIRequest(ctx context.Context, data APIRequestEventData) error

	// RecordAPIRequest is the api.Recorder hook; recording failures are
	// swallowed so the log never breaks a live request.
	RecordAPIRequest(ctx context.Context, method, path, requestID string, status int, latency time.Duration, err error)

	// AppendQuizAnswer records a graded answer.
	AppendQuizAnswer(ctx context.Context, data QuizAnswerEventData) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)
}
