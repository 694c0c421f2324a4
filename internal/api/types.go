package api

import "encoding/json"

// Topology status values reported by the progress endpoint.
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusError      = "error"
)

// GenerateAck acknowledges a generation request; the graph itself arrives
// later via the topology progress endpoint.
type GenerateAck struct {
	TopologyID string `json:"topology_id"`
	Message    string `json:"message"`
}

// TopologyStatus is one progress snapshot for a generating topology. Data is
// left raw for graph.Normalize; it is only present once Status is success.
type TopologyStatus struct {
	Status    string          `json:"status"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	NodeCount int             `json:"node_count"`
	EdgeCount int             `json:"edge_count"`
}

// GraphPayload is a completed graph with its counts, as returned by
// regeneration.
type GraphPayload struct {
	Data      json.RawMessage `json:"data"`
	NodeCount int             `json:"node_count"`
	EdgeCount int             `json:"edge_count"`
	Message   string          `json:"message"`
}

// QuestionReply is the response to a question fetch. When Mastered is true
// the node needs no further quizzing and the question fields are empty.
type QuestionReply struct {
	Mastered   bool
	Question   string
	QuestionID string
	SessionID  string
}

// AnswerSubmission is the body of an answer post.
type AnswerSubmission struct {
	Answer    string `json:"answer"`
	NodeID    string `json:"node_id"`
	SessionID string `json:"session_id"`
}

// NextQuestion is an optional follow-up question delivered inline with a
// verdict, saving the client a second fetch.
type NextQuestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// Verdict is the server's grading of one submitted answer. The server is the
// sole authority on correctness; the client copies these fields, it never
// grades locally.
type Verdict struct {
	Correct            bool          `json:"correct"`
	Feedback           string        `json:"feedback"`
	ConsecutiveCorrect int           `json:"consecutive_correct"`
	Mastered           bool          `json:"mastered"`
	Next               *NextQuestion `json:"next_question"`
}

// HistoryItem is one row of the saved-snapshot list.
type HistoryItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// HistoryRecord is a stored graph snapshot. Content is raw because saved
// snapshots come in two historical shapes; graph.Normalize accepts both.
type HistoryRecord struct {
	Content  json.RawMessage `json:"content"`
	FilePath string          `json:"file_path"`
}

// SaveRequest stores or updates a snapshot. HistoryID empty means create;
// UserID is echoed back when the server has assigned one before.
type SaveRequest struct {
	Content     json.RawMessage `json:"content"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	HistoryID   string          `json:"history_id,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
}

// SaveAck reports the stored record's identity.
type SaveAck struct {
	HistoryID string `json:"history_id"`
	UserID    string `json:"user_id"`
}
