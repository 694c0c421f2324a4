package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder receives one entry per API exchange. The local store implements
// it; a nil recorder disables recording.
type Recorder interface {
	RecordAPIRequest(ctx context.Context, method, path, requestID string, status int, latency time.Duration, err error)
}

// Client talks to the knowledge-graph service. All methods decode the server
// envelope exactly once and return either a typed value or a *TransportError /
// *ProtocolError.
type Client struct {
	cfg      Config
	http     *http.Client
	upload   *http.Client
	log      *zap.Logger
	recorder Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
		c.upload = h
	}
}

// WithLogger attaches a debug logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRecorder attaches an API event recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a Client for the configured server.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		upload: &http.Client{Timeout: cfg.UploadTimeout},
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured server root.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/")
}

// envelope is the common wrapper around every response body. The quiz
// endpoints report "status", the history endpoints report "success".
type envelope struct {
	Status  string `json:"status"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func (e envelope) failed() bool {
	if e.Success != nil {
		return !*e.Success
	}
	return e.Status != "success" && e.Status != "ok"
}

// do performs one exchange and decodes the body into out after the envelope
// check. A nil out skips the second decode.
func (c *Client) do(ctx context.Context, client *http.Client, op, method, path string, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.record(ctx, method, path, requestID, 0, latency, err)
		c.log.Debug("request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.record(ctx, method, path, requestID, resp.StatusCode, latency, nil)
	c.log.Debug("request done",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", latency))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if env.failed() {
		return &ProtocolError{Op: op, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
		}
	}
	return nil
}

func (c *Client) record(ctx context.Context, method, path, requestID string, status int, latency time.Duration, err error) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordAPIRequest(ctx, method, path, requestID, status, latency, err)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, c.http, op, http.MethodGet, path, "", nil, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return c.do(ctx, c.http, op, http.MethodPost, path, "application/json", bytes.NewReader(payload), out)
}

// Generate uploads a document and starts graph generation. The returned
// topology id is the handle for all later calls.
func (c *Client) Generate(ctx context.Context, filename string, doc io.Reader, maxNodes int) (*GenerateAck, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, &TransportError{Op: "generate", Err: err}
	}
	if _, err := io.Copy(part, doc); err != nil {
		return nil, &TransportError{Op: "generate", Err: err}
	}
	if maxNodes > 0 {
		if err := w.WriteField("max_nodes", strconv.Itoa(maxNodes)); err != nil {
			return nil, &TransportError{Op: "generate", Err: err}
		}
	}
	if err := w.Close(); err != nil {
		return nil, &TransportError{Op: "generate", Err: err}
	}

	var ack GenerateAck
	if err := c.do(ctx, c.upload, "generate", http.MethodPost, "/api/generate", w.FormDataContentType(), &buf, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Topology fetches the current state of a topology. Unlike the other
// endpoints, a non-success status here is domain data (processing/error), so
// only transport-level problems become errors.
func (c *Client) Topology(ctx context.Context, topologyID string) (*TopologyStatus, error) {
	op := "topology"
	path := "/api/topology/" + url.PathEscape(topologyID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+path, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		c.record(ctx, http.MethodGet, path, requestID, 0, latency, err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.record(ctx, http.MethodGet, path, requestID, resp.StatusCode, latency, nil)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	var status TopologyStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return &status, nil
}

// Regenerate rebuilds the topology's graph with a new node cap.
func (c *Client) Regenerate(ctx context.Context, topologyID string, maxNodes int) (*GraphPayload, error) {
	var payload GraphPayload
	body := map[string]int{"max_nodes": maxNodes}
	path := "/api/topology/" + url.PathEscape(topologyID) + "/regenerate"
	if err := c.postJSON(ctx, "regenerate", path, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Question fetches the next question for a node. A non-empty sessionID
// continues the existing quiz session; empty starts a fresh one and the
// server allocates an id.
func (c *Client) Question(ctx context.Context, topologyID, nodeID, sessionID string) (*QuestionReply, error) {
	path := "/api/topology/" + url.PathEscape(topologyID) + "/node/" + url.PathEscape(nodeID) + "/question"
	if sessionID != "" {
		path += "?session_id=" + url.QueryEscape(sessionID)
	}

	var wire struct {
		Mastered bool `json:"mastered"`
		Data     struct {
			Question   string `json:"question"`
			QuestionID string `json:"question_id"`
			SessionID  string `json:"session_id"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "question", path, &wire); err != nil {
		return nil, err
	}
	return &QuestionReply{
		Mastered:   wire.Mastered,
		Question:   wire.Data.Question,
		QuestionID: wire.Data.QuestionID,
		SessionID:  wire.Data.SessionID,
	}, nil
}

// SubmitAnswer posts an answer for grading and returns the verdict.
func (c *Client) SubmitAnswer(ctx context.Context, topologyID, questionID string, sub AnswerSubmission) (*Verdict, error) {
	path := "/api/topology/" + url.PathEscape(topologyID) + "/question/" + url.PathEscape(questionID) + "/answer"

	var wire struct {
		Data Verdict `json:"data"`
	}
	if err := c.postJSON(ctx, "answer", path, sub, &wire); err != nil {
		return nil, err
	}
	verdict := wire.Data
	return &verdict, nil
}

// HistoryList returns saved snapshots, newest first.
func (c *Client) HistoryList(ctx context.Context) ([]HistoryItem, error) {
	var wire struct {
		Records []HistoryItem `json:"history_records"`
	}
	if err := c.getJSON(ctx, "history list", "/api/history/list", &wire); err != nil {
		return nil, err
	}
	return wire.Records, nil
}

// HistoryRecord fetches one saved snapshot.
func (c *Client) HistoryRecord(ctx context.Context, id string) (*HistoryRecord, error) {
	var wire struct {
		Record *HistoryRecord `json:"history_record"`
	}
	if err := c.getJSON(ctx, "history record", "/api/history/"+url.PathEscape(id), &wire); err != nil {
		return nil, err
	}
	if wire.Record == nil {
		return nil, &ProtocolError{Op: "history record", Message: "record missing from response"}
	}
	return wire.Record, nil
}

// HistorySave stores or updates a snapshot.
func (c *Client) HistorySave(ctx context.Context, req SaveRequest) (*SaveAck, error) {
	var ack SaveAck
	if err := c.postJSON(ctx, "history save", "/api/history/save", req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// HistoryDelete removes a saved snapshot.
func (c *Client) HistoryDelete(ctx context.Context, id string) error {
	path := "/api/history/" + url.PathEscape(id) + "/delete"
	return c.do(ctx, c.http, "history delete", http.MethodPost, path, "", nil, nil)
}
