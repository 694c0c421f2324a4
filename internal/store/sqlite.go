package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type settingsRepo struct {
	db *sql.DB
}

func (r *settingsRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (r *settingsRepo) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("put setting %q: %w", key, err)
	}
	return nil
}

type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) append(ctx context.Context, kind string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO events (id, timestamp, kind, payload) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), time.Now().UTC().Format(time.RFC3339Nano), kind, string(payload))
	if err != nil {
		return fmt.Errorf("append %s event: %w", kind, err)
	}
	return nil
}

func (r *eventRepo) AppendAPIRequest(ctx context.Context, data APIRequestEventData) error {
	return r.append(ctx, KindAPIRequest, data)
}

func (r *eventRepo) AppendQuizAnswer(ctx context.Context, data QuizAnswerEventData) error {
	return r.append(ctx, KindQuizAnswer, data)
}

func (r *eventRepo) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, id, timestamp, kind, payload FROM events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev      Event
			ts      string
			payload []byte
		)
		if err := rows.Scan(&ev.Seq, &ev.ID, &ts, &ev.Kind, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Payload = json.RawMessage(payload)
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecordAPIRequest implements the API client's recorder hook on top of the
// event log. Failures to record are swallowed: the log must never break a
// live request.
func (r *eventRepo) RecordAPIRequest(ctx context.Context, method, path, requestID string, status int, latency time.Duration, reqErr error) {
	data := APIRequestEventData{
		Method:     method,
		Path:       path,
		RequestID:  requestID,
		StatusCode: status,
		LatencyMs:  latency.Milliseconds(),
	}
	if reqErr != nil {
		data.ErrorMessage = reqErr.Error()
	}
	_ = r.append(ctx, KindAPIRequest, data)
}
