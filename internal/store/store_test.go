package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "grasp.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSettings_RoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	settings := st.SettingsRepo()

	got, err := settings.Get(ctx, KeyUserID)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("unset key: got %q, want empty", got)
	}

	if err := settings.Put(ctx, KeyUserID, "u-123"); err != nil {
		t.Fatal(err)
	}
	if err := settings.Put(ctx, KeyUserID, "u-456"); err != nil {
		t.Fatal(err)
	}

	got, err = settings.Get(ctx, KeyUserID)
	if err != nil {
		t.Fatal(err)
	}
	if got != "u-456" {
		t.Errorf("got %q, want overwritten value u-456", got)
	}
}

func TestEvents_AppendAndRecent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	events := st.EventRepo()

	err := events.AppendQuizAnswer(ctx, QuizAnswerEventData{
		TopologyID: "topo",
		NodeID:     "n1",
		QuestionID: "q1",
		SessionID:  "s1",
		Correct:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	events.RecordAPIRequest(ctx, "GET", "/api/history/list", "rid", 200, 15*time.Millisecond, nil)

	recent, err := events.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d events, want 2", len(recent))
	}

	// Newest first.
	if recent[0].Kind != KindAPIRequest || recent[1].Kind != KindQuizAnswer {
		t.Errorf("wrong order: %s then %s", recent[0].Kind, recent[1].Kind)
	}
	if recent[0].ID == "" || recent[0].Timestamp.IsZero() {
		t.Error("event identity fields not populated")
	}
}
