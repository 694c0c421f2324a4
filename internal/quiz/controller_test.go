package quiz

import (
	"errors"
	"testing"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/graph"
)

func newTestController() (*Controller, *graph.State) {
	state := graph.NewState()
	state.Replace([]graph.Node{
		{ID: "n1", Label: "Node One", Value: graph.DefaultNodeValue},
		{ID: "n2", Label: "Node Two", Value: graph.DefaultNodeValue},
	}, nil)

	c := NewController(state)
	c.SetTopology("topo")
	return c, state
}

func startSession(t *testing.T, c *Controller) uint64 {
	t.Helper()
	epoch, err := c.Start("n1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return epoch
}

func presentQuestion(t *testing.T, c *Controller, epoch uint64) {
	t.Helper()
	outcome, err := c.ApplyQuestion(epoch, &api.QuestionReply{
		Question:   "What is n1?",
		QuestionID: "q1",
		SessionID:  "s1",
	}, nil)
	if err != nil || outcome != QuestionPresented {
		t.Fatalf("ApplyQuestion: outcome=%v err=%v", outcome, err)
	}
}

func TestStart_FreshCounters(t *testing.T) {
	c, _ := newTestController()
	startSession(t, c)

	s := c.Session()
	if s == nil {
		t.Fatal("no session after Start")
	}
	if s.QuestionsAnswered != 0 || s.ConsecutiveCorrect != 0 || s.Mastered {
		t.Errorf("session not fresh: %+v", s)
	}
	if s.SessionID != "" {
		t.Errorf("session id must stay empty until the server allocates one, got %q", s.SessionID)
	}
	if c.Phase() != PhaseAwaitingQuestion {
		t.Errorf("got phase %v, want AwaitingQuestion", c.Phase())
	}
}

func TestStart_NoTopology(t *testing.T) {
	c := NewController(graph.NewState())
	if _, err := c.Start("n1"); !errors.Is(err, ErrNoTopology) {
		t.Errorf("got %v, want ErrNoTopology", err)
	}
	if c.Session() != nil {
		t.Error("session created without a topology")
	}
}

func TestApplyQuestion_FirstFetchOmitsSessionID(t *testing.T) {
	c, _ := newTestController()
	startSession(t, c)

	_, _, sessionID, ok := c.QuestionParams()
	if !ok {
		t.Fatal("QuestionParams not available")
	}
	if sessionID != "" {
		t.Errorf("first fetch must omit the session id, got %q", sessionID)
	}
}

func TestApplyQuestion_AlreadyMastered(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)

	outcome, err := c.ApplyQuestion(epoch, &api.QuestionReply{Mastered: true}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != QuestionAlreadyMastered {
		t.Errorf("got outcome %v, want QuestionAlreadyMastered", outcome)
	}
	if c.Session() != nil {
		t.Error("session must be cleared when the node is already mastered")
	}
	if id, _ := c.Question(); id != "" {
		t.Error("no question may be displayed for a mastered node")
	}
}

func TestApplyQuestion_MasteredInvalidatesEpoch(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)

	if _, err := c.ApplyQuestion(epoch, &api.QuestionReply{Mastered: true}, nil); err != nil {
		t.Fatalf("ApplyQuestion: %v", err)
	}

	// Responses still in flight under the dead session must be ignored.
	if outcome, _ := c.ApplyQuestion(epoch, &api.QuestionReply{
		Question:   "late",
		QuestionID: "q-late",
		SessionID:  "s-late",
	}, nil); outcome != QuestionStale {
		t.Errorf("late question outcome = %v, want QuestionStale", outcome)
	}
	if outcome, _ := c.ApplyVerdict(epoch, &api.Verdict{Correct: true}, nil); outcome != VerdictStale {
		t.Errorf("late verdict outcome = %v, want VerdictStale", outcome)
	}
}

func TestApplyQuestion_MissingSessionID(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)

	outcome, err := c.ApplyQuestion(epoch, &api.QuestionReply{
		Question:   "q",
		QuestionID: "q1",
	}, nil)
	if outcome != QuestionFailed {
		t.Errorf("got outcome %v, want QuestionFailed", outcome)
	}
	if !errors.Is(err, ErrNoSessionID) {
		t.Errorf("got %v, want ErrNoSessionID", err)
	}
	if c.Session() != nil {
		t.Error("session must be cleared on a protocol violation")
	}
}

func TestApplyQuestion_FetchFailureClearsSession(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)

	fetchErr := &api.TransportError{Op: "question", Err: errors.New("boom")}
	outcome, err := c.ApplyQuestion(epoch, nil, fetchErr)
	if outcome != QuestionFailed || err == nil {
		t.Fatalf("got outcome=%v err=%v", outcome, err)
	}
	if c.Session() != nil || c.Phase() != PhaseIdle {
		t.Error("failure must reset to Idle with no session")
	}
}

func TestApplyQuestion_StaleAfterNewStart(t *testing.T) {
	c, _ := newTestController()
	oldEpoch := startSession(t, c)

	// A new session supersedes the in-flight fetch for n1.
	if _, err := c.Start("n2"); err != nil {
		t.Fatal(err)
	}

	outcome, err := c.ApplyQuestion(oldEpoch, &api.QuestionReply{
		Question:   "stale question",
		QuestionID: "stale-q",
		SessionID:  "stale-s",
	}, nil)
	if outcome != QuestionStale || err != nil {
		t.Fatalf("got outcome=%v err=%v, want QuestionStale", outcome, err)
	}

	s := c.Session()
	if s == nil || s.NodeID != "n2" {
		t.Fatalf("session overwritten by stale response: %+v", s)
	}
	if s.SessionID != "" {
		t.Errorf("stale session id applied: %q", s.SessionID)
	}
}

func TestBeginSubmit_Validation(t *testing.T) {
	c, _ := newTestController()

	// No session at all.
	if _, _, _, err := c.BeginSubmit("answer"); !errors.Is(err, ErrNoSession) {
		t.Errorf("got %v, want ErrNoSession", err)
	}

	epoch := startSession(t, c)
	presentQuestion(t, c, epoch)

	// Blank answer is caught before any network call.
	if _, _, _, err := c.BeginSubmit("   "); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("got %v, want ErrEmptyAnswer", err)
	}
	if c.Phase() != PhaseQuestionShown {
		t.Error("validation failure must not change phase")
	}
}

func TestBeginSubmit_CarriesSessionFields(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)
	presentQuestion(t, c, epoch)

	gotEpoch, questionID, sub, err := c.BeginSubmit("  my answer  ")
	if err != nil {
		t.Fatal(err)
	}
	if gotEpoch != epoch {
		t.Errorf("epoch mismatch: %d vs %d", gotEpoch, epoch)
	}
	if questionID != "q1" {
		t.Errorf("got question id %q, want q1", questionID)
	}
	if sub.Answer != "my answer" || sub.NodeID != "n1" || sub.SessionID != "s1" {
		t.Errorf("submission fields wrong: %+v", sub)
	}
	if c.Phase() != PhaseAwaitingVerdict {
		t.Errorf("got phase %v, want AwaitingVerdict", c.Phase())
	}
}

func TestApplyVerdict_Mastered(t *testing.T) {
	c, state := newTestController()
	epoch := startSession(t, c)
	presentQuestion(t, c, epoch)
	epoch, _, _, err := c.BeginSubmit("answer")
	if err != nil {
		t.Fatal(err)
	}

	outcome, err := c.ApplyVerdict(epoch, &api.Verdict{
		Correct:            true,
		ConsecutiveCorrect: 3,
		Mastered:           true,
	}, nil)
	if err != nil || outcome != VerdictMastered {
		t.Fatalf("got outcome=%v err=%v", outcome, err)
	}

	// Optimistic local node update.
	n, _ := state.Node("n1")
	if !n.Mastered || n.MasteryScore != 10 || n.ConsecutiveCorrect != 3 {
		t.Errorf("node not optimistically updated: %+v", n)
	}

	s := c.Session()
	if s == nil || !s.Mastered || s.QuestionsAnswered != 1 {
		t.Errorf("session counters wrong: %+v", s)
	}

	// The UI clears after the banner delay.
	c.Finish()
	if c.Session() != nil || c.Phase() != PhaseIdle {
		t.Error("Finish must clear the session")
	}
}

func TestApplyVerdict_NextQuestionAdvancesWithoutFetch(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)
	presentQuestion(t, c, epoch)
	epoch, _, _, _ = c.BeginSubmit("answer")

	outcome, err := c.ApplyVerdict(epoch, &api.Verdict{
		Correct:            true,
		ConsecutiveCorrect: 1,
		Next:               &api.NextQuestion{ID: "q2", Question: "Follow-up?"},
	}, nil)
	if err != nil || outcome != VerdictNext {
		t.Fatalf("got outcome=%v err=%v", outcome, err)
	}

	id, text := c.Question()
	if id != "q2" || text != "Follow-up?" {
		t.Errorf("next question not adopted: id=%q text=%q", id, text)
	}
	if c.Phase() != PhaseQuestionShown {
		t.Errorf("got phase %v, want QuestionShown", c.Phase())
	}
}

func TestApplyVerdict_RetrySameQuestion(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)
	presentQuestion(t, c, epoch)
	epoch, _, _, _ = c.BeginSubmit("weak answer")

	outcome, err := c.ApplyVerdict(epoch, &api.Verdict{
		Correct:  false,
		Feedback: "not quite",
	}, nil)
	if err != nil || outcome != VerdictRetrySame {
		t.Fatalf("got outcome=%v err=%v", outcome, err)
	}

	id, _ := c.Question()
	if id != "q1" {
		t.Errorf("question changed on retry: %q", id)
	}
	s := c.Session()
	if s.QuestionsAnswered != 1 {
		t.Errorf("got %d answered, want 1", s.QuestionsAnswered)
	}
}

func TestApplyVerdict_TransportFailureLeavesSessionIntact(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)
	presentQuestion(t, c, epoch)
	epoch, _, _, _ = c.BeginSubmit("answer")

	before := *c.Session()
	outcome, err := c.ApplyVerdict(epoch, nil, &api.TransportError{Op: "answer", Err: errors.New("down")})
	if outcome != VerdictRetryErr || err == nil {
		t.Fatalf("got outcome=%v err=%v", outcome, err)
	}

	after := *c.Session()
	if before != after {
		t.Errorf("session mutated on transport failure: %+v vs %+v", before, after)
	}
	if c.Phase() != PhaseQuestionShown {
		t.Error("same question must stay up for retry")
	}
}

func TestApplyVerdict_Stale(t *testing.T) {
	c, state := newTestController()
	epoch := startSession(t, c)
	presentQuestion(t, c, epoch)
	epoch, _, _, _ = c.BeginSubmit("answer")

	// The user bails out and starts over before the verdict arrives.
	c.Finish()
	newEpoch := startSession(t, c)

	outcome, err := c.ApplyVerdict(epoch, &api.Verdict{Mastered: true, ConsecutiveCorrect: 3}, nil)
	if outcome != VerdictStale || err != nil {
		t.Fatalf("got outcome=%v err=%v, want VerdictStale", outcome, err)
	}
	if n, _ := state.Node("n1"); n.Mastered {
		t.Error("stale verdict applied a node mutation")
	}
	if c.Epoch() != newEpoch {
		t.Error("epoch moved by stale verdict")
	}
}

func TestSetTopology_SupersedesSession(t *testing.T) {
	c, _ := newTestController()
	epoch := startSession(t, c)

	c.SetTopology("topo-2")

	outcome, _ := c.ApplyQuestion(epoch, &api.QuestionReply{QuestionID: "q", SessionID: "s"}, nil)
	if outcome != QuestionStale {
		t.Errorf("got outcome %v, want QuestionStale after topology switch", outcome)
	}
	if c.Session() != nil {
		t.Error("session survived topology switch")
	}
}
