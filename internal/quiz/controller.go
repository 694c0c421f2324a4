package quiz

import (
	"errors"
	"strings"
	"time"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/graph"
)

// Phase is the controller's position in the quiz lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingQuestion
	PhaseQuestionShown
	PhaseAwaitingVerdict
	PhaseMastered
)

// UI timing: how long the mastery banner and answer feedback stay up before
// the controller is advanced.
const (
	MasteryClearDelay = 3 * time.Second
	FeedbackDelay     = 2 * time.Second
)

var (
	// ErrNoTopology means Start was called before any graph exists.
	ErrNoTopology = errors.New("no active topology")

	// ErrNoSession means an answer was submitted without a live session.
	ErrNoSession = errors.New("no active quiz session")

	// ErrNoQuestion means an answer was submitted with no question on screen.
	ErrNoQuestion = errors.New("no question to answer")

	// ErrEmptyAnswer is a local validation failure; nothing is sent.
	ErrEmptyAnswer = errors.New("answer is empty")

	// ErrNoSessionID means the server accepted a question fetch but did not
	// allocate a session id. That is a protocol violation to surface, not
	// something to silently carry on from.
	ErrNoSessionID = errors.New("server did not return a session id")
)

// Session mirrors the server's view of one node-quiz attempt. The counters
// are stored, never computed: the server is the sole authority on grading.
type Session struct {
	NodeID             string
	SessionID          string
	QuestionsAnswered  int
	ConsecutiveCorrect int
	Mastered           bool
}

// QuestionOutcome classifies the result of applying a question-fetch response.
type QuestionOutcome int

const (
	QuestionStale           QuestionOutcome = iota // superseded in-flight response, ignored
	QuestionFailed                                 // session cleared, error surfaced
	QuestionAlreadyMastered                        // node needs no quiz, session cleared
	QuestionPresented                              // question on screen
)

// VerdictOutcome classifies the result of applying an answer verdict.
type VerdictOutcome int

const (
	VerdictStale     VerdictOutcome = iota // superseded in-flight response, ignored
	VerdictRetryErr                        // transport/protocol failure; same question stays up
	VerdictMastered                        // node mastered; clear after MasteryClearDelay
	VerdictNext                            // follow-up question adopted without a new fetch
	VerdictRetrySame                       // answer insufficient; resubmit the same question
)

// Controller drives one quiz session at a time against the graph service.
// It owns the Session and performs no I/O itself: the caller issues the API
// calls it describes and feeds responses back through the Apply methods,
// tagged with the epoch the call was issued under so late responses for a
// superseded session are dropped.
type Controller struct {
	state      *graph.State
	topologyID string

	phase      Phase
	sess       *Session
	epoch      uint64
	questionID string
	question   string
}

// NewController creates a Controller bound to the mirrored graph state.
func NewController(state *graph.State) *Controller {
	return &Controller{state: state}
}

// SetTopology switches the active topology. Any running session is abandoned
// and in-flight responses for it become stale.
func (c *Controller) SetTopology(id string) {
	c.topologyID = id
	c.reset()
}

// TopologyID returns the active topology id.
func (c *Controller) TopologyID() string { return c.topologyID }

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// Epoch returns the current supersession counter.
func (c *Controller) Epoch() uint64 { return c.epoch }

// Session returns a copy of the live session, or nil.
func (c *Controller) Session() *Session {
	if c.sess == nil {
		return nil
	}
	s := *c.sess
	return &s
}

// Question returns the question currently on screen.
func (c *Controller) Question() (id, text string) {
	return c.questionID, c.question
}

// Start begins a fresh session for a node and returns the epoch to tag the
// question fetch with. All counters start at zero and the session id stays
// empty until the server allocates one.
func (c *Controller) Start(nodeID string) (uint64, error) {
	if c.topologyID == "" {
		return 0, ErrNoTopology
	}

	c.epoch++
	c.sess = &Session{NodeID: nodeID}
	c.phase = PhaseAwaitingQuestion
	c.questionID = ""
	c.question = ""
	return c.epoch, nil
}

// QuestionParams returns what the caller needs to fetch the next question.
// The session id is empty on the first fetch of a session.
func (c *Controller) QuestionParams() (topologyID, nodeID, sessionID string, ok bool) {
	if c.sess == nil {
		return "", "", "", false
	}
	return c.topologyID, c.sess.NodeID, c.sess.SessionID, true
}

// RequestNext re-enters AwaitingQuestion for the current session, for an
// explicit "next question" re-fetch. Returns the epoch for the fetch.
func (c *Controller) RequestNext() (uint64, error) {
	if c.sess == nil {
		return 0, ErrNoSession
	}
	c.phase = PhaseAwaitingQuestion
	return c.epoch, nil
}

// ApplyQuestion feeds back a question-fetch response. Responses tagged with
// a stale epoch are dropped without touching any state.
func (c *Controller) ApplyQuestion(epoch uint64, reply *api.QuestionReply, err error) (QuestionOutcome, error) {
	if epoch != c.epoch {
		return QuestionStale, nil
	}

	if err != nil {
		c.reset()
		return QuestionFailed, err
	}

	if reply.Mastered {
		// The session is gone; invalidate the epoch so any response still
		// in flight under it is dropped as stale.
		c.epoch++
		c.sess = nil
		c.questionID = ""
		c.question = ""
		c.phase = PhaseMastered
		return QuestionAlreadyMastered, nil
	}

	if reply.SessionID == "" {
		c.reset()
		return QuestionFailed, ErrNoSessionID
	}

	c.sess.SessionID = reply.SessionID
	c.questionID = reply.QuestionID
	c.question = reply.Question
	c.phase = PhaseQuestionShown
	return QuestionPresented, nil
}

// BeginSubmit validates an answer and, if it passes, moves to AwaitingVerdict
// and returns everything the caller needs to post it. Validation failures
// happen before any network call and leave the session untouched.
func (c *Controller) BeginSubmit(answer string) (epoch uint64, questionID string, sub api.AnswerSubmission, err error) {
	if c.sess == nil || c.phase != PhaseQuestionShown {
		return 0, "", api.AnswerSubmission{}, ErrNoSession
	}
	if c.questionID == "" {
		return 0, "", api.AnswerSubmission{}, ErrNoQuestion
	}
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return 0, "", api.AnswerSubmission{}, ErrEmptyAnswer
	}

	c.phase = PhaseAwaitingVerdict
	return c.epoch, c.questionID, api.AnswerSubmission{
		Answer:    trimmed,
		NodeID:    c.sess.NodeID,
		SessionID: c.sess.SessionID,
	}, nil
}

// ApplyVerdict feeds back the server's grading of a submitted answer.
//
// On failure the session is left exactly as it was (no optimistic mutation
// has happened yet) and the same question stays up for retry. On success the
// server's counters are copied over; a mastered verdict additionally applies
// the optimistic local node update, to be overwritten by the next
// authoritative refresh.
func (c *Controller) ApplyVerdict(epoch uint64, verdict *api.Verdict, err error) (VerdictOutcome, error) {
	if epoch != c.epoch {
		return VerdictStale, nil
	}

	if err != nil {
		c.phase = PhaseQuestionShown
		return VerdictRetryErr, err
	}

	c.sess.QuestionsAnswered++
	c.sess.ConsecutiveCorrect = verdict.ConsecutiveCorrect
	c.sess.Mastered = verdict.Mastered

	if verdict.Mastered {
		c.state.ApplyLocalMastery(c.sess.NodeID)
		c.phase = PhaseMastered
		return VerdictMastered, nil
	}

	if verdict.Next != nil {
		c.questionID = verdict.Next.ID
		c.question = verdict.Next.Question
		c.phase = PhaseQuestionShown
		return VerdictNext, nil
	}

	c.phase = PhaseQuestionShown
	return VerdictRetrySame, nil
}

// Finish ends the session and returns to Idle. Called after the mastery
// banner delay, or when the user abandons the quiz.
func (c *Controller) Finish() {
	c.reset()
}

// reset clears the session and bumps the epoch so in-flight responses land
// stale.
func (c *Controller) reset() {
	c.epoch++
	c.sess = nil
	c.questionID = ""
	c.question = ""
	c.phase = PhaseIdle
}
