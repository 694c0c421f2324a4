package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/graph"
	qz "github.com/marut/grasp/internal/quiz"
	"github.com/marut/grasp/internal/router"
	"github.com/marut/grasp/internal/screen"
	"github.com/marut/grasp/internal/store"
	"github.com/marut/grasp/internal/ui/components"
	"github.com/marut/grasp/internal/ui/layout"
	"github.com/marut/grasp/internal/ui/theme"
)

// Deps are the services the quiz screen needs.
type Deps struct {
	Client *api.Client
	State  *graph.State
	Quiz   *qz.Controller
	Events store.EventRepo
	Logger *zap.Logger
}

// FinishedMsg is delivered to the screen below when a quiz ends, so it can
// pick up any mastery changes.
type FinishedMsg struct {
	NodeID string
}

type questionMsg struct {
	Epoch uint64
	Reply *api.QuestionReply
	Err   error
}

type verdictMsg struct {
	Epoch   uint64
	Verdict *api.Verdict
	Err     error
}

type feedbackDoneMsg struct{}

type masteryDoneMsg struct{}

// entryKind tags transcript lines for styling.
type entryKind int

const (
	entryQuestion entryKind = iota
	entryAnswer
	entryCorrect
	entryIncorrect
)

type entry struct {
	kind entryKind
	text string
}

// QuizScreen runs one node's quiz conversation with the graph service.
type QuizScreen struct {
	deps      Deps
	nodeID    string
	nodeLabel string

	input      components.TextInput
	transcript []entry

	waiting    bool
	inFeedback bool
	finished   bool
	errMsg     string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)

// New creates a quiz screen for one concept node.
func New(deps Deps, nodeID, nodeLabel string) *QuizScreen {
	return &QuizScreen{
		deps:      deps,
		nodeID:    nodeID,
		nodeLabel: nodeLabel,
		input:     components.NewTextInput("Type your answer...", false, 200),
	}
}

func (q *QuizScreen) Init() tea.Cmd {
	epoch, err := q.deps.Quiz.Start(q.nodeID)
	if err != nil {
		q.errMsg = api.UserMessage(err)
		return nil
	}
	q.waiting = true
	return tea.Batch(q.fetchQuestion(epoch), q.input.Init())
}

func (q *QuizScreen) Title() string {
	return "Quiz"
}

func (q *QuizScreen) KeyHints() []layout.KeyHint {
	if q.finished {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Submit answer"},
		{Key: "Esc", Description: "Give up"},
	}
}

// fetchQuestion asks the server for the session's next question.
func (q *QuizScreen) fetchQuestion(epoch uint64) tea.Cmd {
	topologyID, nodeID, sessionID, ok := q.deps.Quiz.QuestionParams()
	if !ok {
		return nil
	}
	client := q.deps.Client
	return func() tea.Msg {
		reply, err := client.Question(context.Background(), topologyID, nodeID, sessionID)
		return questionMsg{Epoch: epoch, Reply: reply, Err: err}
	}
}

// submit posts the answer the controller validated.
func (q *QuizScreen) submit(epoch uint64, questionID string, sub api.AnswerSubmission) tea.Cmd {
	client := q.deps.Client
	topologyID := q.deps.Quiz.TopologyID()
	return func() tea.Msg {
		verdict, err := client.SubmitAnswer(context.Background(), topologyID, questionID, sub)
		return verdictMsg{Epoch: epoch, Verdict: verdict, Err: err}
	}
}

// recordAnswer appends the graded answer to the local event log.
func (q *QuizScreen) recordAnswer(questionID, sessionID string, v *api.Verdict) {
	if q.deps.Events == nil {
		return
	}
	err := q.deps.Events.AppendQuizAnswer(context.Background(), store.QuizAnswerEventData{
		TopologyID:         q.deps.Quiz.TopologyID(),
		NodeID:             q.nodeID,
		QuestionID:         questionID,
		SessionID:          sessionID,
		Correct:            v.Correct,
		Mastered:           v.Mastered,
		ConsecutiveCorrect: v.ConsecutiveCorrect,
	})
	if err != nil {
		q.deps.Logger.Warn("quiz answer not recorded", zap.Error(err))
	}
}

// leave pops this screen and tells the one below the quiz is over.
func (q *QuizScreen) leave() tea.Cmd {
	q.deps.Quiz.Finish()
	nodeID := q.nodeID
	return tea.Sequence(
		func() tea.Msg { return router.PopScreenMsg{} },
		func() tea.Msg { return FinishedMsg{NodeID: nodeID} },
	)
}

func (q *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case questionMsg:
		return q.handleQuestion(msg)

	case verdictMsg:
		return q.handleVerdict(msg)

	case feedbackDoneMsg:
		q.inFeedback = false
		return q, nil

	case masteryDoneMsg:
		return q, q.leave()

	case tea.KeyMsg:
		return q.handleKey(msg)
	}

	var cmd tea.Cmd
	q.input, cmd = q.input.Update(msg)
	return q, cmd
}

func (q *QuizScreen) handleQuestion(msg questionMsg) (screen.Screen, tea.Cmd) {
	outcome, err := q.deps.Quiz.ApplyQuestion(msg.Epoch, msg.Reply, msg.Err)
	q.waiting = false

	switch outcome {
	case qz.QuestionStale:
		return q, nil

	case qz.QuestionFailed:
		q.errMsg = api.UserMessage(err)
		q.finished = true
		return q, nil

	case qz.QuestionAlreadyMastered:
		q.transcript = append(q.transcript, entry{entryCorrect, "This concept is already mastered. Nothing left to quiz."})
		q.finished = true
		return q, tea.Tick(qz.FeedbackDelay, func(time.Time) tea.Msg { return masteryDoneMsg{} })

	case qz.QuestionPresented:
		_, text := q.deps.Quiz.Question()
		q.transcript = append(q.transcript, entry{entryQuestion, text})
		return q, nil
	}
	return q, nil
}

func (q *QuizScreen) handleVerdict(msg verdictMsg) (screen.Screen, tea.Cmd) {
	sessionID := ""
	if s := q.deps.Quiz.Session(); s != nil {
		sessionID = s.SessionID
	}
	questionID, _ := q.deps.Quiz.Question()

	outcome, err := q.deps.Quiz.ApplyVerdict(msg.Epoch, msg.Verdict, msg.Err)
	q.waiting = false

	switch outcome {
	case qz.VerdictStale:
		return q, nil

	case qz.VerdictRetryErr:
		q.errMsg = api.UserMessage(err)
		return q, nil

	case qz.VerdictMastered:
		q.recordAnswer(questionID, sessionID, msg.Verdict)
		if msg.Verdict.Feedback != "" {
			q.transcript = append(q.transcript, entry{entryCorrect, msg.Verdict.Feedback})
		}
		q.transcript = append(q.transcript, entry{entryCorrect,
			fmt.Sprintf("Mastered %q!", q.nodeLabel)})
		q.finished = true
		return q, tea.Tick(qz.MasteryClearDelay, func(time.Time) tea.Msg { return masteryDoneMsg{} })

	case qz.VerdictNext:
		q.recordAnswer(questionID, sessionID, msg.Verdict)
		q.appendFeedback(msg.Verdict)
		_, text := q.deps.Quiz.Question()
		q.transcript = append(q.transcript, entry{entryQuestion, text})
		q.inFeedback = true
		return q, tea.Tick(qz.FeedbackDelay, func(time.Time) tea.Msg { return feedbackDoneMsg{} })

	case qz.VerdictRetrySame:
		q.recordAnswer(questionID, sessionID, msg.Verdict)
		q.appendFeedback(msg.Verdict)
		q.inFeedback = true
		cmds := []tea.Cmd{tea.Tick(qz.FeedbackDelay, func(time.Time) tea.Msg { return feedbackDoneMsg{} })}
		if msg.Verdict.Correct {
			// Correct but no inline follow-up: ask the server for a fresh
			// question rather than re-presenting the answered one.
			if epoch, err := q.deps.Quiz.RequestNext(); err == nil {
				q.waiting = true
				cmds = append(cmds, q.fetchQuestion(epoch))
			}
		}
		return q, tea.Batch(cmds...)
	}
	return q, nil
}

func (q *QuizScreen) appendFeedback(v *api.Verdict) {
	kind := entryIncorrect
	if v.Correct {
		kind = entryCorrect
	}
	text := v.Feedback
	if text == "" {
		if v.Correct {
			text = "Correct!"
		} else {
			text = "Not quite. Try again."
		}
	}
	q.transcript = append(q.transcript, entry{kind, text})
}

func (q *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if key == "esc" {
		return q, q.leave()
	}

	if q.finished || q.waiting || q.inFeedback {
		return q, nil
	}

	if key == "enter" {
		epoch, questionID, sub, err := q.deps.Quiz.BeginSubmit(q.input.Value())
		if err != nil {
			// Local validation only; nothing was sent.
			return q, nil
		}
		q.errMsg = ""
		q.transcript = append(q.transcript, entry{entryAnswer, sub.Answer})
		q.input = components.NewTextInput("Type your answer...", false, 200)
		q.waiting = true
		return q, tea.Batch(q.submit(epoch, questionID, sub), q.input.Init())
	}

	var cmd tea.Cmd
	q.input, cmd = q.input.Update(msg)
	return q, cmd
}

func (q *QuizScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")

	cw := min(width-8, 72)
	center := func(s string) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s))
		b.WriteString("\n")
	}

	center(theme.Title.Render(q.nodeLabel))
	if s := q.deps.Quiz.Session(); s != nil {
		center(theme.Hint.Render(fmt.Sprintf("answered %d  ·  streak %d of 3",
			s.QuestionsAnswered, s.ConsecutiveCorrect)))
	}
	b.WriteString("\n")

	// Show the tail of the transcript that fits.
	lines := height - 9
	if lines < 3 {
		lines = 3
	}
	start := len(q.transcript) - lines
	if start < 0 {
		start = 0
	}
	for _, e := range q.transcript[start:] {
		var style lipgloss.Style
		var prefix string
		switch e.kind {
		case entryQuestion:
			style, prefix = theme.Body, "Q  "
		case entryAnswer:
			style, prefix = theme.Hint, "A  "
		case entryCorrect:
			style, prefix = theme.Correct, "✓  "
		case entryIncorrect:
			style, prefix = theme.Incorrect, "✗  "
		}
		center(style.Width(cw).Render(prefix + e.text))
	}

	b.WriteString("\n")
	switch {
	case q.errMsg != "":
		center(theme.Incorrect.Render(q.errMsg))
	case q.waiting:
		center(theme.Hint.Render("Waiting for the tutor..."))
	case q.finished:
		center(theme.Hint.Render("Quiz over. Press Esc to go back."))
	case q.inFeedback:
		// Feedback is on screen; input resumes shortly.
	default:
		center(lipgloss.NewStyle().Width(cw).Render(q.input.View()))
	}

	return b.String()
}
