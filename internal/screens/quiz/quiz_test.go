package quiz

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/graph"
	qz "github.com/marut/grasp/internal/quiz"
	"github.com/marut/grasp/internal/screen"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testQuizScreen() (*QuizScreen, *graph.State, *qz.Controller) {
	state := graph.NewState()
	state.Replace([]graph.Node{
		{ID: "n1", Label: "Photosynthesis", Value: 5},
	}, nil)

	ctrl := qz.NewController(state)
	ctrl.SetTopology("topo-1")

	s := New(Deps{
		Quiz:   ctrl,
		State:  state,
		Logger: zap.NewNop(),
	}, "n1", "Photosynthesis")
	return s, state, ctrl
}

func presentQuestion(t *testing.T, s *QuizScreen, ctrl *qz.Controller) {
	t.Helper()
	epoch, err := ctrl.Start("n1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.waiting = true
	var scr screen.Screen = s
	scr, _ = scr.Update(questionMsg{
		Epoch: epoch,
		Reply: &api.QuestionReply{
			Question:   "What do plants produce?",
			QuestionID: "q1",
			SessionID:  "sess-1",
		},
	})
	if scr.(*QuizScreen).waiting {
		t.Fatal("expected question to be presented")
	}
}

func TestQuizScreen_Title(t *testing.T) {
	s, _, _ := testQuizScreen()
	if s.Title() != "Quiz" {
		t.Errorf("Title = %q, want %q", s.Title(), "Quiz")
	}
}

func TestQuizScreen_QuestionPresented(t *testing.T) {
	s, _, ctrl := testQuizScreen()
	presentQuestion(t, s, ctrl)

	if len(s.transcript) != 1 || s.transcript[0].kind != entryQuestion {
		t.Fatalf("transcript = %+v, want one question entry", s.transcript)
	}
	if view := s.View(80, 24); view == "" {
		t.Error("expected non-empty view")
	}
}

func TestQuizScreen_AlreadyMastered(t *testing.T) {
	s, _, ctrl := testQuizScreen()
	epoch, err := ctrl.Start("n1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var scr screen.Screen = s
	scr, cmd := scr.Update(questionMsg{Epoch: epoch, Reply: &api.QuestionReply{Mastered: true}})
	qs := scr.(*QuizScreen)

	if !qs.finished {
		t.Error("expected screen to finish on an already-mastered node")
	}
	if cmd == nil {
		t.Error("expected a delayed leave command")
	}
	if ctrl.Session() != nil {
		t.Error("expected session cleared")
	}
}

func TestQuizScreen_SubmitAnswer(t *testing.T) {
	s, _, ctrl := testQuizScreen()
	presentQuestion(t, s, ctrl)

	s.input.Model.SetValue("oxygen")
	var scr screen.Screen = s
	scr, cmd := scr.Update(specialKey(tea.KeyEnter))
	qs := scr.(*QuizScreen)

	if !qs.waiting {
		t.Error("expected waiting for verdict after submit")
	}
	if cmd == nil {
		t.Error("expected a submit command")
	}
	if qs.transcript[len(qs.transcript)-1].kind != entryAnswer {
		t.Error("expected answer appended to transcript")
	}
}

func TestQuizScreen_EmptyAnswerIsNoop(t *testing.T) {
	s, _, ctrl := testQuizScreen()
	presentQuestion(t, s, ctrl)

	s.input.Model.SetValue("   ")
	var scr screen.Screen = s
	scr, _ = scr.Update(specialKey(tea.KeyEnter))
	qs := scr.(*QuizScreen)

	if qs.waiting {
		t.Error("expected no submission for a blank answer")
	}
	if ctrl.Phase() != qz.PhaseQuestionShown {
		t.Errorf("phase = %v, want question still shown", ctrl.Phase())
	}
}

func TestQuizScreen_MasteredVerdict(t *testing.T) {
	s, state, ctrl := testQuizScreen()
	presentQuestion(t, s, ctrl)

	epoch, _, _, err := ctrl.BeginSubmit("oxygen")
	if err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}

	var scr screen.Screen = s
	scr, cmd := scr.Update(verdictMsg{
		Epoch: epoch,
		Verdict: &api.Verdict{
			Correct:            true,
			ConsecutiveCorrect: 3,
			Mastered:           true,
			Feedback:           "Nailed it.",
		},
	})
	qs := scr.(*QuizScreen)

	if !qs.finished {
		t.Error("expected screen finished after mastery")
	}
	if cmd == nil {
		t.Error("expected a delayed leave command")
	}
	n, ok := state.Node("n1")
	if !ok || !n.Mastered || n.MasteryScore != 10 {
		t.Errorf("node = %+v, want mastered with score 10", n)
	}
}

func TestQuizScreen_InlineNextQuestion(t *testing.T) {
	s, _, ctrl := testQuizScreen()
	presentQuestion(t, s, ctrl)

	epoch, _, _, err := ctrl.BeginSubmit("chlorophyll")
	if err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}

	var scr screen.Screen = s
	scr, _ = scr.Update(verdictMsg{
		Epoch: epoch,
		Verdict: &api.Verdict{
			Correct:            true,
			ConsecutiveCorrect: 1,
			Next:               &api.NextQuestion{ID: "q2", Question: "And what do they absorb?"},
		},
	})
	qs := scr.(*QuizScreen)

	id, _ := ctrl.Question()
	if id != "q2" {
		t.Errorf("question id = %q, want q2 adopted without a fetch", id)
	}
	last := qs.transcript[len(qs.transcript)-1]
	if last.kind != entryQuestion || last.text != "And what do they absorb?" {
		t.Errorf("last transcript entry = %+v, want the follow-up question", last)
	}
	if !qs.inFeedback {
		t.Error("expected feedback pause before input resumes")
	}
}

func TestQuizScreen_CorrectWithoutNextRefetches(t *testing.T) {
	s, _, ctrl := testQuizScreen()
	presentQuestion(t, s, ctrl)

	epoch, _, _, err := ctrl.BeginSubmit("sunlight")
	if err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}

	var scr screen.Screen = s
	scr, cmd := scr.Update(verdictMsg{
		Epoch: epoch,
		Verdict: &api.Verdict{
			Correct:            true,
			ConsecutiveCorrect: 1,
		},
	})
	qs := scr.(*QuizScreen)

	if !qs.waiting {
		t.Error("expected a fresh question fetch when the verdict carries no follow-up")
	}
	if cmd == nil {
		t.Error("expected fetch and feedback commands")
	}
	if ctrl.Phase() != qz.PhaseAwaitingQuestion {
		t.Errorf("phase = %v, want awaiting question", ctrl.Phase())
	}
}

func TestQuizScreen_EscLeaves(t *testing.T) {
	s, _, ctrl := testQuizScreen()
	presentQuestion(t, s, ctrl)

	var scr screen.Screen = s
	_, cmd := scr.Update(specialKey(tea.KeyEscape))
	if cmd == nil {
		t.Error("expected a leave command on esc")
	}
	if ctrl.Session() != nil {
		t.Error("expected session abandoned")
	}
}
