package generate

import (
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/graph"
	"github.com/marut/grasp/internal/history"
	"github.com/marut/grasp/internal/quiz"
	"github.com/marut/grasp/internal/screen"
)

func testGenerateScreen(t *testing.T) (*GenerateScreen, *graph.State, *quiz.Controller) {
	t.Helper()
	state := graph.NewState()
	ctrl := quiz.NewController(state)
	s := New(Deps{
		State:   state,
		Quiz:    ctrl,
		History: history.NewService(t.Context(), nil, nil),
		Logger:  zap.NewNop(),
	})
	return s, state, ctrl
}

func TestGenerateScreen_ProgressUpdates(t *testing.T) {
	s, _, _ := testGenerateScreen(t)
	s.phase = phaseGenerating
	s.events = make(chan api.ProgressEvent)

	var scr screen.Screen = s
	scr, cmd := scr.Update(progressMsg{Event: api.ProgressEvent{Progress: 40, Message: "Extracting concepts"}, OK: true})
	gs := scr.(*GenerateScreen)

	if gs.progress != 40 || gs.message != "Extracting concepts" {
		t.Errorf("progress/message = %d/%q", gs.progress, gs.message)
	}
	if cmd == nil {
		t.Error("expected the screen to keep listening for events")
	}
	if view := gs.View(80, 24); !strings.Contains(view, "Extracting concepts") {
		t.Errorf("view missing progress message: %q", view)
	}
}

func TestGenerateScreen_TerminalSuccessAdoptsGraph(t *testing.T) {
	s, state, ctrl := testGenerateScreen(t)
	s.phase = phaseGenerating
	s.topologyID = "topo-9"

	payload, _ := json.Marshal(map[string]any{
		"nodes": []map[string]any{{"id": "a", "label": "A"}, {"id": "b"}},
		"edges": []map[string]any{{"from": "a", "to": "b", "label": "is-a"}},
	})

	var scr screen.Screen = s
	scr, cmd := scr.Update(progressMsg{Event: api.ProgressEvent{
		Progress: 100,
		Terminal: true,
		Result:   &api.TopologyStatus{Status: api.StatusSuccess, Data: payload},
	}, OK: true})
	if cmd == nil {
		t.Fatal("expected a normalization command")
	}

	// Run the command, then feed its message back in.
	scr, _ = scr.Update(cmd())
	gs := scr.(*GenerateScreen)

	if gs.phase != phaseDone {
		t.Errorf("phase = %v, want done", gs.phase)
	}
	if nodes, edges := state.Counts(); nodes != 2 || edges != 1 {
		t.Errorf("counts = %d/%d, want 2/1", nodes, edges)
	}
	if ctrl.TopologyID() != "topo-9" {
		t.Errorf("topology = %q, want topo-9", ctrl.TopologyID())
	}
}

func TestGenerateScreen_TerminalError(t *testing.T) {
	s, _, _ := testGenerateScreen(t)
	s.phase = phaseGenerating

	var scr screen.Screen = s
	scr, _ = scr.Update(progressMsg{Event: api.ProgressEvent{
		Terminal: true,
		Err:      &api.ProtocolError{Op: "topology", Message: "model overloaded"},
	}, OK: true})
	gs := scr.(*GenerateScreen)

	if gs.phase != phaseFailed {
		t.Errorf("phase = %v, want failed", gs.phase)
	}
	if !strings.Contains(gs.errMsg, "model overloaded") {
		t.Errorf("errMsg = %q, want server message passed through", gs.errMsg)
	}
}

func TestGenerateScreen_UploadFailure(t *testing.T) {
	s, _, _ := testGenerateScreen(t)
	s.phase = phaseUploading

	var scr screen.Screen = s
	scr, _ = scr.Update(uploadStartedMsg{Err: &api.TransportError{Op: "generate", StatusCode: 502}})
	gs := scr.(*GenerateScreen)

	if gs.phase != phaseFailed {
		t.Errorf("phase = %v, want failed", gs.phase)
	}
	if gs.errMsg == "" {
		t.Error("expected a user-facing error message")
	}
}
