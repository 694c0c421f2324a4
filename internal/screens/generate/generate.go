package generate

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/document"
	"github.com/marut/grasp/internal/graph"
	"github.com/marut/grasp/internal/history"
	"github.com/marut/grasp/internal/quiz"
	"github.com/marut/grasp/internal/router"
	"github.com/marut/grasp/internal/screen"
	"github.com/marut/grasp/internal/screens/graphview"
	"github.com/marut/grasp/internal/store"
	"github.com/marut/grasp/internal/ui/components"
	"github.com/marut/grasp/internal/ui/layout"
	"github.com/marut/grasp/internal/ui/theme"
)

// Deps are the services the generate flow needs.
type Deps struct {
	Client   *api.Client
	State    *graph.State
	Quiz     *quiz.Controller
	History  *history.Service
	Events   store.EventRepo
	Settings store.SettingsRepo
	Logger   *zap.Logger
}

// phase tracks where the upload flow is.
type phase int

const (
	phasePathInput phase = iota
	phaseNodesInput
	phaseUploading
	phaseGenerating
	phaseDone
	phaseFailed
)

type uploadStartedMsg struct {
	Ack    *api.GenerateAck
	Events <-chan api.ProgressEvent
	Cancel context.CancelFunc
	Err    error
}

type progressMsg struct {
	Event api.ProgressEvent
	OK    bool
}

type graphReadyMsg struct {
	Nodes []graph.Node
	Edges []graph.Edge
	Err   error
}

// GenerateScreen walks the user through uploading a document and watching
// the server build a knowledge graph from it.
type GenerateScreen struct {
	deps Deps

	phase     phase
	pathInput components.TextInput
	nodeInput components.TextInput

	topologyID string
	progress   int
	message    string
	errMsg     string

	events <-chan api.ProgressEvent
	cancel context.CancelFunc
}

var _ screen.Screen = (*GenerateScreen)(nil)
var _ screen.KeyHintProvider = (*GenerateScreen)(nil)

// newGraphView builds the graph screen with this screen's dependencies.
func newGraphView(deps Deps) screen.Screen {
	return graphview.New(graphview.Deps{
		Client:  deps.Client,
		State:   deps.State,
		Quiz:    deps.Quiz,
		History: deps.History,
		Events:  deps.Events,
		Logger:  deps.Logger,
	})
}

// New creates a new GenerateScreen.
func New(deps Deps) *GenerateScreen {
	return &GenerateScreen{
		deps:      deps,
		pathInput: components.NewTextInput("Path to document (.pdf, .docx, .pptx, .txt)...", false, 120),
		nodeInput: components.NewTextInput("Max concepts (blank = server decides)...", true, 4),
	}
}

func (g *GenerateScreen) Init() tea.Cmd {
	return g.pathInput.Init()
}

func (g *GenerateScreen) Title() string {
	return "Upload"
}

func (g *GenerateScreen) KeyHints() []layout.KeyHint {
	switch g.phase {
	case phaseUploading, phaseGenerating:
		return []layout.KeyHint{
			{Key: "Esc", Description: "Cancel"},
		}
	case phaseDone:
		return []layout.KeyHint{
			{Key: "Enter", Description: "View graph"},
			{Key: "Esc", Description: "Back"},
		}
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Continue"},
			{Key: "Esc", Description: "Back"},
		}
	}
}

// startUpload validates the document and posts it to the graph service.
func (g *GenerateScreen) startUpload(path string, maxNodes int) tea.Cmd {
	client := g.deps.Client
	log := g.deps.Logger
	return func() tea.Msg {
		f, name, err := document.Open(path)
		if err != nil {
			return uploadStartedMsg{Err: err}
		}
		defer f.Close()

		ack, err := client.Generate(context.Background(), name, f, maxNodes)
		if err != nil {
			return uploadStartedMsg{Err: err}
		}
		log.Info("generation started", zap.String("topology_id", ack.TopologyID))

		ctx, cancel := context.WithCancel(context.Background())
		events := api.WatchTopology(ctx, client, ack.TopologyID)
		return uploadStartedMsg{Ack: ack, Events: events, Cancel: cancel}
	}
}

// waitForProgress receives one event from the polling channel.
func waitForProgress(events <-chan api.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return progressMsg{Event: ev, OK: ok}
	}
}

// adoptGraph normalizes the finished payload off the Update loop.
func adoptGraph(raw []byte) tea.Cmd {
	return func() tea.Msg {
		nodes, edges, err := graph.Normalize(raw)
		return graphReadyMsg{Nodes: nodes, Edges: edges, Err: err}
	}
}

func (g *GenerateScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case uploadStartedMsg:
		if msg.Err != nil {
			g.phase = phaseFailed
			g.errMsg = api.UserMessage(msg.Err)
			return g, nil
		}
		g.phase = phaseGenerating
		g.topologyID = msg.Ack.TopologyID
		g.events = msg.Events
		g.cancel = msg.Cancel
		g.message = msg.Ack.Message
		return g, waitForProgress(g.events)

	case progressMsg:
		if !msg.OK {
			// Channel closed without a terminal event; the watch was cancelled.
			return g, nil
		}
		ev := msg.Event
		g.progress = ev.Progress
		if ev.Message != "" {
			g.message = ev.Message
		}
		if !ev.Terminal {
			return g, waitForProgress(g.events)
		}
		if ev.Err != nil {
			g.phase = phaseFailed
			g.errMsg = api.UserMessage(ev.Err)
			return g, nil
		}
		return g, adoptGraph(ev.Result.Data)

	case graphReadyMsg:
		if msg.Err != nil {
			g.phase = phaseFailed
			g.errMsg = api.UserMessage(msg.Err)
			return g, nil
		}
		g.deps.State.Replace(msg.Nodes, msg.Edges)
		g.deps.Quiz.SetTopology(g.topologyID)
		g.deps.History.Detach(context.Background())
		if g.deps.Settings != nil {
			_ = g.deps.Settings.Put(context.Background(), store.KeyLastTopology, g.topologyID)
		}
		g.phase = phaseDone
		return g, nil

	case tea.KeyMsg:
		return g.handleKey(msg)
	}

	return g.updateInputs(msg)
}

func (g *GenerateScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch g.phase {
	case phasePathInput:
		if key == "enter" {
			path := strings.TrimSpace(g.pathInput.Value())
			if path == "" {
				return g, nil
			}
			f, _, err := document.Open(path)
			if err != nil {
				g.pathInput.Submit(false)
				g.errMsg = api.UserMessage(err)
				return g, nil
			}
			f.Close()
			g.pathInput.Submit(true)
			g.errMsg = ""
			g.phase = phaseNodesInput
			return g, g.nodeInput.Init()
		}

	case phaseNodesInput:
		if key == "enter" {
			maxNodes := 0
			if v := strings.TrimSpace(g.nodeInput.Value()); v != "" {
				n, err := g.nodeInput.NumericValue()
				if err != nil {
					g.nodeInput.Submit(false)
					return g, nil
				}
				maxNodes = n
			}
			g.phase = phaseUploading
			g.message = "Uploading document..."
			return g, g.startUpload(strings.TrimSpace(g.pathInput.Value()), maxNodes)
		}

	case phaseUploading, phaseGenerating:
		if key == "esc" {
			if g.cancel != nil {
				g.cancel()
			}
			return g, func() tea.Msg { return router.PopScreenMsg{} }
		}
		// Swallow other keys while work is in flight.
		return g, nil

	case phaseDone:
		if key == "enter" {
			deps := g.deps
			return g, func() tea.Msg {
				return router.ReplaceScreenMsg{Screen: newGraphView(deps)}
			}
		}

	case phaseFailed:
		if key == "enter" {
			g.phase = phasePathInput
			g.errMsg = ""
			g.progress = 0
			return g, g.pathInput.Init()
		}
	}

	return g.updateInputs(msg)
}

func (g *GenerateScreen) updateInputs(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch g.phase {
	case phasePathInput:
		g.pathInput, cmd = g.pathInput.Update(msg)
	case phaseNodesInput:
		g.nodeInput, cmd = g.nodeInput.Update(msg)
	}
	return g, cmd
}

func (g *GenerateScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")

	center := func(s string) {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s))
		b.WriteString("\n")
	}

	switch g.phase {
	case phasePathInput:
		center(theme.Body.Render("Which document should become a knowledge graph?"))
		b.WriteString("\n")
		center(g.pathInput.View())
		if g.errMsg != "" {
			b.WriteString("\n")
			center(theme.Incorrect.Render(g.errMsg))
		}

	case phaseNodesInput:
		center(theme.Body.Render("How many concepts at most?"))
		center(theme.Hint.Render("Leave blank to let the service decide."))
		b.WriteString("\n")
		center(g.nodeInput.View())

	case phaseUploading, phaseGenerating:
		center(theme.Body.Render(g.message))
		b.WriteString("\n")
		bar := components.NewProgressBar("Generating", float64(g.progress)/100, true, min(width-8, 60))
		center(bar.View())

	case phaseDone:
		nodes, edges := g.deps.State.Counts()
		center(theme.Correct.Render("Knowledge graph ready!"))
		b.WriteString("\n")
		center(theme.Body.Render(fmt.Sprintf("%d concepts connected by %d links.", nodes, edges)))
		b.WriteString("\n")
		center(theme.Hint.Render("Press Enter to explore the graph."))

	case phaseFailed:
		center(theme.Incorrect.Render("Generation failed"))
		b.WriteString("\n")
		center(theme.Body.Render(g.errMsg))
		b.WriteString("\n")
		center(theme.Hint.Render("Press Enter to try again."))
	}

	return b.String()
}
