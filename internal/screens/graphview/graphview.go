package graphview

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/graph"
	"github.com/marut/grasp/internal/history"
	"github.com/marut/grasp/internal/quiz"
	"github.com/marut/grasp/internal/router"
	"github.com/marut/grasp/internal/screen"
	quizscreen "github.com/marut/grasp/internal/screens/quiz"
	"github.com/marut/grasp/internal/store"
	"github.com/marut/grasp/internal/ui/components"
	"github.com/marut/grasp/internal/ui/layout"
	"github.com/marut/grasp/internal/ui/theme"
)

// Deps are the services the graph screen needs.
type Deps struct {
	Client  *api.Client
	State   *graph.State
	Quiz    *quiz.Controller
	History *history.Service
	Events  store.EventRepo
	Logger  *zap.Logger
}

type regenDoneMsg struct {
	Nodes []graph.Node
	Edges []graph.Edge
	Err   error
}

type refreshDoneMsg struct {
	Nodes []graph.Node
	Edges []graph.Edge
	Err   error
}

type saveDoneMsg struct {
	Ack *api.SaveAck
	Err error
}

// GraphScreen lists the mirrored knowledge graph as a tiered concept list.
type GraphScreen struct {
	deps Deps

	nodes    []graph.Node
	selected int
	offset   int

	confirmDelete bool
	promptRegen   bool
	regenInput    components.TextInput
	busy          bool
	notice        string
	noticeErr     bool
}

var _ screen.Screen = (*GraphScreen)(nil)
var _ screen.KeyHintProvider = (*GraphScreen)(nil)

// New creates a new GraphScreen.
func New(deps Deps) *GraphScreen {
	g := &GraphScreen{deps: deps}
	g.reload()
	return g
}

// reload re-reads the mirror, mastered concepts sinking to the bottom.
func (g *GraphScreen) reload() {
	nodes := g.deps.State.Nodes()

	ordered := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.Mastered {
			ordered = append(ordered, n)
		}
	}
	for _, n := range nodes {
		if n.Mastered {
			ordered = append(ordered, n)
		}
	}
	g.nodes = ordered

	if g.selected >= len(g.nodes) {
		g.selected = len(g.nodes) - 1
	}
	if g.selected < 0 {
		g.selected = 0
	}
}

func (g *GraphScreen) Init() tea.Cmd {
	return nil
}

func (g *GraphScreen) Title() string {
	return "Graph"
}

func (g *GraphScreen) KeyHints() []layout.KeyHint {
	if g.confirmDelete {
		return []layout.KeyHint{
			{Key: "Y", Description: "Delete branch"},
			{Key: "N", Description: "Keep"},
		}
	}
	if g.promptRegen {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Regenerate"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Quiz"},
		{Key: "M", Description: "Mark mastered"},
		{Key: "D", Description: "Delete branch"},
		{Key: "R", Description: "Refresh"},
		{Key: "G", Description: "Regenerate"},
		{Key: "S", Description: "Save"},
		{Key: "Esc", Description: "Back"},
	}
}

// regenerate asks the server to rebuild the current topology. maxNodes 0
// lets the server pick the size.
func (g *GraphScreen) regenerate(maxNodes int) tea.Cmd {
	client := g.deps.Client
	topologyID := g.deps.Quiz.TopologyID()
	return func() tea.Msg {
		payload, err := client.Regenerate(context.Background(), topologyID, maxNodes)
		if err != nil {
			return regenDoneMsg{Err: err}
		}
		nodes, edges, err := graph.Normalize(payload.Data)
		return regenDoneMsg{Nodes: nodes, Edges: edges, Err: err}
	}
}

// refresh re-fetches the topology and replaces the mirror with whatever the
// server holds now. Local-only edits (mark mastered, delete subtree) are
// discarded.
func (g *GraphScreen) refresh() tea.Cmd {
	client := g.deps.Client
	topologyID := g.deps.Quiz.TopologyID()
	return func() tea.Msg {
		status, err := client.Topology(context.Background(), topologyID)
		if err != nil {
			return refreshDoneMsg{Err: err}
		}
		if status.Status != api.StatusSuccess {
			return refreshDoneMsg{Err: &api.ProtocolError{Op: "topology", Message: status.Message}}
		}
		nodes, edges, err := graph.Normalize(status.Data)
		return refreshDoneMsg{Nodes: nodes, Edges: edges, Err: err}
	}
}

// save snapshots the current mirror to the history store.
func (g *GraphScreen) save() tea.Cmd {
	svc := g.deps.History
	state := g.deps.State
	return func() tea.Msg {
		ack, err := svc.Save(context.Background(), state, "", "")
		return saveDoneMsg{Ack: ack, Err: err}
	}
}

func (g *GraphScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case regenDoneMsg:
		g.busy = false
		if msg.Err != nil {
			g.notice, g.noticeErr = api.UserMessage(msg.Err), true
			return g, nil
		}
		g.deps.State.Replace(msg.Nodes, msg.Edges)
		g.deps.History.Detach(context.Background())
		g.reload()
		g.notice, g.noticeErr = fmt.Sprintf("Regenerated: %d concepts.", len(msg.Nodes)), false
		return g, nil

	case refreshDoneMsg:
		g.busy = false
		if msg.Err != nil {
			g.notice, g.noticeErr = api.UserMessage(msg.Err), true
			return g, nil
		}
		g.deps.State.Replace(msg.Nodes, msg.Edges)
		g.reload()
		g.notice, g.noticeErr = fmt.Sprintf("Refreshed: %d concepts.", len(msg.Nodes)), false
		return g, nil

	case saveDoneMsg:
		g.busy = false
		if msg.Err != nil {
			g.notice, g.noticeErr = api.UserMessage(msg.Err), true
			return g, nil
		}
		g.notice, g.noticeErr = "Graph saved to histories.", false
		return g, nil

	case quizscreen.FinishedMsg:
		// Mastery changes while quizzing reorder the list.
		g.reload()
		return g, nil

	case tea.KeyMsg:
		return g.handleKey(msg)
	}
	return g, nil
}

func (g *GraphScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if g.confirmDelete {
		switch key {
		case "y", "Y":
			g.confirmDelete = false
			if g.selected < len(g.nodes) {
				id := g.nodes[g.selected].ID
				removed := g.deps.State.DeleteSubtree(id)
				g.reload()
				g.notice, g.noticeErr = fmt.Sprintf("Removed %d concept(s).", removed), false
				g.deps.Logger.Info("subtree deleted", zap.String("root", id), zap.Int("removed", removed))
			}
		case "n", "N", "esc":
			g.confirmDelete = false
		}
		return g, nil
	}

	if g.promptRegen {
		switch key {
		case "enter":
			maxNodes := 0
			if strings.TrimSpace(g.regenInput.Value()) != "" {
				n, err := g.regenInput.NumericValue()
				if err != nil || n <= 0 {
					g.regenInput.Submit(false)
					return g, nil
				}
				maxNodes = n
			}
			g.promptRegen = false
			g.busy = true
			g.notice = ""
			return g, g.regenerate(maxNodes)
		case "esc":
			g.promptRegen = false
			return g, nil
		}
		var cmd tea.Cmd
		g.regenInput, cmd = g.regenInput.Update(msg)
		return g, cmd
	}

	if g.busy {
		return g, nil
	}

	switch key {
	case "up", "k":
		if g.selected > 0 {
			g.selected--
		}
	case "down", "j":
		if g.selected < len(g.nodes)-1 {
			g.selected++
		}
	case "enter":
		if g.selected < len(g.nodes) {
			node := g.nodes[g.selected]
			deps := g.deps
			return g, func() tea.Msg {
				return router.PushScreenMsg{Screen: quizscreen.New(quizscreen.Deps{
					Client: deps.Client,
					State:  deps.State,
					Quiz:   deps.Quiz,
					Events: deps.Events,
					Logger: deps.Logger,
				}, node.ID, node.Label)}
			}
		}
	case "m", "M":
		if g.selected < len(g.nodes) {
			node := g.nodes[g.selected]
			if g.deps.State.ApplyLocalMastery(node.ID) {
				g.reload()
				g.notice, g.noticeErr = fmt.Sprintf("%q marked as mastered.", node.Label), false
			}
		}
	case "d", "D":
		if g.selected < len(g.nodes) {
			g.confirmDelete = true
		}
	case "r", "R":
		if g.deps.Quiz.TopologyID() == "" {
			g.notice, g.noticeErr = "Nothing to refresh yet.", true
			return g, nil
		}
		g.busy = true
		g.notice = ""
		return g, g.refresh()
	case "g", "G":
		if g.deps.Quiz.TopologyID() == "" {
			g.notice, g.noticeErr = "Nothing to regenerate yet.", true
			return g, nil
		}
		g.promptRegen = true
		g.notice = ""
		g.regenInput = components.NewTextInput("blank = server decides", true, 4)
		return g, g.regenInput.Init()
	case "s", "S":
		if len(g.nodes) == 0 {
			g.notice, g.noticeErr = "Nothing to save yet.", true
			return g, nil
		}
		g.busy = true
		g.notice = ""
		return g, g.save()
	}
	return g, nil
}

func (g *GraphScreen) View(width, height int) string {
	if len(g.nodes) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No graph yet. Upload a document first.")
	}

	var b strings.Builder
	b.WriteString("\n")

	// Reserve rows for the detail pane and any notice line.
	listHeight := height - 7
	if listHeight < 3 {
		listHeight = 3
	}
	if g.selected < g.offset {
		g.offset = g.selected
	}
	if g.selected >= g.offset+listHeight {
		g.offset = g.selected - listHeight + 1
	}

	end := g.offset + listHeight
	if end > len(g.nodes) {
		end = len(g.nodes)
	}

	for i := g.offset; i < end; i++ {
		n := g.nodes[i]
		style := g.nodeStyle(n)

		prefix := "  "
		if i == g.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s %s  (score %d/10)",
			prefix, tierGlyph(n), n.Label, n.MasteryScore)
		if i == g.selected {
			line = theme.Selected.Render(prefix) + style.Bold(true).Render(line[len(prefix):])
		} else {
			line = style.Render(line)
		}

		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Width(min(width-4, 70)).Render(line)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(g.renderDetail(width))

	if g.confirmDelete {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Incorrect.Render("Delete this concept and everything under it? (y/n)")))
	} else if g.promptRegen {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Body.Render("Max concepts: ")+g.regenInput.View()))
	} else if g.busy {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render("Working...")))
	} else if g.notice != "" {
		style := theme.Correct
		if g.noticeErr {
			style = theme.Incorrect
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(g.notice)))
	}

	return b.String()
}

// renderDetail shows the selected concept's snippet and tier.
func (g *GraphScreen) renderDetail(width int) string {
	if g.selected >= len(g.nodes) {
		return ""
	}
	n := g.nodes[g.selected]
	style := graph.Decorate(n)

	detail := style.Tier.Label()
	if n.ContentSnippet != "" {
		// Truncate on runes so multi-byte content survives intact.
		snippet := []rune(n.ContentSnippet)
		if len(snippet) > 160 {
			snippet = append(snippet[:160], []rune("...")...)
		}
		detail += "  ·  " + string(snippet)
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center,
		theme.Hint.Width(min(width-4, 70)).Render(detail))
}

func (g *GraphScreen) nodeStyle(n graph.Node) lipgloss.Style {
	return theme.NodeStyle(graph.Decorate(n).Tier)
}

// tierGlyph gives each tier a shape so the ramp survives monochrome terminals.
func tierGlyph(n graph.Node) string {
	switch graph.Decorate(n).Tier {
	case graph.TierMastered:
		return "●"
	case graph.TierPartial:
		return "◐"
	default:
		return "○"
	}
}
