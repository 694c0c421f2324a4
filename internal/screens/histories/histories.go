package histories

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
	"github.com/marut/grasp/internal/screens/graphview"
	"github.com/marut/grasp/internal/ui/layout"
	"github.com/marut/grasp/internal/ui/theme"
)

// Deps are the services the histories screen needs.
type Deps struct {
	State   *graph.State
	Quiz    *quiz.Controller
	History *history.Service
	Logger  *zap.Logger

	// GraphDeps builds the graph screen after a snapshot loads.
	GraphDeps graphview.Deps
}

type listLoadedMsg struct {
	Items []api.HistoryItem
	Err   error
}

type snapshotLoadedMsg struct {
	ID    string
	Nodes []graph.Node
	Edges []graph.Edge
	Err   error
}

type deleteDoneMsg struct {
	ID  string
	Err error
}

// HistoriesScreen lists saved graph snapshots for loading and pruning.
type HistoriesScreen struct {
	deps Deps

	items    []api.HistoryItem
	selected int
	loaded   bool

	confirmDelete bool
	busy          bool
	notice        string
	noticeErr     bool
}

var _ screen.Screen = (*HistoriesScreen)(nil)
var _ screen.KeyHintProvider = (*HistoriesScreen)(nil)

// New creates a new HistoriesScreen.
func New(deps Deps) *HistoriesScreen {
	return &HistoriesScreen{deps: deps}
}

func (s *HistoriesScreen) Init() tea.Cmd {
	svc := s.deps.History
	return func() tea.Msg {
		items, err := svc.List(context.Background())
		return listLoadedMsg{Items: items, Err: err}
	}
}

func (s *HistoriesScreen) Title() string {
	return "Histories"
}

func (s *HistoriesScreen) KeyHints() []layout.KeyHint {
	if s.confirmDelete {
		return []layout.KeyHint{
			{Key: "Y", Description: "Delete"},
			{Key: "N", Description: "Keep"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Load"},
		{Key: "D", Description: "Delete"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

// load fetches and normalizes one snapshot.
func (s *HistoriesScreen) load(id string) tea.Cmd {
	svc := s.deps.History
	return func() tea.Msg {
		nodes, edges, err := svc.Load(context.Background(), id)
		return snapshotLoadedMsg{ID: id, Nodes: nodes, Edges: edges, Err: err}
	}
}

func (s *HistoriesScreen) delete(id string) tea.Cmd {
	svc := s.deps.History
	return func() tea.Msg {
		return deleteDoneMsg{ID: id, Err: svc.Delete(context.Background(), id)}
	}
}

func (s *HistoriesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case listLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.notice, s.noticeErr = api.UserMessage(msg.Err), true
			return s, nil
		}
		s.items = msg.Items
		if s.selected >= len(s.items) {
			s.selected = 0
		}
		return s, nil

	case snapshotLoadedMsg:
		s.busy = false
		if msg.Err != nil {
			s.notice, s.noticeErr = api.UserMessage(msg.Err), true
			return s, nil
		}
		s.deps.State.Replace(msg.Nodes, msg.Edges)
		// A loaded snapshot replaces the mirror wholesale, so any quiz
		// session in progress is abandoned rather than left pointing at
		// nodes that may no longer exist.
		s.deps.Quiz.Finish()
		s.deps.Logger.Info("history loaded",
			zap.String("history_id", msg.ID), zap.Int("nodes", len(msg.Nodes)))
		gdeps := s.deps.GraphDeps
		return s, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: graphview.New(gdeps)}
		}

	case deleteDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.notice, s.noticeErr = api.UserMessage(msg.Err), true
			return s, nil
		}
		kept := s.items[:0]
		for _, it := range s.items {
			if it.ID != msg.ID {
				kept = append(kept, it)
			}
		}
		s.items = kept
		if s.selected >= len(s.items) && s.selected > 0 {
			s.selected--
		}
		s.notice, s.noticeErr = "Snapshot deleted.", false
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *HistoriesScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.confirmDelete {
		switch key {
		case "y", "Y":
			s.confirmDelete = false
			if s.selected < len(s.items) {
				s.busy = true
				return s, s.delete(s.items[s.selected].ID)
			}
		case "n", "N", "esc":
			s.confirmDelete = false
		}
		return s, nil
	}

	if s.busy {
		return s, nil
	}

	switch key {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.items)-1 {
			s.selected++
		}
	case "enter":
		if s.selected < len(s.items) {
			s.busy = true
			s.notice = ""
			return s, s.load(s.items[s.selected].ID)
		}
	case "d", "D":
		if s.selected < len(s.items) {
			s.confirmDelete = true
		}
	}
	return s, nil
}

func (s *HistoriesScreen) View(width, height int) string {
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading histories...")
	}
	if len(s.items) == 0 && s.notice == "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No saved graphs yet. Save one from the graph screen.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, it := range s.items {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		marker := ""
		if it.ID == s.deps.History.CurrentID() {
			marker = "  (current)"
		}

		line := fmt.Sprintf("%s%s  %s%s", prefix, it.Title, it.CreatedAt, marker)
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Width(min(width-4, 70)).Render(line)))
		b.WriteString("\n")
	}

	if s.confirmDelete {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Incorrect.Render("Delete this snapshot from the server? (y/n)")))
	} else if s.busy {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render("Working...")))
	} else if s.notice != "" {
		style := theme.Correct
		if s.noticeErr {
			style = theme.Incorrect
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(s.notice)))
	}

	return b.String()
}
