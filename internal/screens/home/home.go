package home

import (
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
	"github.com/marut/grasp/internal/screens/generate"
	"github.com/marut/grasp/internal/screens/graphview"
	"github.com/marut/grasp/internal/screens/histories"
	"github.com/marut/grasp/internal/store"
	"github.com/marut/grasp/internal/ui/components"
	"github.com/marut/grasp/internal/ui/theme"
)

// Deps bundles the shared services every screen reaches through.
type Deps struct {
	Client   *api.Client
	State    *graph.State
	Quiz     *quiz.Controller
	History  *history.Service
	Events   store.EventRepo
	Settings store.SettingsRepo
	Logger   *zap.Logger
}

// HomeScreen is the main menu of the application.
type HomeScreen struct {
	deps Deps
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	gdeps := graphview.Deps{
		Client:  deps.Client,
		State:   deps.State,
		Quiz:    deps.Quiz,
		History: deps.History,
		Events:  deps.Events,
		Logger:  deps.Logger,
	}

	items := []components.MenuItem{
		{Label: "UPLOAD DOCUMENT", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: generate.New(generate.Deps{
					Client:   deps.Client,
					State:    deps.State,
					Quiz:     deps.Quiz,
					History:  deps.History,
					Events:   deps.Events,
					Settings: deps.Settings,
					Logger:   deps.Logger,
				})}
			}
		}},
		{Label: "VIEW GRAPH", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: graphview.New(gdeps)}
			}
		}},
		{Label: "HISTORIES", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: histories.New(histories.Deps{
					State:     deps.State,
					Quiz:      deps.Quiz,
					History:   deps.History,
					Logger:    deps.Logger,
					GraphDeps: gdeps,
				})}
			}
		}},
		{Label: "EXIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	return &HomeScreen{
		deps: deps,
		menu: components.NewMenu(items),
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var sections []string

	title := theme.Title.Width(width).Render("G R A S P")
	subtitle := theme.Subtitle.Width(width).Render("Learn any document as a knowledge graph")
	sections = append(sections, "\n"+title, subtitle)

	nodes, edges := h.deps.State.Counts()
	statusLine := "No graph loaded yet. Upload a document to begin."
	if nodes > 0 {
		mastered := 0
		for _, n := range h.deps.State.Nodes() {
			if n.Mastered {
				mastered++
			}
		}
		statusLine = fmt.Sprintf("%d concepts, %d links, %d mastered", nodes, edges, mastered)
	}
	sections = append(sections, theme.Hint.Width(width).Align(lipgloss.Center).Render(statusLine))

	menu := lipgloss.PlaceHorizontal(width, lipgloss.Center, h.menu.View())
	sections = append(sections, "\n"+menu)

	return strings.Join(sections, "\n")
}

func (h *HomeScreen) Title() string {
	return "Home"
}
