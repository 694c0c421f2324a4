package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/app"
	"github.com/marut/grasp/internal/graph"
	"github.com/marut/grasp/internal/history"
	"github.com/marut/grasp/internal/logging"
	"github.com/marut/grasp/internal/quiz"
	"github.com/marut/grasp/internal/store"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger, err := logging.FromEnv(os.Getenv)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client := api.NewClient(resolveConfig(cmd),
		api.WithLogger(logger),
		api.WithRecorder(st.EventRepo()),
	)

	state := graph.NewState()
	ctrl := quiz.NewController(state)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	restoreLastTopology(ctx, client, st.SettingsRepo(), state, ctrl)

	return app.Run(app.Options{
		Client:   client,
		State:    state,
		Quiz:     ctrl,
		History:  history.NewService(ctx, client, st.SettingsRepo()),
		Events:   st.EventRepo(),
		Settings: st.SettingsRepo(),
		Logger:   logger,
	})
}

// restoreLastTopology re-adopts the previous run's graph so the app does not
// start cold after every restart. Best effort: any failure just means an
// empty mirror.
func restoreLastTopology(ctx context.Context, client *api.Client, settings store.SettingsRepo, state *graph.State, ctrl *quiz.Controller) {
	id, err := settings.Get(ctx, store.KeyLastTopology)
	if err != nil || id == "" {
		return
	}

	status, err := client.Topology(ctx, id)
	if err != nil || status.Status != api.StatusSuccess {
		return
	}

	nodes, edges, err := graph.Normalize(status.Data)
	if err != nil {
		return
	}

	state.Replace(nodes, edges)
	ctrl.SetTopology(id)
}
