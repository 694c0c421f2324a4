package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/document"
	"github.com/marut/grasp/internal/graph"
	"github.com/marut/grasp/internal/logging"
	"github.com/marut/grasp/internal/store"
)

// generateCmd uploads a document and waits for the graph without the TUI,
// for scripting and smoke-testing a server.
var generateCmd = &cobra.Command{
	Use:   "generate <document>",
	Short: "Upload a document and wait for its knowledge graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxNodes, _ := cmd.Flags().GetInt("max-nodes")

		logger, err := logging.New("")
		if err != nil {
			return err
		}
		client := api.NewClient(resolveConfig(cmd), api.WithLogger(logger))

		f, name, err := document.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		ack, err := client.Generate(ctx, name, f, maxNodes)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		fmt.Println("Topology:", ack.TopologyID)

		lastProgress := -1
		for ev := range api.WatchTopology(ctx, client, ack.TopologyID) {
			if ev.Progress != lastProgress && ev.Message != "" {
				fmt.Printf("[%3d%%] %s\n", ev.Progress, ev.Message)
				lastProgress = ev.Progress
			}
			if !ev.Terminal {
				continue
			}
			if ev.Err != nil {
				return fmt.Errorf("generation: %w", ev.Err)
			}
			nodes, edges, err := graph.Normalize(ev.Result.Data)
			if err != nil {
				return err
			}
			fmt.Printf("Done: %d concepts, %d links.\n", len(nodes), len(edges))
		}

		// Remember the topology so the TUI picks it up next run.
		if dbPath, err := resolveDBPath(cmd); err == nil {
			if st, err := store.Open(dbPath); err == nil {
				defer st.Close()
				_ = st.SettingsRepo().Put(ctx, store.KeyLastTopology, ack.TopologyID)
			}
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().Int("max-nodes", 0, "Maximum number of concepts (0 = server decides)")
}
