package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marut/grasp/internal/api"
	"github.com/marut/grasp/internal/graph"
	"github.com/marut/grasp/internal/logging"
)

var historiesCmd = &cobra.Command{
	Use:   "histories",
	Short: "List saved graph snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient(cmd)
		if err != nil {
			return err
		}

		items, err := client.HistoryList(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No saved graphs.")
			return nil
		}
		for _, it := range items {
			fmt.Printf("%s  %s  %s\n", it.ID, it.CreatedAt, it.Title)
		}
		return nil
	},
}

var historiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one snapshot's concepts and links",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient(cmd)
		if err != nil {
			return err
		}

		record, err := client.HistoryRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		nodes, edges, err := graph.Normalize(record.Content)
		if err != nil {
			return err
		}

		for _, n := range nodes {
			marker := " "
			if n.Mastered {
				marker = "*"
			}
			fmt.Printf("%s %s (score %d/10)\n", marker, n.Label, n.MasteryScore)
		}
		fmt.Println()
		for _, e := range edges {
			fmt.Printf("%s -[%s]-> %s\n", e.From, e.Label, e.To)
		}
		return nil
	},
}

var historiesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a snapshot from the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := cliClient(cmd)
		if err != nil {
			return err
		}

		if err := client.HistoryDelete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Deleted", args[0])
		return nil
	},
}

// cliClient builds a quiet API client for one-shot commands.
func cliClient(cmd *cobra.Command) (*api.Client, error) {
	logger, err := logging.New("")
	if err != nil {
		return nil, err
	}
	return api.NewClient(resolveConfig(cmd), api.WithLogger(logger)), nil
}

func init() {
	historiesCmd.AddCommand(historiesShowCmd)
	historiesCmd.AddCommand(historiesDeleteCmd)
}
