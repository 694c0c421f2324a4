package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marut/grasp/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quiz statistics from the local event log",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		events, err := st.EventRepo().Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}

		var answered, correct int
		nodes := make(map[string]bool)
		for _, ev := range events {
			if ev.Kind != store.KindQuizAnswer {
				continue
			}
			var data store.QuizAnswerEventData
			if err := json.Unmarshal(ev.Payload, &data); err != nil {
				continue
			}
			answered++
			if data.Correct {
				correct++
			}
			if data.Mastered {
				nodes[data.NodeID] = true
			}
		}

		if answered == 0 {
			fmt.Println("No quiz answers recorded yet.")
			return nil
		}

		fmt.Printf("Answers:   %d\n", answered)
		fmt.Printf("Correct:   %d (%.0f%%)\n", correct, float64(correct)/float64(answered)*100)
		fmt.Printf("Mastered:  %d concept(s)\n", len(nodes))
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("limit", 500, "How many recent events to scan")
}
