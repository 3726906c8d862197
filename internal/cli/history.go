package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agentboard/internal/observability"
)

var historyCmd = &cobra.Command{
	Use:   "history [agent]",
	Short: "Print the transition history",
	Long: `Print the immutable transition-history records from the event log,
optionally filtered to one agent, oldest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log is not available")
		}

		filter := observability.EventFilter{Type: "agent.transition"}
		if len(args) == 1 {
			filter.AgentID = args[0]
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("no transitions recorded")
			return nil
		}

		for _, e := range events {
			from, _ := e.Data["from_status"].(string)
			to, _ := e.Data["to_status"].(string)
			taskID, _ := e.Data["task_id"].(string)
			reason, _ := e.Data["reason"].(string)

			line := fmt.Sprintf("%s  %s  %s -> %s", e.Time.Format("2006-01-02 15:04:05"), e.AgentID(), from, to)
			if taskID != "" {
				line += fmt.Sprintf("  task=%s", taskID)
			}
			if reason != "" {
				line += fmt.Sprintf("  (%s)", reason)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
