package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

var transitionReason string

var transitionCmd = &cobra.Command{
	Use:   "transition <agent> <status> [task]",
	Short: "Apply an agent status transition",
	Long: `Apply a status transition to an agent under the engine's locking
discipline. Entering working requires a task ID; the task is bound to the
agent and moved to in_progress. Validation failures are reported as
findings and exit non-zero without mutating the board.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentID := args[0]
		to := models.AgentStatus(args[1])
		taskID := ""
		if len(args) == 3 {
			taskID = args[2]
		}

		result, err := Machine.Transition(cmd.Context(), agentID, to, taskID, transitionReason)
		if err != nil {
			return err
		}

		printFindings("Errors", result.Errors)
		printFindings("Warnings", result.Warnings)

		if !result.Valid {
			return fmt.Errorf("transition rejected")
		}

		fmt.Printf("%s -> %s", agentID, result.Agent.Status)
		if result.Agent.CurrentTask != "" {
			fmt.Printf(" (task %s)", result.Agent.CurrentTask)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	transitionCmd.Flags().StringVar(&transitionReason, "reason", "", "reason recorded in the transition history")
	rootCmd.AddCommand(transitionCmd)
}
