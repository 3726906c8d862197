package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var splitReason string

var splitCmd = &cobra.Command{
	Use:   "split <task>",
	Short: "Split a partially-completed task",
	Long: `Replace a task with two derived tasks: the completed portion lands
in done and the remaining work in todo. The remaining task inherits the
original dependencies plus a dependency on the completed portion, and
dependents are rewritten to follow the remaining work.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := Splitter.SplitTask(cmd.Context(), args[0], splitReason)
		if err != nil {
			return err
		}
		fmt.Printf("split %s:\n  completed: %s (done)\n  remaining: %s (todo)\n", args[0], result.CompletedID, result.RemainingID)
		return nil
	},
}

func init() {
	splitCmd.Flags().StringVar(&splitReason, "reason", "", "disposition reason recorded on both derived tasks")
	rootCmd.AddCommand(splitCmd)
}
