package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover <agent>",
	Short: "Reset an agent to a known-good state",
	Long: `Apply the conservative repair to one agent: reset it to available
with no current task and no workspace handle. In-flight bookkeeping is
discarded, not reconciled. The repair is idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := Checker.Recover(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s reset to %s\n", agent.ID, agent.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}
