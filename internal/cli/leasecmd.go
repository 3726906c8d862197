package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agentboard/internal/engine"
)

var leaseCmd = &cobra.Command{
	Use:   "lease",
	Short: "Select the next leasable agent",
	Long: `Evaluate the leasing rules in priority order and print the first
matching agent: available agents first, then reclaimable stale or orphaned
claims, then slots never materialized. Exits non-zero when the pool is
exhausted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := Leaser.NextAvailableAgent(cmd.Context())
		if err != nil {
			if errors.Is(err, engine.ErrPoolExhausted) {
				fmt.Printf("pool exhausted: all %d slots are occupied\n", Config.MaxAgents)
			}
			return err
		}

		fmt.Printf("%s (%s): %s\n", result.AgentID, result.Rule, result.Reason)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leaseCmd)
}
