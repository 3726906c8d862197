package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/agentboard/internal/engine"
	"github.com/valter-silva-au/agentboard/pkg/models"
)

var stateCmd = &cobra.Command{
	Use:   "state <agent>",
	Short: "Print an agent's current record",
	Long: `Print the persisted record for one agent. Unmaterialized slots
within the configured pool report the implicit available state. This is a
read-only report and takes no locks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentID := args[0]
		slot, ok := engine.AgentSlot(agentID)
		if !ok || slot > Config.MaxAgents {
			return fmt.Errorf("malformed agent ID %q", agentID)
		}

		board, err := Boards.LoadOrInit()
		if err != nil {
			return err
		}

		agent, exists := board.Agents[agentID]
		if !exists {
			agent = models.NewAgent(agentID)
			fmt.Printf("# %s has not been materialized yet\n", agentID)
		}

		out, err := yaml.Marshal(agent)
		if err != nil {
			return fmt.Errorf("rendering agent record: %w", err)
		}
		fmt.Print(string(out))

		if exists, path := Workspaces.Exists(agentID); exists {
			fmt.Printf("workspace_path: %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
