package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <agent> <task>",
	Short: "Analyze resource conflicts for a proposed assignment",
	Long: `Report target-file overlaps between the given task and tasks held
by other currently-working agents. Overlapping paths risk merge conflicts
across workspaces.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		findings, err := Validator.Conflicts(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		if len(findings) == 0 {
			fmt.Println("no resource conflicts")
			return nil
		}

		printFindings("Conflicts", findings)
		for _, f := range findings {
			if f.Severity == models.SeverityBlocking {
				return fmt.Errorf("conflict analysis failed")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
}
