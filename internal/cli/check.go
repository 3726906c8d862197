package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit the board for consistency violations",
	Long: `Run the whole-board consistency check: every agent is audited
against the coordination invariants and externally-known workspaces are
scanned for orphans. Exits non-zero when blocking or critical findings
are present.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := Checker.Check(cmd.Context())
		if err != nil {
			return err
		}

		if report.Total() == 0 {
			fmt.Println("board is consistent")
			return nil
		}

		for _, a := range report.Agents {
			printFindings(a.AgentID, a.Findings)
		}
		printFindings("Board", report.Board)

		fmt.Printf("\n%d finding(s):", report.Total())
		for _, sev := range []models.Severity{
			models.SeverityBlocking, models.SeverityCritical, models.SeverityHigh,
			models.SeverityMedium, models.SeverityLow, models.SeverityInfo,
		} {
			if n := report.CountsBySev[sev]; n > 0 {
				fmt.Printf(" %d %s", n, sev)
			}
		}
		fmt.Println()

		if report.CountsBySev[models.SeverityBlocking] > 0 || report.CountsBySev[models.SeverityCritical] > 0 {
			return fmt.Errorf("consistency check found critical violations")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
