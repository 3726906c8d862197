package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

var (
	reportTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	reportHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62"))

	reportBadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	reportGoodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

var reportCmd = &cobra.Command{
	Use:   "report <agent> <task>",
	Short: "Print a full assignment report",
	Long: `Print the complete decision picture for a proposed assignment:
the validation result, resource-conflict analysis, and the existence and
implementation-depth signals for the task's target files.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentID, taskID := args[0], args[1]

		result, err := Validator.ValidateAssignment(cmd.Context(), agentID, taskID, false)
		if err != nil {
			return err
		}

		fmt.Println(reportTitleStyle.Render(fmt.Sprintf("Assignment report: %s -> %s", taskID, agentID)))
		fmt.Println()

		verdict := reportGoodStyle.Render("VALID")
		if !result.Valid {
			verdict = reportBadStyle.Render("INVALID")
		}
		fmt.Println(reportHeaderStyle.Render("Decision"))
		fmt.Printf("  verdict:    %s\n", verdict)
		fmt.Printf("  score:      %.1f\n", result.Score)
		fmt.Printf("  confidence: %.1f\n", result.Confidence)
		fmt.Println()

		if len(result.Errors) > 0 || len(result.Warnings) > 0 {
			fmt.Println(reportHeaderStyle.Render("Findings"))
			for _, f := range append(append([]models.Finding{}, result.Errors...), result.Warnings...) {
				fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Code, f.Message)
			}
			fmt.Println()
		}

		board, err := Boards.LoadOrInit()
		if err != nil {
			return err
		}
		if task, _, found := board.FindTask(taskID); found && len(task.TargetFiles) > 0 {
			fmt.Println(reportHeaderStyle.Render("Target files"))
			for _, sig := range TaskFiles.Inspect(task.TargetFiles) {
				status := reportBadStyle.Render("missing")
				if sig.Exists {
					if sig.Stub {
						status = fmt.Sprintf("stub (%d lines)", sig.Lines)
					} else {
						status = reportGoodStyle.Render(fmt.Sprintf("%d lines", sig.Lines))
					}
				}
				fmt.Printf("  %-40s %s\n", sig.Path, status)
			}
			fmt.Println()
		}

		if !result.Valid {
			kinds := make([]string, 0, len(result.Errors))
			for _, f := range result.Errors {
				kinds = append(kinds, string(f.Code))
			}
			return fmt.Errorf("assignment invalid: %s", strings.Join(kinds, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
