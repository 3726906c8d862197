package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateBypassWarnings bool

var validateCmd = &cobra.Command{
	Use:   "validate <agent> <task>",
	Short: "Vet a proposed (agent, task) assignment",
	Long: `Run every assignment check against a fresh board read and print
the decision object: score, confidence, and the full finding list. The
board is never mutated. Exits non-zero when the assignment is invalid.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := Validator.ValidateAssignment(cmd.Context(), args[0], args[1], validateBypassWarnings)
		if err != nil {
			return err
		}

		fmt.Printf("assignment %s -> %s\n", result.TaskID, result.AgentID)
		fmt.Printf("score:      %.1f\n", result.Score)
		fmt.Printf("confidence: %.1f\n", result.Confidence)
		printFindings("Errors", result.Errors)
		printFindings("Warnings", result.Warnings)

		if !result.Valid {
			return fmt.Errorf("assignment invalid")
		}
		fmt.Println("valid: the state machine may commit this assignment")
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateBypassWarnings, "bypass-warnings", false, "accept the assignment despite critical findings")
	rootCmd.AddCommand(validateCmd)
}
