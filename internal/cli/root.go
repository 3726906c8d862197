// Package cli implements the agentboard command surface. Each command
// performs one engine operation per invocation, prints a structured result,
// and exits non-zero when a blocking or critical condition was present and
// not explicitly bypassed.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/agentboard/internal/engine"
	"github.com/valter-silva-au/agentboard/internal/integration"
	"github.com/valter-silva-au/agentboard/internal/observability"
	"github.com/valter-silva-au/agentboard/internal/storage"
	"github.com/valter-silva-au/agentboard/pkg/models"
)

// Service dependencies wired by internal.NewApp.
var (
	BasePath   string
	Boards     storage.BoardManager
	Machine    engine.StateMachine
	Validator  engine.AssignmentValidator
	Checker    engine.ConsistencyChecker
	Leaser     engine.AgentLeaser
	Splitter   engine.TaskSplitter
	EventLog   observability.EventLog
	Workspaces integration.WorkspaceManager
	TaskFiles  integration.TaskFileValidator
	Config     *models.EngineConfig
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "agentboard",
	Short: "Agent-task coordination engine",
	Long: `agentboard coordinates a fixed pool of worker agents against a shared
task board. It guarantees that each task is claimed by at most one agent,
that agent status transitions are valid and auditable, and that
inconsistent states can be detected and repaired.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentboard %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// printFindings renders a finding list with severity tags and resolutions.
func printFindings(label string, findings []models.Finding) {
	if len(findings) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, f := range findings {
		fmt.Printf("  [%s] %s: %s\n", f.Severity, f.Code, f.Message)
		if f.Resolution != "" {
			fmt.Printf("      -> %s\n", f.Resolution)
		}
	}
}
