// Package internal provides the App struct that wires all components of the
// agentboard coordination engine together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/agentboard/internal/cli"
	"github.com/valter-silva-au/agentboard/internal/engine"
	"github.com/valter-silva-au/agentboard/internal/integration"
	"github.com/valter-silva-au/agentboard/internal/observability"
	"github.com/valter-silva-au/agentboard/internal/storage"
	"github.com/valter-silva-au/agentboard/pkg/models"
)

// App holds all service dependencies for the coordination engine.
type App struct {
	BasePath string
	Config   *models.EngineConfig

	// Storage layer
	Boards storage.BoardManager

	// Engine services
	Locks     *engine.LockManager
	Machine   engine.StateMachine
	Leaser    engine.AgentLeaser
	Validator engine.AssignmentValidator
	Checker   engine.ConsistencyChecker
	Splitter  engine.TaskSplitter
	Scorer    engine.ScoringStrategy

	// Integration services
	Workspaces integration.WorkspaceManager
	TaskFiles  integration.TaskFileValidator

	// Observability
	EventLog observability.EventLog
}

// NewApp creates and wires all components of the coordination engine.
// basePath is the root directory where the board lives (typically the
// directory containing .boardconfig).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	loader := engine.NewConfigLoader(basePath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := loader.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Boards = storage.NewBoardManager(basePath)

	// --- Integration services ---
	app.Workspaces = integration.NewWorkspaceManager(basePath)
	app.TaskFiles = integration.NewTaskFileValidator(basePath)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".agentboard_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: run without history if the log can't be created.
		app.EventLog = nil
	}
	var evtAdapter engine.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}

	// --- Engine services ---
	app.Locks = engine.NewLockManager(cfg.LockTimeout)
	app.Scorer = engine.NewWeightedScoring()
	app.Machine = engine.NewStateMachine(app.Boards, app.Locks, app.Workspaces, evtAdapter, cfg)
	app.Leaser = engine.NewAgentLeaser(app.Boards, app.Locks, app.Workspaces, cfg)
	app.Validator = engine.NewAssignmentValidator(app.Boards, app.Locks, app.Scorer, cfg)
	app.Checker = engine.NewConsistencyChecker(app.Boards, app.Locks, app.Workspaces, evtAdapter, cfg)
	app.Splitter = engine.NewTaskSplitter(app.Boards, app.Locks, evtAdapter)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Boards = app.Boards
	cli.Machine = app.Machine
	cli.Leaser = app.Leaser
	cli.Validator = app.Validator
	cli.Checker = app.Checker
	cli.Splitter = app.Splitter
	cli.Workspaces = app.Workspaces
	cli.TaskFiles = app.TaskFiles
	cli.EventLog = app.EventLog

	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle. It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the board data directory.
// It checks the AGENTBOARD_HOME env var, then walks up from the current
// directory looking for .boardconfig or board.yaml, and falls back to the
// current directory.
func ResolveBasePath() string {
	if home := os.Getenv("AGENTBOARD_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".boardconfig")); err == nil {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, "board.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// eventLogAdapter adapts observability.EventLog to engine.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
