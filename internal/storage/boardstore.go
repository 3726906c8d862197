// Package storage provides durable persistence for the coordination board:
// whole-board YAML snapshots plus immutable timestamped backups.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// ErrBoardNotFound is returned by Load when no board document exists yet.
var ErrBoardNotFound = errors.New("board not found")

// ParseError wraps a malformed board document. Callers must treat it as
// fatal and abort without mutation.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing board %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// BoardManager defines the interface for loading and saving the board.
// Save writes a full snapshot plus an immutable timestamped backup and
// recomputes the denormalized summary; callers must never perform partial
// writes outside Save.
type BoardManager interface {
	Load() (*models.Board, error)
	LoadOrInit() (*models.Board, error)
	Save(board *models.Board) error
	ListBackups() ([]string, error)
	LoadBackup(name string) (*models.Board, error)
}

type fileBoardManager struct {
	basePath string
}

// NewBoardManager creates a BoardManager backed by a board.yaml file in the
// given base directory, with backups under backups/.
func NewBoardManager(basePath string) BoardManager {
	return &fileBoardManager{basePath: basePath}
}

func (m *fileBoardManager) boardPath() string {
	return filepath.Join(m.basePath, "board.yaml")
}

func (m *fileBoardManager) backupDir() string {
	return filepath.Join(m.basePath, "backups")
}

func (m *fileBoardManager) lockPath() string {
	return filepath.Join(m.basePath, ".board.lock")
}

// Load reads the board document. It returns ErrBoardNotFound when the file
// does not exist and a *ParseError when the document is malformed.
func (m *fileBoardManager) Load() (*models.Board, error) {
	unlock, err := lockFile(m.lockPath())
	if err != nil {
		return nil, fmt.Errorf("loading board: %w", err)
	}
	defer func() { _ = unlock() }()

	return m.loadLocked()
}

func (m *fileBoardManager) loadLocked() (*models.Board, error) {
	data, err := os.ReadFile(m.boardPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("loading board: %w", err)
	}

	var board models.Board
	if err := yaml.Unmarshal(data, &board); err != nil {
		return nil, &ParseError{Path: m.boardPath(), Err: err}
	}
	if board.Stages == nil {
		board.Stages = make(map[models.Stage][]models.Task)
	}
	for _, s := range models.Stages() {
		if _, ok := board.Stages[s]; !ok {
			board.Stages[s] = nil
		}
	}
	if board.Agents == nil {
		board.Agents = make(map[string]models.Agent)
	}
	return &board, nil
}

// LoadOrInit reads the board document, returning a fresh empty board when
// none exists yet. Parse errors are still fatal.
func (m *fileBoardManager) LoadOrInit() (*models.Board, error) {
	board, err := m.Load()
	if errors.Is(err, ErrBoardNotFound) {
		return models.NewBoard(), nil
	}
	return board, err
}

// Save recomputes the summary, writes an immutable timestamped backup of the
// new snapshot, then atomically replaces board.yaml. There is no partial
// write path: a save is the whole board or nothing.
func (m *fileBoardManager) Save(board *models.Board) error {
	if board == nil {
		return fmt.Errorf("saving board: board must not be nil")
	}

	unlock, err := lockFile(m.lockPath())
	if err != nil {
		return fmt.Errorf("saving board: %w", err)
	}
	defer func() { _ = unlock() }()

	board.RecomputeSummary()

	data, err := yaml.Marshal(board)
	if err != nil {
		return fmt.Errorf("saving board: marshaling YAML: %w", err)
	}

	if err := os.MkdirAll(m.backupDir(), 0o750); err != nil {
		return fmt.Errorf("saving board: creating backup directory: %w", err)
	}
	backupName := fmt.Sprintf("board-%s.yaml", time.Now().UTC().Format("20060102-150405.000000"))
	backupPath := filepath.Join(m.backupDir(), backupName)
	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return fmt.Errorf("saving board: writing backup: %w", err)
	}

	// Atomic replace: write to a temp file in the same directory, then rename.
	tmp, err := os.CreateTemp(m.basePath, ".board-*.yaml")
	if err != nil {
		return fmt.Errorf("saving board: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("saving board: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("saving board: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, m.boardPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("saving board: replacing board.yaml: %w", err)
	}

	return nil
}

// ListBackups returns the backup snapshot names sorted oldest first.
func (m *fileBoardManager) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(m.backupDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing backups: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// LoadBackup reads a single backup snapshot by name.
func (m *fileBoardManager) LoadBackup(name string) (*models.Board, error) {
	path := filepath.Join(m.backupDir(), filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("backup %s not found", name)
		}
		return nil, fmt.Errorf("loading backup %s: %w", name, err)
	}

	var board models.Board
	if err := yaml.Unmarshal(data, &board); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &board, nil
}
