package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/valter-silva-au/agentboard/pkg/models"
)

// memBoardStore is an in-memory BoardStore for engine tests.
type memBoardStore struct {
	mu    sync.Mutex
	board *models.Board
	saves int
}

func newMemBoardStore() *memBoardStore {
	return &memBoardStore{board: models.NewBoard()}
}

func (s *memBoardStore) LoadOrInit() (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board, nil
}

func (s *memBoardStore) Save(board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	board.RecomputeSummary()
	s.board = board
	s.saves++
	return nil
}

// fakeWorkspaces tracks provisioned workspaces in memory.
type fakeWorkspaces struct {
	mu       sync.Mutex
	existing map[string]string
	failNext bool
}

func newFakeWorkspaces() *fakeWorkspaces {
	return &fakeWorkspaces{existing: make(map[string]string)}
}

func (w *fakeWorkspaces) Exists(agentID string) (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	path, ok := w.existing[agentID]
	return ok, path
}

func (w *fakeWorkspaces) Create(agentID string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failNext {
		w.failNext = false
		return "", errFakeWorkspace
	}
	path := "/workspaces/" + agentID
	w.existing[agentID] = path
	return path, nil
}

func (w *fakeWorkspaces) Remove(agentID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.existing, agentID)
	return nil
}

func (w *fakeWorkspaces) List() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.existing))
	for name := range w.existing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type fakeWorkspaceError string

func (e fakeWorkspaceError) Error() string { return string(e) }

const errFakeWorkspace = fakeWorkspaceError("workspace provisioning refused")

// memEventLog captures LogEvent calls for assertions.
type memEventLog struct {
	mu     sync.Mutex
	events []loggedEvent
}

type loggedEvent struct {
	Type string
	Data map[string]any
}

func (l *memEventLog) LogEvent(eventType string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, loggedEvent{Type: eventType, Data: data})
	return nil
}

func (l *memEventLog) ofType(eventType string) []loggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []loggedEvent
	for _, e := range l.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// testTask builds a minimal todo task.
func testTask(id, title string) models.Task {
	return models.Task{
		ID:       id,
		Title:    title,
		Priority: models.PriorityNormal,
		Created:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}
