package integration

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// FileSignal reports the existence and implementation depth of one target
// file. These signals inform disposition decisions outside the engine; the
// state machine never consumes them.
type FileSignal struct {
	Path   string `yaml:"path"`
	Exists bool   `yaml:"exists"`
	Lines  int    `yaml:"lines"`
	Stub   bool   `yaml:"stub"`
}

// TaskFileValidator inspects a task's target files.
type TaskFileValidator interface {
	Inspect(paths []string) []FileSignal
}

// taskFileValidator implements TaskFileValidator by reading files relative
// to the base path.
type taskFileValidator struct {
	basePath string
}

// NewTaskFileValidator creates a TaskFileValidator rooted at basePath.
func NewTaskFileValidator(basePath string) TaskFileValidator {
	return &taskFileValidator{basePath: basePath}
}

// stubMarkers are substrings whose presence marks a file as not yet
// substantially implemented.
var stubMarkers = []string{
	"TODO",
	"FIXME",
	"not implemented",
	"NotImplemented",
}

// Inspect returns one signal per path. A file counts as a stub when it is
// very short or carries an unimplemented marker.
func (v *taskFileValidator) Inspect(paths []string) []FileSignal {
	signals := make([]FileSignal, 0, len(paths))
	for _, p := range paths {
		signals = append(signals, v.inspectOne(p))
	}
	return signals
}

func (v *taskFileValidator) inspectOne(path string) FileSignal {
	signal := FileSignal{Path: path}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(v.basePath, path)
	}

	f, err := os.Open(full)
	if err != nil {
		return signal
	}
	defer func() { _ = f.Close() }()

	signal.Exists = true
	marker := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		signal.Lines++
		if !marker {
			line := scanner.Text()
			for _, m := range stubMarkers {
				if strings.Contains(line, m) {
					marker = true
					break
				}
			}
		}
	}

	signal.Stub = marker || signal.Lines < 10
	return signal
}
