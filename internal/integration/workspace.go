// Package integration contains the external collaborators the engine
// consumes: workspace provisioning and task file inspection.
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// WorkspaceManager provisions and inspects per-agent workspaces. The engine
// consumes only the existence signal; creation and removal back the
// transition and recovery paths.
type WorkspaceManager interface {
	Exists(agentID string) (bool, string)
	Create(agentID string) (string, error)
	Remove(agentID string) error
	List() ([]string, error)
}

// gitWorkspaceManager implements WorkspaceManager with git worktrees when
// the base path is a git repository, falling back to plain directories
// otherwise.
type gitWorkspaceManager struct {
	basePath string
}

// NewWorkspaceManager creates a WorkspaceManager that stores workspaces
// under basePath/workspaces/.
func NewWorkspaceManager(basePath string) WorkspaceManager {
	return &gitWorkspaceManager{basePath: basePath}
}

// workspacePath builds the canonical workspace directory for an agent:
//
//	basePath/workspaces/{agentID}
func (m *gitWorkspaceManager) workspacePath(agentID string) string {
	return filepath.Join(m.basePath, "workspaces", agentID)
}

// isGitRepo reports whether the base path is a git repository.
func (m *gitWorkspaceManager) isGitRepo() bool {
	_, err := os.Stat(filepath.Join(m.basePath, ".git"))
	return err == nil
}

// Exists reports whether the agent's backing workspace directory exists,
// and its path when it does.
func (m *gitWorkspaceManager) Exists(agentID string) (bool, string) {
	path := m.workspacePath(agentID)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return true, path
	}
	return false, ""
}

// Create provisions a workspace for the agent, reusing an existing one. In
// a git repository the workspace is a worktree on a per-agent branch; the
// plain-directory fallback covers non-git base paths and worktree
// failures (e.g. the branch already exists from an earlier claim).
func (m *gitWorkspaceManager) Create(agentID string) (string, error) {
	if agentID == "" {
		return "", fmt.Errorf("agent ID must not be empty")
	}

	path := m.workspacePath(agentID)
	if exists, _ := m.Exists(agentID); exists {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("creating workspaces directory: %w", err)
	}

	if m.isGitRepo() {
		branch := "workspace/" + agentID
		cmd := exec.Command("git", "worktree", "add", "-b", branch, path)
		cmd.Dir = m.basePath
		if output, err := cmd.CombinedOutput(); err == nil {
			return path, nil
		} else if strings.Contains(string(output), "already exists") {
			// Reattach to the existing branch.
			cmd = exec.Command("git", "worktree", "add", path, branch)
			cmd.Dir = m.basePath
			if _, err := cmd.CombinedOutput(); err == nil {
				return path, nil
			}
		}
	}

	if err := os.MkdirAll(path, 0o750); err != nil {
		return "", fmt.Errorf("creating workspace for %s: %w", agentID, err)
	}
	return path, nil
}

// Remove tears down the agent's workspace. Worktree removal is attempted
// first; the directory is removed regardless.
func (m *gitWorkspaceManager) Remove(agentID string) error {
	if agentID == "" {
		return fmt.Errorf("agent ID must not be empty")
	}

	path := m.workspacePath(agentID)
	if m.isGitRepo() {
		cmd := exec.Command("git", "worktree", "remove", "--force", path)
		cmd.Dir = m.basePath
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing workspace for %s: %w", agentID, err)
	}
	return nil
}

// List returns the agent IDs that currently have a backing workspace
// directory, sorted by name.
func (m *gitWorkspaceManager) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.basePath, "workspaces"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "agent-") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
