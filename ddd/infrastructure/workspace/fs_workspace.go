package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"vibe-transcode-service/pkg/errno"
)

// FSWorkspace implements repo.WorkspaceRepository on the local filesystem.
// Every job owns one directory directly under root; nothing is ever removed.
type FSWorkspace struct {
	root string
}

// NewFSWorkspace creates the root directory (and parents) if needed.
func NewFSWorkspace(root string) (*FSWorkspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root %s: %w", abs, err)
	}
	return &FSWorkspace{root: abs}, nil
}

func (w *FSWorkspace) Root() string { return w.root }

// Allocate creates <root>/<jobID>. An existing entry of that name is never
// reused: the call fails with errno.ErrWorkspaceCollision instead.
func (w *FSWorkspace) Allocate(jobID string) (string, error) {
	if err := validateName(jobID); err != nil {
		return "", errno.NewBizError(errno.ErrInvalidParam, err)
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return "", fmt.Errorf("create workspace root: %w", err)
	}
	dir := filepath.Join(w.root, jobID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", errno.NewBizError(errno.ErrWorkspaceCollision, fmt.Errorf("workspace %s already exists", jobID))
		}
		return "", fmt.Errorf("create workspace %s: %w", jobID, err)
	}
	return dir, nil
}

// Resolve returns the absolute path of an existing job directory.
func (w *FSWorkspace) Resolve(folderName string) (string, error) {
	if err := validateName(folderName); err != nil {
		return "", errno.NewBizError(errno.ErrNotFound, err)
	}
	dir := filepath.Join(w.root, folderName)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", errno.NewBizError(errno.ErrNotFound, fmt.Errorf("workspace %s not found", folderName))
	}
	return dir, nil
}

// ListAll returns the names of the directories directly under root, in
// directory-listing order. A missing root yields an empty list.
func (w *FSWorkspace) ListAll() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list workspace root: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("empty workspace name")
	case name == "." || name == "..":
		return fmt.Errorf("invalid workspace name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("workspace name %q contains a path separator", name)
	}
	return nil
}
