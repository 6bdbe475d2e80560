// Package scriptpath resolves a ScheduledJob's script_path against a
// configured script root and rejects anything that would escape it. A
// dispatched job only ever names a path relative to the root; an absolute
// name, or one whose ".." segments climb out of the root, is rejected.
package scriptpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arjendijkstra/dispatchd/internal/domain"
)

// Resolver validates and resolves script paths against a fixed root directory.
type Resolver struct {
	root string
}

// Root returns the resolver's script root, e.g. as a child process's
// working directory.
func (r *Resolver) Root() string {
	return r.root
}

// NewResolver returns a Resolver rooted at root. root is made absolute and
// cleaned once up front so every later comparison is between two clean,
// absolute paths.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve script root %q: %w", root, err)
	}
	return &Resolver{root: filepath.Clean(abs)}, nil
}

// Resolve joins relative against the script root and returns the absolute
// path, failing with domain.ErrInvalidScriptPath if the result would fall
// outside the root or if relative is itself absolute.
func (r *Resolver) Resolve(relative string) (string, error) {
	if relative == "" {
		return "", domain.ErrInvalidScriptPath
	}
	if filepath.IsAbs(relative) {
		return "", domain.ErrInvalidScriptPath
	}

	joined := filepath.Join(r.root, relative)
	within, err := isPathWithin(joined, r.root)
	if err != nil {
		return "", fmt.Errorf("resolve script path: %w", err)
	}
	if !within {
		return "", domain.ErrInvalidScriptPath
	}
	return joined, nil
}

// Exists resolves relative and confirms the target file is present and
// regular (not a directory, not a symlink to one), returning the resolved
// absolute path on success.
func (r *Resolver) Exists(relative string) (string, error) {
	resolved, err := r.Resolve(relative)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat script %q: %w", relative, err)
	}
	if !info.Mode().IsRegular() {
		return "", domain.ErrInvalidScriptPath
	}
	return resolved, nil
}

func isPathWithin(path, root string) (bool, error) {
	rel, err := filepath.Rel(root, filepath.Clean(path))
	if err != nil {
		return false, err
	}
	if rel == "." {
		return true, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}
