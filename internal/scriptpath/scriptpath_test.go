package scriptpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arjendijkstra/dispatchd/internal/domain"
)

func TestResolveWithinRoot(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := r.Resolve("jobs/backup.sh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "jobs", "backup.sh")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()
	r, _ := NewResolver(root)

	if _, err := r.Resolve("../etc/passwd"); err != domain.ErrInvalidScriptPath {
		t.Fatalf("expected ErrInvalidScriptPath, got %v", err)
	}
	if _, err := r.Resolve("jobs/../../etc/passwd"); err != domain.ErrInvalidScriptPath {
		t.Fatalf("expected ErrInvalidScriptPath, got %v", err)
	}
}

func TestResolveRejectsAbsolute(t *testing.T) {
	root := t.TempDir()
	r, _ := NewResolver(root)

	if _, err := r.Resolve("/etc/passwd"); err != domain.ErrInvalidScriptPath {
		t.Fatalf("expected ErrInvalidScriptPath, got %v", err)
	}
}

func TestResolveRejectsEmpty(t *testing.T) {
	root := t.TempDir()
	r, _ := NewResolver(root)

	if _, err := r.Resolve(""); err != domain.ErrInvalidScriptPath {
		t.Fatalf("expected ErrInvalidScriptPath, got %v", err)
	}
}

func TestExistsRejectsDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	r, _ := NewResolver(root)

	if _, err := r.Exists("subdir"); err != domain.ErrInvalidScriptPath {
		t.Fatalf("expected ErrInvalidScriptPath, got %v", err)
	}
}

func TestExistsResolvesRegularFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "backup.sh"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write file: %v", err)
	}
	r, _ := NewResolver(root)

	got, err := r.Exists("backup.sh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "backup.sh")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
