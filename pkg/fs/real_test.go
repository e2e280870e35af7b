package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRealWriteFileAtomic(t *testing.T) {
	t.Parallel()

	fsys := NewReal()
	path := filepath.Join(t.TempDir(), "out.txt")

	if err := fsys.WriteFileAtomic(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	// Overwrite replaces the content in one step.
	if err := fsys.WriteFileAtomic(path, []byte("replaced"), 0o600); err != nil {
		t.Fatal(err)
	}

	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "replaced" {
		t.Errorf("content = %q, want %q", data, "replaced")
	}
}

func TestRealExists(t *testing.T) {
	t.Parallel()

	fsys := NewReal()
	dir := t.TempDir()

	exists, err := fsys.Exists(filepath.Join(dir, "nope"))
	if err != nil {
		t.Fatal(err)
	}

	if exists {
		t.Error("Exists = true for missing file")
	}

	path := filepath.Join(dir, "yes")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	exists, err = fsys.Exists(path)
	if err != nil {
		t.Fatal(err)
	}

	if !exists {
		t.Error("Exists = false for present file")
	}
}

func TestRealRenameIsAtomicReplace(t *testing.T) {
	t.Parallel()

	fsys := NewReal()
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "staged")
	newPath := filepath.Join(dir, "published")

	if err := os.WriteFile(oldPath, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(newPath, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := fsys.Rename(oldPath, newPath); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	data, err := os.ReadFile(newPath)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("source should be gone after rename")
	}
}
