package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "cache.sqlite3")
	if err := EnsureParentDir(path); err != nil {
		t.Fatalf("Failed to create parent dir: %v", err)
	}
	if !Exists(filepath.Dir(path)) {
		t.Errorf("Expected %s to exist", filepath.Dir(path))
	}
	if err := EnsureParentDir("cache.sqlite3"); err != nil {
		t.Errorf("Expected bare file name to need no directory, got %v", err)
	}
}

func TestFileDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("pitch\n"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	got, err := FileDigest(path)
	if err != nil {
		t.Fatalf("Failed to digest file: %v", err)
	}
	want := "f17e04f5f9efcc29c89775b0d42f6aecdf1c6866b77657f336a49d2b7cca4b97"
	if got != want {
		t.Errorf("Expected digest %s, got %s", want, got)
	}

	if _, err := FileDigest(path + ".missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}

func TestRemoveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	removed, err := RemoveFile(path)
	if err != nil || !removed {
		t.Fatalf("Expected removal, got removed=%v err=%v", removed, err)
	}
	removed, err = RemoveFile(path)
	if err != nil || removed {
		t.Errorf("Expected no-op on missing file, got removed=%v err=%v", removed, err)
	}
}
