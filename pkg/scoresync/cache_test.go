package scoresync

import (
	"os"
	"path/filepath"
	"testing"
)

func setupTestCache(t *testing.T) (*BuildCache, string) {
	t.Helper()
	dir := t.TempDir()
	cache, err := OpenCache(filepath.Join(dir, "cache.sqlite3"), quietLogger())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() {
		cache.Close()
	})
	return cache, dir
}

func mustChanged(t *testing.T, c Cache, task string, paths []string) bool {
	t.Helper()
	changed, err := c.Changed(task, paths)
	if err != nil {
		t.Fatalf("Changed(%s): %v", task, err)
	}
	return changed
}

func TestCacheChangeDetection(t *testing.T) {
	cache, dir := setupTestCache(t)
	src := filepath.Join(dir, "score.ly")
	other := filepath.Join(dir, "defs.ily")
	os.WriteFile(src, []byte("{ c'4 }"), 0o644)
	paths := []string{src, other}

	if !mustChanged(t, cache, "svg", paths) {
		t.Error("First check must report a change")
	}
	if mustChanged(t, cache, "svg", paths) {
		t.Error("Unchanged sources reported as changed")
	}

	// same bytes rewritten: content addressed, so still up to date
	os.WriteFile(src, []byte("{ c'4 }"), 0o644)
	if mustChanged(t, cache, "svg", paths) {
		t.Error("Rewriting identical content must not count as a change")
	}

	os.WriteFile(src, []byte("{ d'4 }"), 0o644)
	if !mustChanged(t, cache, "svg", paths) {
		t.Error("Edited source not detected")
	}

	// a previously missing file appearing is a change
	os.WriteFile(other, []byte("x = 1"), 0o644)
	if !mustChanged(t, cache, "svg", paths) {
		t.Error("New source file not detected")
	}

	os.Remove(other)
	if !mustChanged(t, cache, "svg", paths) {
		t.Error("Removed source file not detected")
	}
}

func TestCacheDigestsSkipMissing(t *testing.T) {
	cache, dir := setupTestCache(t)
	src := filepath.Join(dir, "a.csv")
	os.WriteFile(src, []byte("pitch\n"), 0o644)

	mustChanged(t, cache, "align", []string{src, filepath.Join(dir, "gone.csv")})

	digests, err := cache.Digests("align")
	if err != nil {
		t.Fatalf("Digests: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("Expected 1 digest, got %v", digests)
	}
	// sha256("pitch\n")
	if got := digests[src]; got != "f17e04f5f9efcc29c89775b0d42f6aecdf1c6866b77657f336a49d2b7cca4b97" {
		t.Errorf("Unexpected digest %q", got)
	}
}

func TestCacheForget(t *testing.T) {
	cache, dir := setupTestCache(t)
	src := filepath.Join(dir, "a.midi")
	os.WriteFile(src, []byte("MThd"), 0o644)
	paths := []string{src}

	mustChanged(t, cache, "midi", paths)
	if err := cache.Forget("midi"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if !mustChanged(t, cache, "midi", paths) {
		t.Error("Forgotten task must report a change")
	}
}

func TestCacheTaskWithoutSources(t *testing.T) {
	cache, _ := setupTestCache(t)

	if !mustChanged(t, cache, "all", nil) {
		t.Error("First run of a task without sources must run")
	}
	if mustChanged(t, cache, "all", nil) {
		t.Error("Second run of a task without sources must be up to date")
	}
}

func TestCacheTasks(t *testing.T) {
	cache, dir := setupTestCache(t)
	a := filepath.Join(dir, "a")
	os.WriteFile(a, []byte("a"), 0o644)

	mustChanged(t, cache, "svg", []string{a})
	mustChanged(t, cache, "align", nil)

	tasks, err := cache.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Name != "align" || tasks[1].Name != "svg" {
		t.Fatalf("Unexpected tasks %+v", tasks)
	}
	if tasks[0].Paths != 0 || tasks[1].Paths != 1 {
		t.Errorf("Unexpected path counts %+v", tasks)
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.sqlite3")
	src := filepath.Join(dir, "score.ly")
	os.WriteFile(src, []byte("{ c }"), 0o644)

	first, err := OpenCache(dbPath, nil)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	mustChanged(t, first, "svg", []string{src})
	first.Close()

	second, err := OpenCache(dbPath, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if mustChanged(t, second, "svg", []string{src}) {
		t.Error("Cache lost its state across reopen")
	}
}
