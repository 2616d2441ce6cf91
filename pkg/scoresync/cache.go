package scoresync

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/himanishpuri/ScoreSync/pkg/utils"
	"golang.org/x/exp/maps"
)

// BuildCache is a content-addressed Cache over a Storage.
type BuildCache struct {
	store Storage
	log   Logger
}

// NewCache wraps store. log may be nil.
func NewCache(store Storage, log Logger) *BuildCache {
	return &BuildCache{store: store, log: log}
}

// OpenCache opens a SQLite-backed cache at path.
func OpenCache(path string, log Logger) (*BuildCache, error) {
	store, err := NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("opening build cache: %w", err)
	}
	return NewCache(store, log), nil
}

// DigestFiles hashes every existing path. Missing files are skipped so that
// a file appearing later counts as a change.
func DigestFiles(paths []string) (map[string]string, error) {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		d, err := utils.FileDigest(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[p] = d
	}
	return out, nil
}

func (c *BuildCache) Changed(task string, paths []string) (bool, error) {
	current, err := DigestFiles(paths)
	if err != nil {
		return false, fmt.Errorf("digesting sources of %s: %w", task, err)
	}
	stored, found, err := c.store.LoadDigests(task)
	if err != nil {
		return false, err
	}
	if found && maps.Equal(current, stored) {
		return false, nil
	}

	if c.log != nil {
		c.log.Debugf("%s: %d of %d sources differ from cache", task, countDiff(current, stored), len(current))
	}
	if err := c.store.ReplaceDigests(task, current); err != nil {
		return false, err
	}
	return true, nil
}

func countDiff(current, stored map[string]string) int {
	n := 0
	for p, d := range current {
		if stored[p] != d {
			n++
		}
	}
	for p := range stored {
		if _, ok := current[p]; !ok {
			n++
		}
	}
	return n
}

// Digests returns the stored digests of task, empty when unknown.
func (c *BuildCache) Digests(task string) (map[string]string, error) {
	d, _, err := c.store.LoadDigests(task)
	return d, err
}

// Forget drops task so that its next check reports a change.
func (c *BuildCache) Forget(task string) error {
	return c.store.DeleteTask(task)
}

func (c *BuildCache) Tasks() ([]TaskInfo, error) {
	return c.store.ListTasks()
}

func (c *BuildCache) Close() error {
	return c.store.Close()
}
