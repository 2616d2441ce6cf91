package scoresync

import (
	"github.com/himanishpuri/ScoreSync/internal/storage"
)

// storageAdapter adapts storage.DBClient to the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage opens (creating if needed) a SQLite digest store. An
// empty path defers to SCORESYNC_CACHE_PATH and then storage.DefaultDBFile.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	var (
		db  *storage.DBClient
		err error
	)
	if dbPath == "" {
		db, err = storage.NewDBClient()
	} else {
		db, err = storage.NewDBClientWithPath(dbPath)
	}
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) LoadDigests(task string) (map[string]string, bool, error) {
	return s.db.LoadDigests(task)
}

func (s *storageAdapter) ReplaceDigests(task string, digests map[string]string) error {
	return s.db.ReplaceDigests(task, digests)
}

func (s *storageAdapter) DeleteTask(task string) error {
	return s.db.DeleteTask(task)
}

func (s *storageAdapter) ListTasks() ([]TaskInfo, error) {
	rows, err := s.db.ListTasks()
	if err != nil {
		return nil, err
	}
	out := make([]TaskInfo, len(rows))
	for i, r := range rows {
		out[i] = TaskInfo{Name: r.Task, Paths: r.Paths, UpdatedAt: r.UpdatedAt}
	}
	return out, nil
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
