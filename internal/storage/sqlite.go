// Package storage persists build-cache digests in SQLite through gorm.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/himanishpuri/ScoreSync/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = ".scoresync/cache.sqlite3"
const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Task marks that a task has a recorded state, even one with no inputs.
type Task struct {
	Name      string `gorm:"primaryKey" json:"name"`
	UpdatedAt time.Time
}

// TaskDigest is one input file of one task as seen on the last run.
type TaskDigest struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Task      string `gorm:"uniqueIndex:idx_task_path,priority:1;not null" json:"task"`
	Path      string `gorm:"uniqueIndex:idx_task_path,priority:2;not null" json:"path"`
	Digest    string `gorm:"type:varchar(64);not null" json:"digest"`
	UpdatedAt time.Time
}

// TaskSummary describes what is stored for one task.
type TaskSummary struct {
	Task      string
	Paths     int
	UpdatedAt time.Time
}

// NewDBClient opens the database named by SCORESYNC_CACHE_PATH, or
// DefaultDBFile when unset.
func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("SCORESYNC_CACHE_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := utils.EnsureParentDir(dbPath); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// one writer at a time; concurrent sqlite writers only trade errors
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Task{}, &TaskDigest{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// LoadDigests returns path -> digest for task. found is false when nothing
// was ever stored for it.
func (c *DBClient) LoadDigests(task string) (digests map[string]string, found bool, err error) {
	if c == nil || c.DB == nil {
		return nil, false, errors.New(errDBClientNil)
	}

	var rec Task
	err = c.DB.Where("name = ?", task).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]string{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading task %s: %w", task, err)
	}

	var rows []TaskDigest
	if err := c.DB.Where("task = ?", task).Find(&rows).Error; err != nil {
		return nil, false, fmt.Errorf("loading digests for %s: %w", task, err)
	}
	digests = make(map[string]string, len(rows))
	for _, r := range rows {
		digests[r.Path] = r.Digest
	}
	return digests, true, nil
}

// ReplaceDigests swaps the stored map for task in one transaction.
func (c *DBClient) ReplaceDigests(task string, digests map[string]string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	now := time.Now()
	rows := make([]TaskDigest, 0, len(digests))
	for path, digest := range digests {
		rows = append(rows, TaskDigest{
			ID:        uuid.NewString(),
			Task:      task,
			Path:      path,
			Digest:    digest,
			UpdatedAt: now,
		})
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&Task{Name: task, UpdatedAt: now}).Error; err != nil {
			return fmt.Errorf("recording task %s: %w", task, err)
		}
		if err := tx.Where("task = ?", task).Delete(&TaskDigest{}).Error; err != nil {
			return fmt.Errorf("clearing digests for %s: %w", task, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("storing digests for %s: %w", task, err)
		}
		return nil
	})
}

// DeleteTask forgets everything stored for task.
func (c *DBClient) DeleteTask(task string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task = ?", task).Delete(&TaskDigest{}).Error; err != nil {
			return fmt.Errorf("deleting digests for %s: %w", task, err)
		}
		if err := tx.Where("name = ?", task).Delete(&Task{}).Error; err != nil {
			return fmt.Errorf("deleting task %s: %w", task, err)
		}
		return nil
	})
}

// ListTasks summarizes every stored task, sorted by name.
func (c *DBClient) ListTasks() ([]TaskSummary, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var tasks []Task
	if err := c.DB.Order("name").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	type pathCount struct {
		Task  string
		Paths int
	}
	var counts []pathCount
	if err := c.DB.Model(&TaskDigest{}).Select("task, count(*) as paths").Group("task").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("counting digests: %w", err)
	}
	byTask := make(map[string]int, len(counts))
	for _, pc := range counts {
		byTask[pc.Task] = pc.Paths
	}

	out := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, TaskSummary{Task: t.Name, Paths: byTask[t.Name], UpdatedAt: t.UpdatedAt})
	}
	return out, nil
}
