package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/himanishpuri/ScoreSync/pkg/utils"
)

// Entry names a file shown by Status.
type Entry struct {
	Path  string
	Label string
}

// FileStatus is the state of one target on disk.
type FileStatus struct {
	Entry
	Exists  bool
	Size    int64
	ModTime time.Time
}

// Status stats every entry and sorts by modification time, oldest first,
// with missing files ahead of all existing ones.
func Status(entries []Entry) ([]FileStatus, error) {
	out := make([]FileStatus, 0, len(entries))
	for _, e := range entries {
		fi, err := os.Stat(e.Path)
		if errors.Is(err, fs.ErrNotExist) {
			out = append(out, FileStatus{Entry: e})
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, FileStatus{Entry: e, Exists: true, Size: fi.Size(), ModTime: fi.ModTime()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Exists != out[j].Exists {
			return !out[i].Exists
		}
		return out[i].ModTime.Before(out[j].ModTime)
	})
	return out, nil
}

// Clean removes paths and returns the ones that existed.
func Clean(paths []string) ([]string, error) {
	var deleted []string
	for _, p := range paths {
		removed, err := utils.RemoveFile(p)
		if err != nil {
			return deleted, err
		}
		if removed {
			deleted = append(deleted, p)
		}
	}
	return deleted, nil
}
