package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/bep/debounce"
	"github.com/himanishpuri/ScoreSync/pkg/utils"
	"golang.org/x/exp/maps"
)

// Watch runs name once, then polls the sources of name and its
// prerequisites every interval. Sources produced by a task of the chain are
// not watched. A burst of changes triggers a single run
// once the files have been quiet for the quiet period. Failed runs are
// logged and watching continues. Watch returns when ctx is done.
func (r *Runner) Watch(ctx context.Context, name string, interval, quiet time.Duration) error {
	order, err := r.pipeline.Order(name)
	if err != nil {
		return err
	}
	generated := make(map[string]bool)
	for _, n := range order {
		t, _ := r.pipeline.Task(n)
		for _, target := range t.Targets {
			generated[target] = true
		}
	}
	var patterns []string
	for _, n := range order {
		t, _ := r.pipeline.Task(n)
		for _, src := range t.Sources {
			if !generated[src] {
				patterns = append(patterns, src)
			}
		}
	}

	last, err := snapshot(patterns)
	if err != nil {
		return err
	}
	r.runLogged(ctx, name)

	trigger := make(chan struct{}, 1)
	debounced := debounce.New(quiet)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Infof("Watching %d source patterns for %s", len(patterns), name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur, err := snapshot(patterns)
			if err != nil {
				r.log.Warnf("Watch: %v", err)
				continue
			}
			if maps.Equal(cur, last) {
				continue
			}
			last = cur
			debounced(func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			r.runLogged(ctx, name)
		}
	}
}

func (r *Runner) runLogged(ctx context.Context, name string) {
	if _, err := r.Run(ctx, name, false); err != nil && ctx.Err() == nil {
		r.log.Errorf("Run of %s failed: %v", name, err)
	}
}

// snapshot hashes the current files behind patterns.
func snapshot(patterns []string) (map[string]string, error) {
	paths, err := ExpandSources(patterns)
	if err != nil {
		return nil, err
	}
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
