package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/himanishpuri/ScoreSync/pkg/utils"
)

var ErrMissingInput = errors.New("required input missing")

// Cache decides whether a task's sources changed since it last ran.
type Cache interface {
	Changed(task string, paths []string) (bool, error)
	Forget(task string) error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Executor runs one command line.
type Executor func(ctx context.Context, command string, stdout, stderr io.Writer) error

// ShellExecutor runs command with "sh -c", killed when ctx ends.
func ShellExecutor(ctx context.Context, command string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Outcome records what happened to one task during a run.
type Outcome struct {
	Task    string
	Ran     bool
	Deleted []string
}

type Runner struct {
	pipeline *Pipeline
	cache    Cache
	log      Logger
	exec     Executor
	stdout   io.Writer
	stderr   io.Writer
}

type RunnerOption func(*Runner)

func WithExecutor(e Executor) RunnerOption {
	return func(r *Runner) { r.exec = e }
}

// WithOutput sets where command output goes. Defaults to the process streams.
func WithOutput(stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

func NewRunner(p *Pipeline, cache Cache, log Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline: p,
		cache:    cache,
		log:      log,
		exec:     ShellExecutor,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run brings name up to date, running its prerequisites first. Each task
// runs at most once per call. With force every task in the chain rebuilds.
func (r *Runner) Run(ctx context.Context, name string, force bool) ([]Outcome, error) {
	return r.RunTasks(ctx, []string{name}, force)
}

// RunTasks is Run over several tasks; shared prerequisites still run once.
func (r *Runner) RunTasks(ctx context.Context, names []string, force bool) ([]Outcome, error) {
	seen := make(map[string]bool)
	var order []string
	for _, name := range names {
		o, err := r.pipeline.Order(name)
		if err != nil {
			return nil, err
		}
		for _, n := range o {
			if !seen[n] {
				seen[n] = true
				order = append(order, n)
			}
		}
	}

	outcomes := make([]Outcome, 0, len(order))
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		task, _ := r.pipeline.Task(n)
		out, err := r.runTask(ctx, task, force)
		outcomes = append(outcomes, out)
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

func (r *Runner) runTask(ctx context.Context, t Task, force bool) (Outcome, error) {
	out := Outcome{Task: t.Name}
	log := r.log

	for _, req := range t.Requires {
		if !utils.Exists(req) {
			log.Errorf("[%s] Missing required file: %s", t.Name, req)
			return out, fmt.Errorf("task %s: %w: %s", t.Name, ErrMissingInput, req)
		}
	}

	sources, err := ExpandSources(t.Sources)
	if err != nil {
		return out, fmt.Errorf("task %s: %w", t.Name, err)
	}

	changed := force
	if !changed {
		changed, err = r.cache.Changed(t.Name, sources)
		if err != nil {
			return out, fmt.Errorf("task %s: checking cache: %w", t.Name, err)
		}
	}

	if !changed {
		if len(t.Targets) > 0 {
			log.Infof("[%s] Up to date: %s", t.Name, strings.Join(t.Targets, ", "))
		} else {
			log.Infof("[%s] Up to date", t.Name)
		}
		return out, nil
	}

	out.Ran = true
	out.Deleted, err = Clean(t.Targets)
	if err != nil {
		return out, fmt.Errorf("task %s: %w", t.Name, err)
	}
	if len(out.Deleted) > 0 {
		log.Debugf("[%s] Deleted: %s", t.Name, strings.Join(out.Deleted, ", "))
	}

	log.Infof("[%s] Rebuilding", t.Name)
	for _, command := range t.Commands {
		log.Debugf("[%s] $ %s", t.Name, command)
		if err := r.exec(ctx, command, r.stdout, r.stderr); err != nil {
			// a failed run must not leave the sources looking up to date
			if ferr := r.cache.Forget(t.Name); ferr != nil {
				log.Warnf("[%s] Could not reset cache entry: %v", t.Name, ferr)
			}
			return out, fmt.Errorf("task %s: command %q: %w", t.Name, command, err)
		}
	}

	if len(t.Targets) > 0 {
		log.Infof("[%s] Generated: %s", t.Name, strings.Join(t.Targets, ", "))
	} else {
		log.Infof("[%s] Completed", t.Name)
	}
	return out, nil
}
