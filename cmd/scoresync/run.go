package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/ScoreSync/internal/pipeline"
	"github.com/himanishpuri/ScoreSync/pkg/scoresync"
	"github.com/spf13/cobra"
)

// withRunner loads the pipeline and opens the cache for fn.
func (g *globals) withRunner(fn func(p *pipeline.Pipeline, r *pipeline.Runner, cache scoresync.Cache) error) error {
	p, err := g.loadPipeline()
	if err != nil {
		return err
	}
	service, err := g.createService()
	if err != nil {
		return err
	}
	defer service.Close()

	cache, err := service.Cache()
	if err != nil {
		return err
	}
	return fn(p, pipeline.NewRunner(p, cache, g.log), cache)
}

func newRunCmd(g *globals) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run [task...]",
		Short: "Bring tasks up to date, rebuilding those whose sources changed",
		Long: `Runs the named tasks and their prerequisites. A task is rebuilt when the
content of one of its sources changed since its last run, or with --force.
Without arguments every task of the pipeline is run in declaration order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withRunner(func(p *pipeline.Pipeline, r *pipeline.Runner, _ scoresync.Cache) error {
				names := args
				if len(names) == 0 {
					names = p.Names()
				}
				start := time.Now()
				if _, err := r.RunTasks(cmd.Context(), names, force); err != nil {
					return err
				}
				g.log.Infof("All steps completed in %s", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even when sources are unchanged")
	return cmd
}

func newWatchCmd(g *globals) *cobra.Command {
	var interval, quiet time.Duration

	cmd := &cobra.Command{
		Use:   "watch <task>",
		Short: "Re-run a task whenever its sources change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withRunner(func(_ *pipeline.Pipeline, r *pipeline.Runner, _ scoresync.Cache) error {
				err := r.Watch(cmd.Context(), args[0], interval, quiet)
				if err == nil || errors.Is(err, context.Canceled) {
					g.log.Infof("Stopped watching %s", args[0])
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "How often sources are checked")
	cmd.Flags().DurationVar(&quiet, "quiet", 300*time.Millisecond, "How long sources must stay unchanged before a run")
	return cmd
}

func newCleanCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete every pipeline target and reset the build cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withRunner(func(p *pipeline.Pipeline, _ *pipeline.Runner, cache scoresync.Cache) error {
				var paths []string
				for _, e := range p.Targets() {
					paths = append(paths, e.Path)
				}
				deleted, err := pipeline.Clean(paths)
				if err != nil {
					return err
				}
				for _, name := range p.Names() {
					if err := cache.Forget(name); err != nil {
						return err
					}
				}

				if len(deleted) == 0 {
					fmt.Fprintln(g.out, "Deleted: nothing")
				} else {
					fmt.Fprintln(g.out, "Deleted:")
					for _, d := range deleted {
						fmt.Fprintf(g.out, "   └── %s\n", d)
					}
				}
				fmt.Fprintln(g.out, "Cleaned all generated files and build cache")
				return nil
			})
		},
	}
}
