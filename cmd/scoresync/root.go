package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/himanishpuri/ScoreSync/internal/pipeline"
	"github.com/himanishpuri/ScoreSync/internal/table"
	"github.com/himanishpuri/ScoreSync/pkg/logger"
	"github.com/himanishpuri/ScoreSync/pkg/scoresync"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	cachePath    string
	pipelinePath string
	logLevel     string
	timestamps   bool
	plain        bool
	sourceRoot   string
	sourceMount  string
	hrefPrefixes []string

	log *logger.Logger
	out io.Writer
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func newRootCmd() *cobra.Command {
	g := &globals{out: os.Stdout}

	root := &cobra.Command{
		Use:   "scoresync",
		Short: "Align rendered MIDI timings with SVG noteheads",
		Long: `scoresync turns a LilyPond rendering (MIDI + SVG) into a JSON list of
notes with their onset, release and the SVG elements that draw them, and
drives the rendering steps from a cached pipeline file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.cachePath, "cache", "", "Path to the build cache database (default $SCORESYNC_CACHE_PATH or .scoresync/cache.sqlite3)")
	pf.StringVarP(&g.pipelinePath, "pipeline", "f", getEnvOrDefault("SCORESYNC_PIPELINE", "scoresync.yaml"), "Pipeline definition file")
	pf.StringVar(&g.logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "info"), "debug, info, warn or error")
	pf.BoolVar(&g.timestamps, "timestamps", false, "Always prefix log lines with a timestamp")
	pf.BoolVar(&g.plain, "plain", false, "Never prefix log lines with a timestamp")
	pf.StringVar(&g.sourceRoot, "source-root", ".", "Directory holding the score sources")
	pf.StringVar(&g.sourceMount, "source-mount", "/work/", "Directory the renderer saw the sources under")
	pf.StringSliceVar(&g.hrefPrefixes, "href-prefix", table.DefaultHrefPrefixes, "Prefixes removed from hrefs before matching, in order")
	root.MarkFlagsMutuallyExclusive("timestamps", "plain")

	root.AddCommand(
		newAlignCmd(g),
		newExtractMidiCmd(g),
		newExtractNoteheadsCmd(g),
		newRunCmd(g),
		newWatchCmd(g),
		newStatusCmd(g),
		newCleanCmd(g),
	)
	return root
}

func (g *globals) setup(cmd *cobra.Command) error {
	level, ok := logger.ParseLevel(g.logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", g.logLevel)
	}

	cfg := logger.DefaultConfig()
	cfg.Level = level
	cfg.Output = cmd.ErrOrStderr()
	switch {
	case g.timestamps:
		cfg.Timestamps = logger.TimestampAlways
	case g.plain:
		cfg.Timestamps = logger.TimestampNever
	}
	g.log = logger.New(cfg)
	g.out = cmd.OutOrStdout()
	return nil
}

// createService creates a service configured from the global flags.
func (g *globals) createService() (scoresync.Service, error) {
	return scoresync.NewService(
		scoresync.WithLogger(g.log),
		scoresync.WithCachePath(g.cachePath),
		scoresync.WithHrefPrefixes(g.hrefPrefixes...),
		scoresync.WithSourceRoot(g.sourceRoot),
		scoresync.WithSourceMount(g.sourceMount),
	)
}

func (g *globals) loadPipeline() (*pipeline.Pipeline, error) {
	p, err := pipeline.Load(g.pipelinePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no pipeline file at %s (set --pipeline or SCORESYNC_PIPELINE)", g.pipelinePath)
		}
		return nil, err
	}
	return p, nil
}
