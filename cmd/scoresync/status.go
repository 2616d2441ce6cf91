package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/himanishpuri/ScoreSync/internal/pipeline"
	"github.com/himanishpuri/ScoreSync/pkg/scoresync"
	"github.com/spf13/cobra"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	presentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show every pipeline target, oldest first, and what the cache knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withRunner(func(p *pipeline.Pipeline, _ *pipeline.Runner, cache scoresync.Cache) error {
				files, err := pipeline.Status(p.Targets())
				if err != nil {
					return err
				}
				tasks, err := cache.Tasks()
				if err != nil {
					return err
				}
				fmt.Fprint(g.out, renderStatus(files, tasks, time.Now()))
				return nil
			})
		},
	}
}

func renderStatus(files []pipeline.FileStatus, tasks []scoresync.TaskInfo, now time.Time) string {
	var b strings.Builder

	labelWidth, pathWidth := 0, 0
	for _, f := range files {
		labelWidth = max(labelWidth, len(f.Label))
		pathWidth = max(pathWidth, len(f.Path))
	}

	b.WriteString(headerStyle.Render("Build status") + "\n")
	for _, f := range files {
		name := fmt.Sprintf("%-*s  %-*s", labelWidth, f.Label, pathWidth, f.Path)
		if !f.Exists {
			fmt.Fprintf(&b, "  %s %s %s\n", missingStyle.Render("✗"), name, dimStyle.Render("(missing)"))
			continue
		}
		fmt.Fprintf(&b, "  %s %s %10s  %s\n",
			presentStyle.Render("✓"), name,
			humanize.Bytes(uint64(f.Size)),
			dimStyle.Render(f.ModTime.Format("2006-01-02 15:04:05")+" ("+humanize.RelTime(f.ModTime, now, "ago", "from now")+")"),
		)
	}

	if len(tasks) > 0 {
		b.WriteString("\n" + headerStyle.Render("Cached tasks") + "\n")
		for _, t := range tasks {
			fmt.Fprintf(&b, "  %s  %s  %s\n", t.Name,
				english.Plural(t.Paths, "source", "sources"),
				dimStyle.Render("checked "+humanize.RelTime(t.UpdatedAt, now, "ago", "from now")))
		}
	}
	return b.String()
}
