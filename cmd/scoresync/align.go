package main

import (
	"fmt"

	"github.com/himanishpuri/ScoreSync/pkg/scoresync"
	"github.com/spf13/cobra"
)

func newAlignCmd(g *globals) *cobra.Command {
	var req scoresync.AlignRequest

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Pair MIDI note events with SVG noteheads and write the notes JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := g.createService()
			if err != nil {
				return err
			}
			defer service.Close()

			res, err := service.Align(cmd.Context(), req)
			if err != nil {
				return err
			}
			rep := res.Report
			fmt.Fprintf(g.out, "Aligned %d notes (%d MIDI events, %d noteheads, %d hidden by ties)\n",
				rep.Aligned, rep.Events, rep.Noteheads, rep.SecondaryHidden)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.MidiCSV, "midi", "", "MIDI note events CSV (pitch,on,off,channel)")
	cmd.Flags().StringVar(&req.NoteheadsCSV, "noteheads", "", "Noteheads CSV (index,x,y,snippet,href)")
	cmd.Flags().StringVar(&req.TiesCSV, "ties", "", "Tie edges CSV (primary,secondary)")
	cmd.Flags().StringVarP(&req.Output, "out", "o", "notes.json", "Output JSON file")
	cmd.MarkFlagRequired("midi")
	cmd.MarkFlagRequired("noteheads")
	return cmd
}

func newExtractMidiCmd(g *globals) *cobra.Command {
	var (
		out         string
		fitDuration float64
	)

	cmd := &cobra.Command{
		Use:   "extract-midi <file.midi>",
		Short: "Write the sounded notes of a MIDI file as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := g.createService()
			if err != nil {
				return err
			}
			defer service.Close()

			res, err := service.ExtractMidi(cmd.Context(), args[0], out, fitDuration)
			if err != nil {
				return err
			}
			fmt.Fprintf(g.out, "Wrote %d note events to %s\n", len(res.Events), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "notes_midi.csv", "Output CSV file")
	cmd.Flags().Float64Var(&fitDuration, "fit-duration", 0, "Stretch the timeline so the last event lands at this many seconds (0 uses the tempo map)")
	return cmd
}

func newExtractNoteheadsCmd(g *globals) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "extract-noteheads <file.svg>",
		Short: "Write the noteheads of a LilyPond SVG as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := g.createService()
			if err != nil {
				return err
			}
			defer service.Close()

			res, err := service.ExtractNoteheads(cmd.Context(), args[0], out)
			if err != nil {
				return err
			}
			fmt.Fprintf(g.out, "Wrote %d noteheads to %s\n", len(res.Noteheads), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "notes_svg.csv", "Output CSV file")
	return cmd
}
