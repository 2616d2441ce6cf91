package scoresync

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/himanishpuri/ScoreSync/internal/align"
	"github.com/himanishpuri/ScoreSync/internal/midi"
	"github.com/himanishpuri/ScoreSync/internal/model"
	"github.com/himanishpuri/ScoreSync/internal/svg"
	"github.com/himanishpuri/ScoreSync/internal/table"
	"github.com/himanishpuri/ScoreSync/internal/ties"
	"github.com/himanishpuri/ScoreSync/pkg/logger"
)

// scoreService is the default implementation of the Service interface.
type scoreService struct {
	log    Logger
	config *Config

	cacheOnce sync.Once
	cache     Cache
	cacheErr  error
	ownsCache bool
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	s := &scoreService{log: cfg.Logger, config: cfg}
	if cfg.Cache != nil {
		s.cacheOnce.Do(func() { s.cache = cfg.Cache })
	}
	return s, nil
}

func (s *scoreService) normalize(href string) string {
	return table.NormalizeHref(href, s.config.HrefPrefixes)
}

func (s *scoreService) AlignNotes(events []MidiNoteEvent, heads []SvgNotehead, edges []TieEdge) (*AlignResult, error) {
	normHeads := make([]model.SvgNotehead, len(heads))
	for i, h := range heads {
		h.Href = s.normalize(h.Href)
		normHeads[i] = h
	}
	normEdges := make([]model.TieEdge, len(edges))
	for i, e := range edges {
		normEdges[i] = model.TieEdge{Primary: s.normalize(e.Primary), Secondary: s.normalize(e.Secondary)}
	}

	forest, err := ties.NewForest(normEdges)
	if err != nil {
		return nil, fmt.Errorf("invalid tie graph: %w", err)
	}

	notes, rep, err := align.New(s.log).Align(events, normHeads, forest)
	if err != nil {
		return &AlignResult{Report: rep}, err
	}
	return &AlignResult{Notes: notes, Report: rep}, nil
}

// Align loads the tables named in req, aligns them and writes req.Output.
func (s *scoreService) Align(ctx context.Context, req AlignRequest) (*AlignResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events, err := table.ReadFile(req.MidiCSV, table.ReadMidiEvents)
	if err != nil {
		return nil, fmt.Errorf("reading midi events: %w", err)
	}
	heads, err := table.ReadFile(req.NoteheadsCSV, table.ReadNoteheads)
	if err != nil {
		return nil, fmt.Errorf("reading noteheads: %w", err)
	}
	var edges []model.TieEdge
	if req.TiesCSV != "" {
		edges, err = table.ReadFile(req.TiesCSV, table.ReadTies)
		if err != nil {
			return nil, fmt.Errorf("reading ties: %w", err)
		}
	}
	s.log.Infof("Loaded %d MIDI events, %d noteheads, %d ties", len(events), len(heads), len(edges))

	res, err := s.AlignNotes(events, heads, edges)
	if err != nil {
		return res, err
	}

	if req.Output != "" {
		if err := table.WriteFile(req.Output, res.Notes, table.WriteNotes); err != nil {
			return nil, fmt.Errorf("writing notes: %w", err)
		}
		s.log.Infof("Wrote %d aligned notes to %s", len(res.Notes), req.Output)
	}
	return res, nil
}

func (s *scoreService) ExtractMidi(ctx context.Context, midiPath, outPath string, fitDuration float64) (*MidiResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := midi.ReadFile(midiPath)
	if err != nil {
		return nil, err
	}
	events, st, err := midi.ExtractNoteEvents(file, midi.Options{FitDuration: fitDuration})
	if err != nil {
		return nil, fmt.Errorf("extracting notes from %s: %w", midiPath, err)
	}
	if st.Unclosed > 0 {
		s.log.Warnf("%s: %d notes were never released and are dropped", midiPath, st.Unclosed)
	}
	s.log.Infof("Extracted %d note events from %s", st.Notes, midiPath)

	if outPath != "" {
		if err := table.WriteFile(outPath, events, table.WriteMidiEvents); err != nil {
			return nil, fmt.Errorf("writing midi events: %w", err)
		}
	}
	return &MidiResult{Events: events, Stats: st}, nil
}

func (s *scoreService) ExtractNoteheads(ctx context.Context, svgPath, outPath string) (*NoteheadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(svgPath)
	if err != nil {
		return nil, fmt.Errorf("opening svg: %w", err)
	}
	defer f.Close()

	sources := svg.NewSourceResolver(s.config.SourceRoot, s.config.SourceMount)
	heads, st, err := svg.NewExtractor(sources, s.log).Extract(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", svgPath, err)
	}
	s.log.Infof("Found %d noteheads in %s (%d links, %d not pitches, %d without transform)",
		st.Noteheads, svgPath, st.Anchors, st.NotAPitch, st.NoTransform)

	if outPath != "" {
		if err := table.WriteFile(outPath, heads, table.WriteNoteheads); err != nil {
			return nil, fmt.Errorf("writing noteheads: %w", err)
		}
	}
	return &NoteheadResult{Noteheads: heads, Stats: st}, nil
}

func (s *scoreService) Cache() (Cache, error) {
	s.cacheOnce.Do(func() {
		s.cache, s.cacheErr = OpenCache(s.config.CachePath, s.log)
		s.ownsCache = s.cacheErr == nil
	})
	return s.cache, s.cacheErr
}

// Close releases the cache if the service opened it. A cache passed in
// with WithCache belongs to the caller.
func (s *scoreService) Close() error {
	if s.cache == nil || !s.ownsCache {
		return nil
	}
	return s.cache.Close()
}
