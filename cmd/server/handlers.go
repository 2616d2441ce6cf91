package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/himanishpuri/ScoreSync/internal/table"
	"github.com/himanishpuri/ScoreSync/pkg/scoresync"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service scoresync.Service
	config  *ServerConfig
	log     scoresync.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	NotesPath      string
	SVGPath        string
	Align          scoresync.AlignRequest
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service scoresync.Service, config *ServerConfig, log scoresync.Logger) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     log,
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// loadNotes reads the notes file on every call so that a pipeline
// rebuild shows up without restarting the server.
func (s *Server) loadNotes(w http.ResponseWriter) ([]scoresync.AlignedNote, bool) {
	notes, err := table.ReadFile(s.config.NotesPath, table.ReadNotes)
	if errors.Is(err, fs.ErrNotExist) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("notes file %s does not exist yet", s.config.NotesPath))
		return nil, false
	}
	if err != nil {
		s.log.Errorf("Failed to read notes: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to read notes")
		return nil, false
	}
	return notes, true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "ScoreSync preview",
		"endpoints": map[string]string{
			"health":   "GET /health",
			"notes":    "GET /api/notes",
			"note":     "GET /api/notes/{index}",
			"sounding": "GET /api/notes/at/{seconds}",
			"align":    "POST /api/align",
			"score":    "GET /score.svg",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleListNotes handles GET /api/notes
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, ok := s.loadNotes(w)
	if !ok {
		return
	}
	if notes == nil {
		notes = []scoresync.AlignedNote{}
	}
	s.respondJSON(w, http.StatusOK, NotesResponse{Notes: notes, Count: len(notes)})
}

// handleGetNote handles GET /api/notes/{index}
func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	notes, ok := s.loadNotes(w)
	if !ok {
		return
	}
	if index < 0 || index >= len(notes) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("no note at index %d (have %d)", index, len(notes)))
		return
	}
	s.respondJSON(w, http.StatusOK, NoteResponse{Index: index, Note: notes[index]})
}

// handleSounding handles GET /api/notes/at/{seconds}. A note sounds from its
// onset up to, not including, its release.
func (s *Server) handleSounding(w http.ResponseWriter, r *http.Request) {
	at, err := strconv.ParseFloat(mux.Vars(r)["seconds"], 64)
	if err != nil || at < 0 {
		s.respondError(w, http.StatusBadRequest, "seconds must be a non-negative number")
		return
	}
	notes, ok := s.loadNotes(w)
	if !ok {
		return
	}

	resp := SoundingResponse{Seconds: at, Notes: []scoresync.AlignedNote{}, Hrefs: []string{}}
	for _, n := range notes {
		if n.OnSec <= at && at < n.OffSec {
			resp.Notes = append(resp.Notes, n)
			resp.Hrefs = append(resp.Hrefs, n.Hrefs...)
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleScore handles GET /score.svg
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if s.config.SVGPath == "" {
		s.respondError(w, http.StatusNotFound, "no score configured")
		return
	}
	if _, err := os.Stat(s.config.SVGPath); err != nil {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("score %s not found", s.config.SVGPath))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	http.ServeFile(w, r, s.config.SVGPath)
}

// handleAlign handles POST /api/align, re-running the alignment from the
// configured CSV files.
func (s *Server) handleAlign(w http.ResponseWriter, r *http.Request) {
	req := s.config.Align
	if req.MidiCSV == "" || req.NoteheadsCSV == "" {
		s.respondError(w, http.StatusServiceUnavailable, "alignment inputs are not configured")
		return
	}
	req.Output = s.config.NotesPath

	res, err := s.service.Align(r.Context(), req)
	var mm *scoresync.MismatchError
	if errors.As(err, &mm) {
		s.log.Warnf("Alignment aborted: %v", mm)
		s.respondJSON(w, http.StatusUnprocessableEntity, MismatchResponse{
			Error:             mm.Error(),
			Index:             mm.Index,
			MidiPitch:         mm.MidiPitch,
			MidiPitchClass:    mm.MidiPitchClass,
			SnippetPitchClass: mm.SnippetPitchClass,
			Snippet:           mm.Snippet,
			Href:              mm.Href,
		})
		return
	}
	if err != nil {
		s.log.Errorf("Alignment failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rep := res.Report
	s.respondJSON(w, http.StatusOK, AlignResponse{
		Message:         "Notes aligned",
		Aligned:         rep.Aligned,
		Events:          rep.Events,
		Noteheads:       rep.Noteheads,
		SecondaryHidden: rep.SecondaryHidden,
		LengthMismatch:  rep.LengthMismatch,
	})
}
