package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/ScoreSync/pkg/logger"
	"github.com/himanishpuri/ScoreSync/pkg/scoresync"
)

var (
	port           int
	notesPath      string
	svgPath        string
	midiCSV        string
	noteheadsCSV   string
	tiesCSV        string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&notesPath, "notes", getEnvOrDefault("SCORESYNC_NOTES", "notes.json"), "Aligned notes JSON to serve")
	flag.StringVar(&svgPath, "svg", getEnvOrDefault("SCORESYNC_SVG", "score.svg"), "Score SVG to serve")
	flag.StringVar(&midiCSV, "midi", "", "MIDI events CSV used by POST /api/align")
	flag.StringVar(&noteheadsCSV, "noteheads", "", "Noteheads CSV used by POST /api/align")
	flag.StringVar(&tiesCSV, "ties", "", "Ties CSV used by POST /api/align")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	service, err := scoresync.NewService(scoresync.WithLogger(log))
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:      port,
		NotesPath: notesPath,
		SVGPath:   svgPath,
		Align: scoresync.AlignRequest{
			MidiCSV:      midiCSV,
			NoteheadsCSV: noteheadsCSV,
			TiesCSV:      tiesCSV,
		},
		AllowedOrigins: origins,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewServer(service, config, log).Start(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}
