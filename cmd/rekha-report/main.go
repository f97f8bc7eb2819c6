package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ayusman/rekha/internal/config"
	"github.com/ayusman/rekha/internal/report"
	"github.com/ayusman/rekha/internal/store"
)

func main() {
	runID := flag.String("run", "", "run id to chart (default: most recent run)")
	dbPath := flag.String("db", "", "store path (default ~/.rekha/rekha.db)")
	outDir := flag.String("out", "", "output directory (default rekha-report-<run>)")
	configPath := flag.String("config", "", "processing profile JSON path")
	listRuns := flag.Bool("list", false, "list stored runs and exit")
	flag.Parse()

	st, err := store.New(resolveStorePath(*dbPath))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	if *listRuns {
		printRuns(st)
		return
	}

	profile := config.Default()
	if *configPath != "" {
		p, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load profile: %v", err)
		}
		profile = p
	}

	id := *runID
	if id == "" {
		id = latestRunID(st)
	}

	dir := *outDir
	if dir == "" {
		dir = fmt.Sprintf("rekha-report-%s", shortID(id))
	}

	gen := report.New(st, profile.Alerts.DepartureThreshold)
	written, err := gen.Generate(id, dir)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	fmt.Printf("Run %s: %d charts written to %s\n", shortID(id), len(written), dir)
	for _, f := range written {
		fmt.Printf("  %s\n", filepath.Base(f))
	}
}

// printRuns lists the stored runs, newest first.
func printRuns(st *store.Store) {
	runs, err := st.Runs().List()
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return
	}

	for _, r := range runs {
		state := "running"
		if r.Finished() {
			state = fmt.Sprintf("%d frames", r.Frames)
		}
		fmt.Printf("%s  %s  %s  %s\n", shortID(r.ID), r.StartedAt.Format("2006-01-02 15:04:05"), state, r.Source)
	}
}

// latestRunID returns the most recently started run's id.
func latestRunID(st *store.Store) string {
	runs, err := st.Runs().List()
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		log.Fatal("No runs recorded; process a video first")
	}
	return runs[0].ID
}

// shortID abbreviates a uuid for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveStorePath returns the database path, defaulting to ~/.rekha/rekha.db.
func resolveStorePath(path string) string {
	if path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	return filepath.Join(homeDir, ".rekha", "rekha.db")
}
