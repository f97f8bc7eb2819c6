package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ayusman/rekha/internal/app"
	"github.com/ayusman/rekha/internal/capture"
	"github.com/ayusman/rekha/internal/config"
	"github.com/ayusman/rekha/internal/server"
	"github.com/ayusman/rekha/internal/store"
	"github.com/ayusman/rekha/internal/tray"
)

func main() {
	videoPath := flag.String("video", "", "process a video file instead of live capture")
	outputPath := flag.String("out", "", "annotated output video path (file mode only)")
	configPath := flag.String("config", "", "processing profile JSON path")
	dbPath := flag.String("db", "", "store path (default ~/.rekha/rekha.db)")
	addr := flag.String("addr", "", "HTTP listen address (overrides profile)")
	hooksDir := flag.String("hooks", "", "event hooks directory (overrides profile)")
	cameraID := flag.Int("camera", -1, "camera device id (overrides profile)")
	withTray := flag.Bool("tray", false, "show the system tray")
	flag.Parse()

	fmt.Println("Rekha - Lane Boundary Tracking")

	profile := config.Default()
	if *configPath != "" {
		p, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load profile: %v", err)
		}
		profile = p
		fmt.Printf("Loaded profile from %s\n", *configPath)
	}

	// Flags override the profile
	if *addr != "" {
		profile.Server.Addr = *addr
	}
	if *hooksDir != "" {
		profile.Alerts.HooksDir = *hooksDir
	}
	if *cameraID >= 0 {
		profile.Capture.CameraID = *cameraID
	}

	st, err := store.New(resolveStorePath(*dbPath))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// Camera calibration is optional; tracking works without it
	var camera *capture.CameraModel
	if dir := profile.Capture.CalibrationDir; dir != "" {
		camera, err = capture.CalibrateFromDir(dir, profile.Capture.ChessboardCols, profile.Capture.ChessboardRows)
		if err != nil {
			log.Printf("Calibration failed (%v), continuing without undistortion", err)
			camera = nil
		}
	}

	a := app.New(app.Config{
		Store:      st,
		Profile:    profile,
		VideoPath:  *videoPath,
		OutputPath: *outputPath,
		Camera:     camera,
	})

	if profile.Alerts.HooksDir != "" {
		if err := a.DiscoverHooks(); err != nil {
			log.Printf("Hook discovery failed: %v", err)
		} else {
			fmt.Printf("Loaded %d hooks from %s\n", len(a.HookManager().List()), profile.Alerts.HooksDir)
		}
	}

	// File mode: process the whole video, then exit
	if *videoPath != "" {
		if err := a.ProcessVideo(); err != nil {
			log.Fatalf("Processing failed: %v", err)
		}
		fmt.Printf("Run %s recorded\n", a.RunID())
		return
	}

	// Live mode: run the pipeline and serve the dashboard
	webDir := profile.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Pipeline:  a,
	})

	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer a.Stop()

	if *withTray {
		go func() {
			if err := srv.ListenAndServe(profile.Server.Addr); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		}()
		fmt.Printf("Starting server on %s\n", profile.Server.Addr)
		runTray(a, profile.Server.Addr)
		return
	}

	fmt.Printf("Starting server on %s\n", profile.Server.Addr)
	if err := srv.ListenAndServe(profile.Server.Addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
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

	dataDir := filepath.Join(homeDir, ".rekha")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	return filepath.Join(dataDir, "rekha.db")
}

// runTray blocks on the system tray loop, feeding it live measurements.
// systray needs the main goroutine on macOS.
func runTray(a *app.App, addr string) {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnDashboard(func() {
		openBrowser(dashboardURL(addr))
	})

	stop := make(chan struct{})
	t.OnQuit(func() {
		close(stop)
	})

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if sample, ok := a.LatestSample(); ok {
					t.SetMeasurement(sample.Curvature, sample.Offset)
				}
			}
		}
	}()

	t.Run()
}

// dashboardURL turns a listen address into a browsable URL.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens the URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.rekha/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".rekha", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
