package alert

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// writeManifest creates a hook directory with a hook.json under dir.
func writeManifest(t *testing.T, dir string, manifest Manifest) string {
	t.Helper()

	hookDir := filepath.Join(dir, manifest.Name)
	if err := os.MkdirAll(hookDir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}

	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}

	manifestPath := filepath.Join(hookDir, "hook.json")
	if err := os.WriteFile(manifestPath, manifestBytes, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return hookDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "rekha-hook-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	hookDir := writeManifest(t, tmpDir, Manifest{
		Name:        "buzzer",
		Version:     "1.0.0",
		Description: "A test hook",
		Executable:  "buzzer",
		Events:      []string{"lane_departure", "lane_lost"},
	})

	// Create the manager and discover hooks
	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	// Verify the hook was discovered
	hooks := manager.List()
	if len(hooks) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(hooks))
	}

	hook := hooks[0]
	if hook.Manifest.Name != "buzzer" {
		t.Errorf("expected hook name 'buzzer', got %q", hook.Manifest.Name)
	}
	if hook.Manifest.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", hook.Manifest.Version)
	}
	if len(hook.Manifest.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(hook.Manifest.Events))
	}
	if hook.Path != hookDir {
		t.Errorf("expected path %q, got %q", hookDir, hook.Path)
	}
	if hook.Executable != filepath.Join(hookDir, "buzzer") {
		t.Errorf("unexpected executable path %q", hook.Executable)
	}
}

func TestManager_Discover_MultipleHooks(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "rekha-hook-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	for _, name := range []string{"hook-a", "hook-b"} {
		writeManifest(t, tmpDir, Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name,
		})
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	hooks := manager.List()
	if len(hooks) != 2 {
		t.Fatalf("expected 2 hooks, got %d", len(hooks))
	}
}

func TestManager_Discover_EmptyDir(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "rekha-hook-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on empty dir: %v", err)
	}

	if hooks := manager.List(); len(hooks) != 0 {
		t.Fatalf("expected 0 hooks, got %d", len(hooks))
	}
}

func TestManager_Get(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "rekha-hook-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	writeManifest(t, tmpDir, Manifest{
		Name:       "my-hook",
		Version:    "2.0.0",
		Executable: "my-hook-bin",
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	hook, err := manager.Get("my-hook")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if hook.Manifest.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", hook.Manifest.Version)
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "rekha-hook-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	manager := NewManager(tmpDir)

	_, err = manager.Get("nonexistent-hook")
	if err != ErrHookNotFound {
		t.Errorf("expected ErrHookNotFound, got %v", err)
	}
}

func TestManager_ForEvent(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "rekha-hook-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	writeManifest(t, tmpDir, Manifest{
		Name:       "departure-only",
		Executable: "bin",
		Events:     []string{"lane_departure"},
	})
	writeManifest(t, tmpDir, Manifest{
		Name:       "everything",
		Executable: "bin",
		// No events means subscribe to all
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	departure := manager.ForEvent("lane_departure")
	if len(departure) != 2 {
		t.Errorf("expected 2 hooks for lane_departure, got %d", len(departure))
	}

	lost := manager.ForEvent("lane_lost")
	if len(lost) != 1 {
		t.Fatalf("expected 1 hook for lane_lost, got %d", len(lost))
	}
	if lost[0].Manifest.Name != "everything" {
		t.Errorf("expected the catch-all hook, got %q", lost[0].Manifest.Name)
	}
}

func TestManager_HooksDir(t *testing.T) {
	hooksDir := "/path/to/hooks"
	manager := NewManager(hooksDir)

	if manager.HooksDir() != hooksDir {
		t.Errorf("expected hooks dir %q, got %q", hooksDir, manager.HooksDir())
	}
}

func TestManager_Discover_InvalidJSON(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "rekha-hook-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	hookDir := filepath.Join(tmpDir, "bad-hook")
	if err := os.MkdirAll(hookDir, 0755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}
	manifestPath := filepath.Join(hookDir, "hook.json")
	if err := os.WriteFile(manifestPath, []byte("not valid json"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	manager := NewManager(tmpDir)

	// Discover should skip invalid hooks gracefully
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed unexpectedly: %v", err)
	}

	if hooks := manager.List(); len(hooks) != 0 {
		t.Fatalf("expected 0 hooks (invalid JSON should be skipped), got %d", len(hooks))
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager("/path/that/does/not/exist")

	// Discover should not fail, just return empty list
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}

	if hooks := manager.List(); len(hooks) != 0 {
		t.Fatalf("expected 0 hooks, got %d", len(hooks))
	}
}
