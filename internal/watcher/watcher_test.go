package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRejectsNilCallback(t *testing.T) {
	if _, err := New([]string{t.TempDir()}, nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}

func TestNewRequiresOneWatchableDir(t *testing.T) {
	dirs := []string{"/nonexistent/cellar", "/nonexistent/caskroom"}
	if _, err := New(dirs, func() {}); err == nil {
		t.Fatal("expected error when no directory can be watched")
	}
}

func TestNewSkipsMissingDirs(t *testing.T) {
	w, err := New([]string{"/nonexistent/cellar", t.TempDir()}, func() {})
	if err != nil {
		t.Fatalf("one watchable dir should be enough: %v", err)
	}
	w.fs.Close()
}

func TestEventBurstFiresOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("debounce test waits for the quiet period")
	}

	dir := t.TempDir()
	var fired atomic.Int32
	w, err := New([]string{dir}, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.Start()
	defer w.Stop()

	// A burst of writes must collapse into a single notification.
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "pkg")
		if err := os.WriteFile(name, []byte{byte(i)}, 0o644); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	deadline := time.Now().Add(debounceQuiet + 3*time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly one debounced notification, got %d", got)
	}
}

func TestStopWithoutEvents(t *testing.T) {
	w, err := New([]string{t.TempDir()}, func() {})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.Start()
	if err := w.Stop(); err != nil {
		t.Errorf("clean stop failed: %v", err)
	}
}
