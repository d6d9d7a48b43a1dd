package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

func TestExportWatcher(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bookmarks.yaml")
	if err := os.WriteFile(file, []byte("bookmarks: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	trigger := make(chan struct{}, 1)
	w, err := NewExportWatcher(file, trigger, 20*time.Millisecond, logger.NewNop())
	if err != nil {
		t.Fatalf("NewExportWatcher() error = %v", err)
	}
	defer func() { _ = w.Stop() }()

	// Other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-trigger:
		t.Fatal("unrelated file fired the trigger")
	case <-time.After(200 * time.Millisecond):
	}

	// A burst of writes is coalesced into one trigger.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(file, []byte("bookmarks: []\n# edit\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-trigger:
	case <-time.After(2 * time.Second):
		t.Fatal("writing the export file did not fire the trigger")
	}
}

func TestExportWatcher_MissingDirectory(t *testing.T) {
	_, err := NewExportWatcher(filepath.Join(t.TempDir(), "nope", "bookmarks.yaml"), make(chan struct{}, 1), 0, logger.NewNop())
	if err == nil {
		t.Errorf("NewExportWatcher() on a missing directory should fail")
	}
}

func TestExportWatcher_StopTwice(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bookmarks.yaml")
	w, err := NewExportWatcher(file, make(chan struct{}, 1), 0, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
