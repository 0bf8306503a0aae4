package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(root, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return w
}

func expectChange(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func expectQuiet(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Changes():
		t.Fatal("unexpected change notification")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNotifiesOnSourceChange(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, "app.py"), []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectChange(t, w)
}

func TestDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(root, "app.py"), []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	expectChange(t, w)
	expectQuiet(t, w)
}

func TestQuietPeriodExtendsAcrossBurst(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Each write lands inside the previous quiet period; the reset must
	// push the notification out past the whole burst.
	for i := 0; i < 6; i++ {
		if err := os.WriteFile(filepath.Join(root, "app.py"), []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		select {
		case <-w.Changes():
			t.Fatal("notification fired before the burst ended")
		case <-time.After(50 * time.Millisecond):
		}
	}
	expectChange(t, w)
}

func TestIgnoresNonSourceFiles(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("n"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w)
}

func TestIgnoresSkippedDirs(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	w := startWatcher(t, root)

	if err := os.WriteFile(filepath.Join(root, ".git", "index.py"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w)
}

func TestDefaultQuietPeriod(t *testing.T) {
	w, err := New(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.quiet != DefaultQuietPeriod {
		t.Errorf("quiet = %v, want default %v", w.quiet, DefaultQuietPeriod)
	}
}

func TestRelevant(t *testing.T) {
	w, err := New(t.TempDir(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{
			name: "source file write",
			ev:   fsnotify.Event{Name: "/p/app.py", Op: fsnotify.Write},
			want: true,
		},
		{
			name: "text file write",
			ev:   fsnotify.Event{Name: "/p/notes.txt", Op: fsnotify.Write},
			want: false,
		},
		{
			name: "skipped dir event",
			ev:   fsnotify.Event{Name: "/p/node_modules", Op: fsnotify.Create},
			want: false,
		},
		{
			name: "new directory",
			ev:   fsnotify.Event{Name: "/p/newpkg", Op: fsnotify.Create},
			want: true,
		},
		{
			name: "extensionless remove",
			ev:   fsnotify.Event{Name: "/p/something", Op: fsnotify.Remove},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.relevant(tt.ev); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}
