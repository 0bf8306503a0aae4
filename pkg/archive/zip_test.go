package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/errors"
)

// writeTree creates files under root, creating parent directories as needed.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func entryNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("archive is not a valid zip: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestPackSelectsAnalyzableFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.py":          "import util",
		"util.py":          "",
		"src/app.ts":       "export {}",
		"README.md":        "docs",
		"image.png":        "binary",
		"Makefile":         "all:",
		"web/index.html":   "<html/>",
		"native/engine.cc": "int main(){}",
	})

	data, stats, err := Pack(root)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}

	want := []string{"main.py", "src/app.ts", "util.py", "web/index.html"}
	if got := entryNames(t, data); !equalStrings(got, want) {
		t.Errorf("archive entries = %v, want %v", got, want)
	}
	if stats.Files != 4 {
		t.Errorf("stats.Files = %d, want 4", stats.Files)
	}
}

func TestPackSkipsVendorDirs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.py":                     "x = 1",
		"venv/lib/site.py":           "skip",
		".git/hooks/sample.py":       "skip",
		"node_modules/pkg/index.js":  "skip",
		"__pycache__/app.cpython.py": "skip",
		"build/out.js":               "skip",
		"nested/dist/bundle.js":      "skip",
	})

	data, stats, err := Pack(root)
	if err != nil {
		t.Fatalf("Pack() error: %v", err)
	}

	if got := entryNames(t, data); !equalStrings(got, []string{"app.py"}) {
		t.Errorf("archive entries = %v, want only app.py", got)
	}
	if stats.Files != 1 {
		t.Errorf("stats.Files = %d, want 1", stats.Files)
	}
}

func TestPackEmptyTree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"notes.txt": "nothing analyzable"})

	_, _, err := Pack(root)
	if err == nil {
		t.Fatal("expected error for tree without analyzable files")
	}
	if !errors.Is(err, errors.ErrCodeInvalidArchive) {
		t.Errorf("error code = %v, want invalid archive", errors.GetCode(err))
	}
}

func TestPackNotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "single.py")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := Pack(file)
	if err == nil {
		t.Fatal("expected error for non-directory root")
	}
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("error code = %v, want invalid path", errors.GetCode(err))
	}
}

func TestPackMissingRoot(t *testing.T) {
	if _, _, err := Pack(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestPackStatsBytes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py": "12345",
		"b.py": "123",
	})

	_, stats, err := Pack(root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalBytes != 8 {
		t.Errorf("stats.TotalBytes = %d, want 8", stats.TotalBytes)
	}
}

func TestSkippedDir(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"venv", true},
		{".git", true},
		{"site-packages", true},
		{"src", false},
		{"vendor", false},
	}
	for _, tt := range tests {
		if got := SkippedDir(tt.name); got != tt.want {
			t.Errorf("SkippedDir(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAnalyzable(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"main.py", true},
		{"APP.PY", true},
		{"view.tsx", true},
		{"style.css", true},
		{"engine.hpp", true},
		{"README.md", false},
		{"binary", false},
		{"archive.zip", false},
	}
	for _, tt := range tests {
		if got := Analyzable(tt.name); got != tt.want {
			t.Errorf("Analyzable(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
