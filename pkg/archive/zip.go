// Package archive packages a source tree into the zip payload the analysis
// service ingests. It mirrors the service's ingestion rules client-side so
// oversized or empty uploads fail fast instead of after a round trip.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/errors"
)

// Ingestion limits enforced by the analysis server; mirrored here.
const (
	MaxFiles      = 5000
	MaxTotalBytes = 50 * 1024 * 1024
)

// skipDirs are vendor, VCS, and build directories that never contribute
// analyzable source.
var skipDirs = map[string]bool{
	"__pycache__":   true,
	"venv":          true,
	".venv":         true,
	".git":          true,
	"node_modules":  true,
	"dist":          true,
	"build":         true,
	"site-packages": true,
	".mypy_cache":   true,
	".pytest_cache": true,
}

// analyzableExts are the file extensions the service extracts dependencies
// from, grouped upstream as python, cpp, java, and web.
var analyzableExts = map[string]bool{
	".py":   true,
	".c":    true,
	".cpp":  true,
	".h":    true,
	".hpp":  true,
	".java": true,
	".html": true,
	".htm":  true,
	".css":  true,
	".js":   true,
	".jsx":  true,
	".ts":   true,
	".tsx":  true,
}

// SkippedDir reports whether a directory name is excluded from packing.
func SkippedDir(name string) bool { return skipDirs[name] }

// Analyzable reports whether a file name has an extension the analysis
// service extracts dependencies from.
func Analyzable(name string) bool {
	return analyzableExts[strings.ToLower(filepath.Ext(name))]
}

// Stats summarizes what went into an archive.
type Stats struct {
	Files      int   // analyzable files packed
	TotalBytes int64 // uncompressed size of packed files
}

// Pack walks root and returns a zip archive of its analyzable source files,
// with entry names relative to root using forward slashes.
//
// It returns an error if root is not a directory, if no analyzable files are
// found, or if the tree exceeds the service ingestion limits.
func Pack(root string) ([]byte, Stats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, Stats{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", root)
	}
	if !info.IsDir() {
		return nil, Stats{}, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", root)
	}

	var (
		buf   bytes.Buffer
		stats Stats
	)
	zw := zip.NewWriter(&buf)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !Analyzable(d.Name()) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		if stats.Files+1 > MaxFiles {
			return errors.New(errors.ErrCodeInvalidArchive,
				"too many source files (limit %d)", MaxFiles)
		}
		if stats.TotalBytes+fi.Size() > MaxTotalBytes {
			return errors.New(errors.ErrCodeInvalidArchive,
				"source tree too large (limit %d bytes)", MaxTotalBytes)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "add %s", rel)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()
		n, err := io.Copy(w, f)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "copy %s", rel)
		}

		stats.Files++
		stats.TotalBytes += n
		return nil
	})
	if err != nil {
		return nil, Stats{}, err
	}

	if stats.Files == 0 {
		return nil, Stats{}, errors.New(errors.ErrCodeInvalidArchive,
			"no analyzable source files under %s", root)
	}

	if err := zw.Close(); err != nil {
		return nil, Stats{}, errors.Wrap(errors.ErrCodeInternal, err, "finalize archive")
	}
	return buf.Bytes(), stats, nil
}
