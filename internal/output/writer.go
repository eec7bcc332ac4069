// # internal/output/writer.go
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"focal/internal/util"
)

// Writer owns the output directory of one extraction run. Every file it
// produces is written to a temporary name and renamed into place, so a
// crashed run never leaves a truncated context behind.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	clean := strings.TrimSpace(dir)
	if clean == "" {
		return nil, fmt.Errorf("output directory must not be empty")
	}
	if info, err := os.Stat(clean); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("output path %q is a file, expected directory", clean)
	}
	return &Writer{dir: clean}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

// Reset removes the previous run's output and recreates the directory, so
// stale context files for entry points that no longer exist cannot survive.
func (w *Writer) Reset() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("clear output directory %q: %w", w.dir, err)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", w.dir, err)
	}
	return nil
}

// WriteEntry writes one entry point's rendered context and returns the file
// name used, relative to the output directory.
func (w *Writer) WriteEntry(qualified, content string) (string, error) {
	name := EntryFileName(qualified)
	if err := util.WriteFileAtomic(filepath.Join(w.dir, name), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write context for %q: %w", qualified, err)
	}
	return name, nil
}

// WriteFile writes an auxiliary file (reports, graph exports) into the
// output directory under the given name.
func (w *Writer) WriteFile(name, content string) error {
	if err := util.WriteFileAtomic(filepath.Join(w.dir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	return nil
}

// WriteDump writes the whole-model debug dump alongside the context files.
func (w *Writer) WriteDump(content string) error {
	if err := util.WriteFileAtomic(filepath.Join(w.dir, "context.txt"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write model dump: %w", err)
	}
	return nil
}
