package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Writer writes transcript files and append-only logs under a root
// directory. Appends to the same path are serialised by a per-path mutex.
type Writer struct {
	root  string
	files *semaphore.Weighted

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWriter creates a writer rooted at root.
func NewWriter(root string, files *semaphore.Weighted) *Writer {
	if root == "" {
		root = "."
	}
	return &Writer{root: root, files: files, locks: make(map[string]*sync.Mutex)}
}

// Root returns the directory relative paths are resolved against.
func (w *Writer) Root() string {
	return w.root
}

// Path resolves a path relative to the root. Absolute paths pass through.
func (w *Writer) Path(elem ...string) string {
	p := filepath.Join(elem...)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.root, p)
}

// WriteTranscript replaces the file at path with content.
func (w *Writer) WriteTranscript(ctx context.Context, path, content string) error {
	full := w.Path(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}

	if err := w.files.Acquire(ctx, 1); err != nil {
		return err
	}
	defer w.files.Release(1)

	l := w.lock(full)
	l.Lock()
	defer l.Unlock()

	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// AppendLine appends line and a newline to the file at path.
func (w *Writer) AppendLine(ctx context.Context, path, line string) error {
	full := w.Path(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	if err := w.files.Acquire(ctx, 1); err != nil {
		return err
	}
	defer w.files.Release(1)

	l := w.lock(full)
	l.Lock()
	defer l.Unlock()

	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return f.Close()
}

func (w *Writer) lock(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	l, ok := w.locks[path]
	if !ok {
		l = &sync.Mutex{}
		w.locks[path] = l
	}
	return l
}

// ListTranscripts returns every .txt file below dir, sorted, relative to dir.
func ListTranscripts(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".txt" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
