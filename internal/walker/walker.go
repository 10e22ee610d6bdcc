// Package walker collects candidate input documents from a directory tree.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// WalkerStats contains statistics about walker activity.
type WalkerStats struct {
	FilesDiscovered int64
	FilesSkipped    int64
	DirsTraversed   int64
	DirsSkipped     int64
}

// Walker scans directories for files accepted by its Filter.
type Walker struct {
	filter *Filter

	mu    sync.Mutex
	stats WalkerStats
}

// New creates a Walker using filter. A nil filter accepts everything that is
// not hidden.
func New(filter *Filter) *Walker {
	if filter == nil {
		filter = NewFilter()
	}
	return &Walker{filter: filter}
}

// Collect walks root and returns accepted files in lexical order. Directories
// that look like previous disassembly output are not descended into.
func (w *Walker) Collect(ctx context.Context, root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path; %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path; %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absRoot)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Skip symlinks
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			if path == absRoot {
				w.count(func(s *WalkerStats) { s.DirsTraversed++ })
				return nil
			}
			if !w.filter.ShouldProcessDir(path) || IsDisassemblyOutput(path) {
				w.count(func(s *WalkerStats) { s.DirsSkipped++ })
				return fs.SkipDir
			}
			w.count(func(s *WalkerStats) { s.DirsTraversed++ })
			return nil
		}

		if !w.filter.ShouldProcessFile(path) {
			w.count(func(s *WalkerStats) { s.FilesSkipped++ })
			return nil
		}

		files = append(files, path)
		w.count(func(s *WalkerStats) { s.FilesDiscovered++ })
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s; %w", absRoot, err)
	}

	return files, nil
}

// Stats returns current walker statistics.
func (w *Walker) Stats() WalkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Walker) count(update func(*WalkerStats)) {
	w.mu.Lock()
	update(&w.stats)
	w.mu.Unlock()
}
