package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultIgnoreFile is the ignore file consulted when none is configured.
const DefaultIgnoreFile = ".xmldisassemblerignore"

// Filter determines whether files and directories should be processed.
type Filter struct {
	matcher    *ignore.GitIgnore
	baseDir    string
	extensions []string
	skipHidden bool
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// WithExtensions restricts files to the given extensions.
func WithExtensions(exts ...string) FilterOption {
	return func(f *Filter) {
		for _, ext := range exts {
			f.extensions = append(f.extensions, normalizeExt(ext))
		}
	}
}

// WithSkipHidden controls whether dot-prefixed entries are skipped.
func WithSkipHidden(skip bool) FilterOption {
	return func(f *Filter) {
		f.skipHidden = skip
	}
}

// WithIgnoreLines adds gitignore-style patterns relative to baseDir.
func WithIgnoreLines(baseDir string, lines ...string) FilterOption {
	return func(f *Filter) {
		f.matcher = ignore.CompileIgnoreLines(lines...)
		f.baseDir = baseDir
	}
}

// NewFilter creates a Filter. By default hidden entries are skipped and every
// extension is accepted.
func NewFilter(opts ...FilterOption) *Filter {
	f := &Filter{skipHidden: true}
	for _, opt := range opts {
		opt(f)
	}
	if f.baseDir != "" {
		if abs, err := filepath.Abs(f.baseDir); err == nil {
			f.baseDir = abs
		}
	}
	return f
}

// LoadFilter creates a Filter whose ignore rules come from ignorePath.
// A missing ignore file means no ignore rules.
func LoadFilter(ignorePath string, opts ...FilterOption) (*Filter, error) {
	if ignorePath == "" {
		return NewFilter(opts...), nil
	}

	matcher, err := ignore.CompileIgnoreFile(ignorePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewFilter(opts...), nil
		}
		return nil, fmt.Errorf("failed to read ignore file %s; %w", ignorePath, err)
	}

	f := NewFilter(opts...)
	f.matcher = matcher
	f.baseDir = filepath.Dir(ignorePath)
	if abs, err := filepath.Abs(f.baseDir); err == nil {
		f.baseDir = abs
	}
	return f, nil
}

// ShouldProcessFile returns true if the file should be processed.
func (f *Filter) ShouldProcessFile(path string) bool {
	name := filepath.Base(path)

	if f.skipHidden && strings.HasPrefix(name, ".") {
		return false
	}

	if len(f.extensions) > 0 && !f.hasExtension(path) {
		return false
	}

	return !f.Ignored(path, false)
}

// ShouldProcessDir returns true if the directory should be traversed.
func (f *Filter) ShouldProcessDir(path string) bool {
	name := filepath.Base(path)

	if f.skipHidden && strings.HasPrefix(name, ".") && name != "." && name != ".." {
		return false
	}

	return !f.Ignored(path, true)
}

// Ignored reports whether the ignore rules exclude path. Paths outside the
// ignore file's directory are never ignored.
func (f *Filter) Ignored(path string, isDir bool) bool {
	if f.matcher == nil {
		return false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(f.baseDir, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	rel = filepath.ToSlash(rel)
	if f.matcher.MatchesPath(rel) {
		return true
	}
	return isDir && f.matcher.MatchesPath(rel+"/")
}

func (f *Filter) hasExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range f.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// normalizeExt ensures extension has leading dot and is lowercase.
func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// IsDisassemblyOutput reports whether dir looks like the output of a previous
// disassembly: it holds a file named after the directory followed by a dot.
func IsDisassemblyOutput(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	prefix := filepath.Base(dir) + "."
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return true
		}
	}
	return false
}
