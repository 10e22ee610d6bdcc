package multilevel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/formats"
	"github.com/leefowlercu/xml-disassembler/internal/fsutil"
	"github.com/leefowlercu/xml-disassembler/internal/metrics"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// Splitter disassembles a stripped document into outputDir using the
// unique-id strategy. It returns the number of files written; zero means the
// document held nothing to split.
type Splitter interface {
	SplitDocument(ctx context.Context, doc *xmltree.Document, outputDir, skeletonName string, uniqueIDs []string, adapter formats.Adapter) (int, error)
}

// Merger rebuilds the document stored in a disassembly directory.
type Merger interface {
	MergeDirectory(ctx context.Context, dir string) (*xmltree.Document, error)
}

// Apply runs each rule in order against the fragments under root and returns
// the number of fragments split. Metadata for every split fragment is saved
// under root.
func Apply(ctx context.Context, root string, rules []Rule, splitter Splitter, logger *slog.Logger) (int, error) {
	if len(rules) == 0 {
		return 0, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	meta, _, err := Load(root)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, rule := range rules {
		n, err := applyRule(ctx, root, rule, meta, splitter, logger)
		total += n
		if err != nil {
			if total > 0 {
				if saveErr := meta.Save(root); saveErr != nil {
					return total, errors.Join(err, saveErr)
				}
			}
			return total, err
		}
	}

	if total == 0 {
		return 0, nil
	}
	if err := meta.Save(root); err != nil {
		return total, err
	}
	metrics.MultiLevelEntriesTotal.WithLabelValues("apply").Add(float64(total))
	return total, nil
}

func applyRule(ctx context.Context, root string, rule Rule, meta *Metadata, splitter Splitter, logger *slog.Logger) (int, error) {
	candidates, err := matchFiles(root, rule.FilePattern)
	if err != nil {
		return 0, err
	}

	split := 0
	for _, rel := range candidates {
		if err := ctx.Err(); err != nil {
			return split, err
		}

		file := filepath.Join(root, filepath.FromSlash(rel))
		adapter, _ := formats.ForPath(file)

		data, err := os.ReadFile(file)
		if err != nil {
			return split, errs.FS("read fragment", file, err)
		}
		doc, err := adapter.Parse(data)
		if err != nil {
			return split, errs.Malformed("parse fragment", file, err)
		}

		inner, wrapper, strippedRoot, ok := Strip(doc, rule.RootToStrip)
		if !ok {
			logger.Warn("fragment has no strippable wrapper; skipping",
				"file", rel,
				"root_to_strip", rule.RootToStrip)
			continue
		}

		base := path.Base(rel)
		innerRel := path.Join(path.Dir(rel), stem(base))
		n, err := splitter.SplitDocument(ctx, inner, filepath.Join(root, filepath.FromSlash(innerRel)), base, rule.UniqueIDElements, adapter)
		if err != nil {
			return split, fmt.Errorf("failed to split fragment %s; %w", rel, err)
		}
		if n == 0 {
			logger.Warn("stripped fragment holds only leaf elements; skipping", "file", rel)
			continue
		}

		if err := os.Remove(file); err != nil {
			return split, errs.FS("remove fragment", file, err)
		}

		meta.Entries[rel] = Entry{
			FilePattern:           rule.FilePattern,
			StripTarget:           rule.RootToStrip,
			StrippedRoot:          strippedRoot,
			RootTag:               inner.Root.Tag,
			Wrapper:               wrapper,
			InnerUniqueIDElements: rule.UniqueIDElements,
			InnerDir:              innerRel,
			Format:                adapter.Name(),
		}
		split++

		logger.Debug("split fragment",
			"file", rel,
			"inner_dir", innerRel,
			"fragments", n)
	}
	return split, nil
}

// matchFiles lists supported fragment files under root whose slash-separated
// relative path contains pattern. Dot files and dot directories are skipped.
func matchFiles(root, pattern string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !formats.IsSupported(p) {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.Contains(rel, pattern) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errs.FS("walk", root, err)
	}
	return matches, nil
}

// Collapse reverses Apply under root. Entries are processed deepest first so
// nested splits are restored before their parents. The metadata file is
// removed once every entry is collapsed.
func Collapse(ctx context.Context, root string, merger Merger, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	meta, found, err := Load(root)
	if err != nil || !found {
		return 0, err
	}

	keys := make([]string, 0, len(meta.Entries))
	for k := range meta.Entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := strings.Count(keys[i], "/"), strings.Count(keys[j], "/")
		if di != dj {
			return di > dj
		}
		return keys[i] > keys[j]
	})

	collapsed := 0
	for _, rel := range keys {
		if err := ctx.Err(); err != nil {
			return collapsed, err
		}

		e := meta.Entries[rel]
		file := filepath.Join(root, filepath.FromSlash(rel))
		innerDir := filepath.Join(root, filepath.FromSlash(e.InnerDir))

		if !fsutil.IsDir(innerDir) {
			if fsutil.IsFile(file) {
				logger.Debug("fragment already collapsed", "file", rel)
				continue
			}
			return collapsed, errs.New(errs.ErrInconsistentMetadata, "collapse", file,
				fmt.Errorf("neither the fragment nor its directory %s exists", e.InnerDir))
		}

		merged, err := merger.MergeDirectory(ctx, innerDir)
		if err != nil {
			return collapsed, fmt.Errorf("failed to merge %s; %w", e.InnerDir, err)
		}
		doc, err := Rewrap(merged, e)
		if err != nil {
			return collapsed, err
		}

		format := e.Format
		if format == "" {
			format = formats.XML
		}
		adapter, err := formats.Lookup(format)
		if err != nil {
			return collapsed, errs.New(errs.ErrInconsistentMetadata, "collapse", file, err)
		}
		data, err := adapter.Render(doc)
		if err != nil {
			return collapsed, fmt.Errorf("failed to render %s; %w", rel, err)
		}
		if err := fsutil.WriteFileAtomic(file, data, 0644); err != nil {
			return collapsed, errs.FS("write fragment", file, err)
		}
		if err := os.RemoveAll(innerDir); err != nil {
			return collapsed, errs.FS("remove directory", innerDir, err)
		}
		collapsed++
	}

	metaPath := filepath.Join(root, MetadataFile)
	if err := os.Remove(metaPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return collapsed, errs.FS("remove multi-level metadata", metaPath, err)
	}
	metrics.MultiLevelEntriesTotal.WithLabelValues("collapse").Add(float64(collapsed))
	return collapsed, nil
}

func stem(name string) string {
	if ext := path.Ext(name); ext != "" {
		return strings.TrimSuffix(name, ext)
	}
	return name
}
