// Package reassembler rebuilds a document from a disassembly directory.
package reassembler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/formats"
	"github.com/leefowlercu/xml-disassembler/internal/fsutil"
	"github.com/leefowlercu/xml-disassembler/internal/metrics"
	"github.com/leefowlercu/xml-disassembler/internal/multilevel"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

const operation = "reassemble"

// Result describes a completed reassembly.
type Result struct {
	// Document is the merged document that was written to Output.
	Document *xmltree.Document

	Output string

	// Fragments counts the files merged, skeleton included.
	Fragments int

	// Collapsed counts multi-level entries restored before merging.
	Collapsed int
}

// Reassembler merges disassembly directories back into single documents.
type Reassembler struct {
	logger *slog.Logger
}

// New creates a Reassembler. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Reassembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reassembler{logger: logger.With("component", "reassembler")}
}

// Reassemble rebuilds the document stored in dir and writes it next to dir,
// named after the skeleton with its extension replaced by extension. An empty
// extension means xml. With postPurge the directory is removed after the
// output is written.
func (r *Reassembler) Reassemble(ctx context.Context, dir, extension string, postPurge bool) (res *Result, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordDocument(operation, time.Since(start), false, err)
	}()

	if extension == "" {
		extension = formats.XML
	}
	adapter, err := formats.Lookup(extension)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound(operation, dir, err)
		}
		return nil, errs.FS(operation, dir, err)
	}
	if !info.IsDir() {
		return nil, errs.NotFound(operation, dir, fmt.Errorf("not a directory"))
	}

	res = &Result{}
	res.Collapsed, err = multilevel.Collapse(ctx, dir, r, r.logger)
	if err != nil {
		return nil, err
	}

	doc, skeleton, n, err := r.merge(ctx, dir)
	if err != nil {
		return nil, err
	}
	res.Document = doc
	res.Fragments = n

	data, err := adapter.Render(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s; %w", dir, err)
	}

	stem := strings.TrimSuffix(skeleton, filepath.Ext(skeleton))
	res.Output = filepath.Join(filepath.Dir(filepath.Clean(dir)), stem+"."+adapter.Extension())
	if err := fsutil.WriteFileAtomic(res.Output, data, 0644); err != nil {
		return nil, errs.FS("write", res.Output, err)
	}

	if postPurge {
		if err := os.RemoveAll(dir); err != nil {
			return nil, errs.FS("purge", dir, err)
		}
	}

	r.logger.Info("reassembled document",
		"dir", dir,
		"output", res.Output,
		"files", res.Fragments,
		"multi_level", res.Collapsed,
		"duration", time.Since(start))
	return res, nil
}

// MergeDirectory rebuilds the document stored in dir without writing it.
func (r *Reassembler) MergeDirectory(ctx context.Context, dir string) (*xmltree.Document, error) {
	doc, _, _, err := r.merge(ctx, dir)
	return doc, err
}

// merge builds the document for dir and returns it with the skeleton file
// name and the number of files read.
func (r *Reassembler) merge(ctx context.Context, dir string) (*xmltree.Document, string, int, error) {
	skeletonName, err := findSkeleton(dir)
	if err != nil {
		return nil, "", 0, err
	}

	skeleton, err := readDocument(filepath.Join(dir, skeletonName))
	if err != nil {
		return nil, "", 0, err
	}

	m := &merger{ctx: ctx, rootTag: skeleton.Root.Tag, logger: r.logger, files: 1}
	root := &xmltree.Element{
		Tag:      skeleton.Root.Tag,
		Attrs:    skeleton.Root.Attrs,
		Children: append([]xmltree.Node(nil), skeleton.Root.Children...),
	}

	entries, err := sortedEntries(dir)
	if err != nil {
		return nil, "", 0, err
	}
	for _, e := range entries {
		if e.Name() == skeletonName {
			continue
		}
		p := filepath.Join(dir, e.Name())

		if e.IsDir() {
			records, container, err := m.mergeDir(p, e.Name())
			if err != nil {
				return nil, "", 0, err
			}
			root.Children = append(root.Children, records...)
			if container != nil {
				root.Children = append(root.Children, container)
			}
			continue
		}

		doc, err := m.readFile(p)
		if err != nil {
			return nil, "", 0, err
		}
		if doc.Root.Tag != root.Tag {
			r.logger.Warn("top-level fragment root differs from skeleton root",
				"file", p,
				"root", doc.Root.Tag,
				"skeleton_root", root.Tag)
		}
		root.MergeAttrs(doc.Root.Attrs)
		root.Children = append(root.Children, doc.Root.Children...)
	}

	for _, attrs := range m.rootAttrs {
		root.MergeAttrs(attrs)
	}

	return &xmltree.Document{Declaration: skeleton.Declaration, Root: root}, skeletonName, m.files, nil
}

type merger struct {
	ctx       context.Context
	rootTag   string
	logger    *slog.Logger
	files     int
	rootAttrs [][]xmltree.Attr
}

// mergeDir reads directory dir whose name is tag. Files wrapped in the
// document root hold records that belong directly under the root. Files
// wrapped in tag hold children of a single tag container. Subdirectories
// contribute nested containers.
func (m *merger) mergeDir(dir, tag string) (records []xmltree.Node, container *xmltree.Element, err error) {
	if err := m.ctx.Err(); err != nil {
		return nil, nil, err
	}

	entries, err := sortedEntries(dir)
	if err != nil {
		return nil, nil, err
	}

	var content []xmltree.Node
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())

		if e.IsDir() {
			sub, nested, err := m.mergeDir(p, e.Name())
			if err != nil {
				return nil, nil, err
			}
			records = append(records, sub...)
			if nested != nil {
				content = append(content, nested)
			}
			continue
		}

		doc, err := m.readFile(p)
		if err != nil {
			return nil, nil, err
		}
		switch doc.Root.Tag {
		case m.rootTag:
			m.rootAttrs = append(m.rootAttrs, doc.Root.Attrs)
			records = append(records, doc.Root.Children...)
		case tag:
			content = append(content, doc.Root.Children...)
		default:
			m.logger.Warn("fragment root matches neither the document root nor its directory",
				"file", p,
				"root", doc.Root.Tag)
			records = append(records, doc.Root.Children...)
		}
	}

	if len(content) > 0 {
		container = &xmltree.Element{Tag: tag, Children: content}
	}
	return records, container, nil
}

func (m *merger) readFile(path string) (*xmltree.Document, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	m.files++
	return doc, nil
}

func readDocument(path string) (*xmltree.Document, error) {
	adapter, ok := formats.ForPath(path)
	if !ok {
		return nil, errs.Unsupported("read", path, fmt.Errorf("unknown file extension"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.FS("read", path, err)
	}
	doc, err := adapter.Parse(data)
	if err != nil {
		return nil, errs.Malformed("parse", path, err)
	}
	return xmltree.NormalizeDocument(doc), nil
}

// findSkeleton returns the name of the top-level file named after dir. When
// several match, the longest name wins.
func findSkeleton(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errs.FS("read directory", dir, err)
	}

	prefix := filepath.Base(filepath.Clean(dir)) + "."
	best := ""
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !formats.IsSupported(name) {
			continue
		}
		if len(name) > len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	if best == "" {
		return "", errs.New(errs.ErrMissingSkeleton, operation, dir,
			fmt.Errorf("no file named %s* found", prefix))
	}
	return best, nil
}

// sortedEntries lists dir by name, skipping dot entries and files in
// unsupported formats.
func sortedEntries(dir string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.FS("read directory", dir, err)
	}

	out := entries[:0]
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !e.IsDir() && !formats.IsSupported(e.Name()) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}
