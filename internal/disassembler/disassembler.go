// Package disassembler splits XML documents into a skeleton file plus one
// fragment file per nested element or tag group.
package disassembler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/formats"
	"github.com/leefowlercu/xml-disassembler/internal/metrics"
	"github.com/leefowlercu/xml-disassembler/internal/multilevel"
	"github.com/leefowlercu/xml-disassembler/internal/walker"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

const operation = "disassemble"

// FileResult describes the outcome for one input file.
type FileResult struct {
	Input     string
	OutputDir string

	// Fragments counts the files written, skeleton included.
	Fragments int

	// MultiLevel counts fragments that were split a second time.
	MultiLevel int

	// Skipped is set when the file was ignored or held nothing to split.
	Skipped bool

	Err error
}

// Result collects per-file outcomes in input order.
type Result struct {
	Files []FileResult
}

// Written returns the number of files written across all inputs.
func (r *Result) Written() int {
	n := 0
	for _, f := range r.Files {
		n += f.Fragments
	}
	return n
}

// Option configures a Disassembler.
type Option func(*Disassembler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Disassembler) {
		d.logger = logger
	}
}

// WithFilter replaces the filter used for directory inputs and single-file
// ignore checks.
func WithFilter(filter *walker.Filter) Option {
	return func(d *Disassembler) {
		d.filter = filter
	}
}

// Disassembler runs disassembly with a fixed configuration. It is safe for
// concurrent use.
type Disassembler struct {
	cfg     Config
	adapter formats.Adapter
	parser  formats.Adapter
	filter  *walker.Filter
	logger  *slog.Logger
}

// New validates cfg and returns a Disassembler.
func New(cfg Config, opts ...Option) (*Disassembler, error) {
	format := cfg.Format
	if format == "" {
		format = formats.XML
	}
	adapter, err := formats.Lookup(format)
	if err != nil {
		return nil, err
	}
	parser, err := formats.Lookup(formats.XML)
	if err != nil {
		return nil, err
	}

	if cfg.Strategy == "" {
		cfg.Strategy = StrategyUniqueID
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}

	d := &Disassembler{
		cfg:     cfg,
		adapter: adapter,
		parser:  parser,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.filter == nil {
		d.filter, err = walker.LoadFilter(cfg.IgnorePath, walker.WithExtensions(".xml"))
		if err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "disassembler")
	return d, nil
}

// Disassemble processes a single .xml file, or every .xml file found under a
// directory. Per-file failures in directory mode do not stop other files; they
// are joined into the returned error.
func (d *Disassembler) Disassemble(ctx context.Context, input string) (*Result, error) {
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NotFound(operation, input, err)
		}
		return nil, errs.FS(operation, input, err)
	}

	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(input), ".xml") {
			return nil, errs.Unsupported(operation, input, fmt.Errorf("input must be an .xml file"))
		}
		if d.filter.Ignored(input, false) {
			d.logger.Info("input matches ignore rules; skipping", "input", input)
			return &Result{Files: []FileResult{{Input: input, Skipped: true}}}, nil
		}
		fr := d.disassembleFile(ctx, input)
		return &Result{Files: []FileResult{fr}}, fr.Err
	}

	w := walker.New(d.filter)
	files, err := w.Collect(ctx, input)
	if err != nil {
		return nil, err
	}
	stats := w.Stats()
	d.logger.Debug("collected inputs",
		"root", input,
		"files", stats.FilesDiscovered,
		"files_skipped", stats.FilesSkipped,
		"dirs_skipped", stats.DirsSkipped)

	return d.runBatch(ctx, files)
}

func (d *Disassembler) runBatch(ctx context.Context, files []string) (*Result, error) {
	results := make([]FileResult, len(files))
	claimed := make(map[string]string, len(files))

	var g errgroup.Group
	g.SetLimit(d.cfg.Concurrency)

	for i, file := range files {
		out := OutputDir(file)
		if prev, taken := claimed[out]; taken {
			results[i] = FileResult{
				Input:     file,
				OutputDir: out,
				Err: errs.FS(operation, file,
					fmt.Errorf("output directory %s is already used by %s", out, prev)),
			}
			continue
		}
		claimed[out] = file

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Input: file, OutputDir: out, Err: err}
				return nil
			}
			results[i] = d.disassembleFile(ctx, file)
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, r.Err)
		}
	}
	return &Result{Files: results}, errors.Join(failures...)
}

func (d *Disassembler) disassembleFile(ctx context.Context, input string) (fr FileResult) {
	start := time.Now()
	fr = FileResult{Input: input, OutputDir: OutputDir(input)}
	defer func() {
		metrics.RecordDocument(operation, time.Since(start), fr.Skipped, fr.Err)
	}()

	logger := d.logger.With("input", input)

	data, err := os.ReadFile(input)
	if err != nil {
		fr.Err = errs.FS("read", input, err)
		return fr
	}
	doc, err := d.parser.Parse(data)
	if err != nil {
		fr.Err = errs.Malformed("parse", input, err)
		return fr
	}
	doc = xmltree.NormalizeDocument(doc)

	l := layout{
		ext:          d.adapter.Extension(),
		skeletonName: SkeletonName(input, d.adapter),
		stem:         filepath.Base(fr.OutputDir),
		fields:       d.cfg.UniqueIDElements,
		splitTags:    d.cfg.SplitTags,
	}

	var p *plan
	if d.cfg.Strategy == StrategyGroupedByTag {
		p, err = planGroupedByTag(doc, l)
	} else {
		p, err = planUniqueID(doc, l)
	}
	if err != nil {
		fr.Err = err
		return fr
	}
	if p == nil {
		logger.Warn("document has no nested elements; skipping")
		fr.Skipped = true
		return fr
	}

	if d.cfg.PrePurge {
		if err := os.RemoveAll(fr.OutputDir); err != nil {
			fr.Err = errs.FS("purge", fr.OutputDir, err)
			return fr
		}
	}

	fr.Fragments, err = d.write(fr.OutputDir, p, d.adapter)
	if err != nil {
		fr.Err = err
		return fr
	}

	if len(d.cfg.MultiLevel) > 0 {
		fr.MultiLevel, err = multilevel.Apply(ctx, fr.OutputDir, d.cfg.MultiLevel, d, logger)
		if err != nil {
			fr.Err = err
			return fr
		}
	}

	if d.cfg.PostPurge {
		if err := os.Remove(input); err != nil {
			fr.Err = errs.FS("remove input", input, err)
			return fr
		}
	}

	logger.Info("disassembled document",
		"output", fr.OutputDir,
		"strategy", string(d.cfg.Strategy),
		"files", fr.Fragments,
		"multi_level", fr.MultiLevel,
		"duration", time.Since(start))
	return fr
}

// SplitDocument disassembles an already parsed document into outputDir with
// the unique-id strategy, writing fragments with adapter. It returns zero when
// the document has no nested elements.
func (d *Disassembler) SplitDocument(ctx context.Context, doc *xmltree.Document, outputDir, skeletonName string, uniqueIDs []string, adapter formats.Adapter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	doc = xmltree.NormalizeDocument(doc)
	p, err := planUniqueID(doc, layout{
		ext:          adapter.Extension(),
		skeletonName: skeletonName,
		stem:         filepath.Base(outputDir),
		fields:       uniqueIDs,
	})
	if err != nil || p == nil {
		return 0, err
	}
	return d.write(outputDir, p, adapter)
}

func (d *Disassembler) write(outputDir string, p *plan, adapter formats.Adapter) (int, error) {
	all := make([]fragment, 0, len(p.fragments)+1)
	all = append(all, p.skeleton)
	all = append(all, p.fragments...)

	for _, f := range all {
		target := filepath.Join(outputDir, filepath.FromSlash(f.rel))
		data, err := adapter.Render(f.doc)
		if err != nil {
			return 0, fmt.Errorf("failed to render %s; %w", target, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return 0, errs.FS("create directory", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return 0, errs.FS("write", target, err)
		}
	}

	metrics.RecordFragments(adapter.Name(), len(all))
	return len(all), nil
}

// OutputDir returns the directory a disassembly of input is written to: a
// sibling of input named by the base name up to its first dot.
func OutputDir(input string) string {
	base := filepath.Base(input)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return filepath.Join(filepath.Dir(input), base)
}

// SkeletonName returns the skeleton file name for input: the base name with
// its final extension replaced by the adapter's.
func SkeletonName(input string, adapter formats.Adapter) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + adapter.Extension()
}
