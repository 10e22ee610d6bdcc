package multilevel

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/formats"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		in      string
		want    Rule
		wantErr bool
	}{
		{
			in:   "programProcesses-meta:programProcesses:parameterName,ruleName",
			want: Rule{FilePattern: "programProcesses-meta", RootToStrip: "programProcesses", UniqueIDElements: []string{"parameterName", "ruleName"}},
		},
		{
			in:   " flows/ : Flow : id ",
			want: Rule{FilePattern: "flows/", RootToStrip: "Flow", UniqueIDElements: []string{"id"}},
		},
		{in: "a:b", wantErr: true},
		{in: "a::id", wantErr: true},
		{in: "a:b:", wantErr: true},
		{in: ":b:id", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRule(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseRule() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	r := Rule{FilePattern: "x", RootToStrip: "y", UniqueIDElements: []string{"a", "b"}}
	if got := r.String(); got != "x:y:a,b" {
		t.Errorf("String() = %q", got)
	}
}

func parse(t *testing.T, s string) *xmltree.Document {
	t.Helper()
	doc, err := formats.NewXMLAdapter().Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return xmltree.NormalizeDocument(doc)
}

func TestStripAndRewrap(t *testing.T) {
	tests := []struct {
		name         string
		doc          string
		target       string
		wantOK       bool
		wantStripped bool
		wantInner    string
		wantWrapper  Wrapper
	}{
		{
			name:         "strip root",
			doc:          `<Bot v="2"><a><id>1</id></a></Bot>`,
			target:       "Bot",
			wantOK:       true,
			wantStripped: true,
			wantInner:    `<Bot><a><id>1</id></a></Bot>`,
			wantWrapper:  Wrapper{Tag: "Bot", Attributes: []Attribute{{Key: "v", Value: "2"}}},
		},
		{
			name:        "unwrap sole child",
			doc:         `<Bot v="2"><flows k="x"><a><id>1</id></a><b>2</b></flows></Bot>`,
			target:      "flows",
			wantOK:      true,
			wantInner:   `<Bot v="2"><a><id>1</id></a><b>2</b></Bot>`,
			wantWrapper: Wrapper{Tag: "flows", Attributes: []Attribute{{Key: "k", Value: "x"}}},
		},
		{
			name:   "target not the only child",
			doc:    `<Bot><flows><a>1</a></flows><other/></Bot>`,
			target: "flows",
		},
		{
			name:   "target absent",
			doc:    `<Bot><flows><a>1</a></flows></Bot>`,
			target: "nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.doc)
			inner, wrapper, stripped, ok := Strip(doc, tt.target)
			if ok != tt.wantOK {
				t.Fatalf("Strip() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if stripped != tt.wantStripped {
				t.Errorf("strippedRoot = %v, want %v", stripped, tt.wantStripped)
			}
			if diff := cmp.Diff(tt.wantWrapper, wrapper); diff != "" {
				t.Errorf("wrapper mismatch (-want +got):\n%s", diff)
			}
			if got := string(xmltree.Canonical(inner.Root)); got != tt.wantInner {
				t.Errorf("inner = %s, want %s", got, tt.wantInner)
			}

			e := Entry{StrippedRoot: stripped, RootTag: inner.Root.Tag, Wrapper: wrapper}
			back, err := Rewrap(inner, e)
			if err != nil {
				t.Fatalf("Rewrap() error = %v", err)
			}
			if !xmltree.Equal(doc.Root, back.Root) {
				t.Errorf("Rewrap(Strip(x)) = %s, want %s", xmltree.Canonical(back.Root), xmltree.Canonical(doc.Root))
			}
		})
	}

	t.Run("root mismatch is inconsistent", func(t *testing.T) {
		_, err := Rewrap(parse(t, `<Other/>`), Entry{RootTag: "Bot"})
		if !errors.Is(err, errs.ErrInconsistentMetadata) {
			t.Errorf("Rewrap() error = %v, want ErrInconsistentMetadata", err)
		}
	})
}

func TestMetadata_SaveLoad(t *testing.T) {
	dir := t.TempDir()

	meta, found, err := Load(dir)
	if err != nil || found {
		t.Fatalf("Load(empty) = %v, %v", found, err)
	}

	meta.Entries["flows/F1.xml"] = Entry{
		FilePattern:           "flows/",
		StripTarget:           "flows",
		RootTag:               "Bot",
		Wrapper:               Wrapper{Tag: "flows", Attributes: []Attribute{}},
		InnerUniqueIDElements: []string{"id"},
		InnerDir:              "flows/F1",
		Format:                "xml",
	}
	if err := meta.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, found, err := Load(dir)
	if err != nil || !found {
		t.Fatalf("Load() = %v, %v", found, err)
	}
	if diff := cmp.Diff(meta, loaded); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	if err := os.WriteFile(filepath.Join(dir, MetadataFile), []byte(`{"version":99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(dir); !errors.Is(err, errs.ErrInconsistentMetadata) {
		t.Errorf("Load(future version) error = %v, want ErrInconsistentMetadata", err)
	}
}

func TestMetadata_SaveReplacesRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MetadataFile)
	const previous = `{"version":1,"entries":{}}`
	if err := os.WriteFile(path, []byte(previous), 0644); err != nil {
		t.Fatal(err)
	}
	// A second link to the old record shows whether Save rewrote the file in
	// place or replaced it.
	link := filepath.Join(dir, "previous.json")
	if err := os.Link(path, link); err != nil {
		t.Skipf("hard links unsupported: %v", err)
	}

	meta := NewMetadata()
	meta.Entries["a/B.xml"] = Entry{RootTag: "A", InnerDir: "a/B", Format: "xml"}
	if err := meta.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	old, err := os.ReadFile(link)
	if err != nil {
		t.Fatal(err)
	}
	if string(old) != previous {
		t.Errorf("previous record was modified in place:\n%s", old)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{MetadataFile, "previous.json"}, names); diff != "" {
		t.Errorf("directory entries mismatch (-want +got):\n%s", diff)
	}

	loaded, found, err := Load(dir)
	if err != nil || !found {
		t.Fatalf("Load() = %v, %v", found, err)
	}
	if _, ok := loaded.Entries["a/B.xml"]; !ok {
		t.Errorf("Load() entries = %v, want a/B.xml", loaded.Entries)
	}
}

// fakeSplitter writes the stripped document to <outputDir>/<skeletonName>.
type fakeSplitter struct {
	calls []string
}

func (f *fakeSplitter) SplitDocument(_ context.Context, doc *xmltree.Document, outputDir, skeletonName string, _ []string, adapter formats.Adapter) (int, error) {
	f.calls = append(f.calls, skeletonName)
	data, err := adapter.Render(doc)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}
	return 1, os.WriteFile(filepath.Join(outputDir, skeletonName), data, 0644)
}

// fakeMerger reads back the file written by fakeSplitter.
type fakeMerger struct{}

func (fakeMerger) MergeDirectory(_ context.Context, dir string) (*xmltree.Document, error) {
	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(dir)+".xml"))
	if err != nil {
		return nil, err
	}
	return formats.NewXMLAdapter().Parse(data)
}

func TestApplyAndCollapse(t *testing.T) {
	root := t.TempDir()
	const fragment = `<Bot v="2"><flows><a><id>1</id></a></flows></Bot>`
	for _, rel := range []string{"flows/F1.xml", "flows/F2.xml", "other/X.xml"} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(fragment), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rules := []Rule{{FilePattern: "flows/", RootToStrip: "flows", UniqueIDElements: []string{"id"}}}
	splitter := &fakeSplitter{}
	n, err := Apply(context.Background(), root, rules, splitter, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Apply() = %d, want 2", n)
	}
	if diff := cmp.Diff([]string{"F1.xml", "F2.xml"}, splitter.calls); diff != "" {
		t.Errorf("split calls mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(root, "flows", "F1.xml")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("split fragment should be removed")
	}
	if _, err := os.Stat(filepath.Join(root, "flows", "F1", "F1.xml")); err != nil {
		t.Errorf("inner skeleton missing: %v", err)
	}

	meta, found, err := Load(root)
	if err != nil || !found || len(meta.Entries) != 2 {
		t.Fatalf("Load() = %+v, %v, %v", meta, found, err)
	}

	c, err := Collapse(context.Background(), root, fakeMerger{}, nil)
	if err != nil {
		t.Fatalf("Collapse() error = %v", err)
	}
	if c != 2 {
		t.Errorf("Collapse() = %d, want 2", c)
	}

	data, err := os.ReadFile(filepath.Join(root, "flows", "F1.xml"))
	if err != nil {
		t.Fatalf("collapsed fragment missing: %v", err)
	}
	if !xmltree.Equal(parse(t, fragment).Root, parse(t, string(data)).Root) {
		t.Errorf("collapsed fragment = %s, want %s", data, fragment)
	}
	if _, err := os.Stat(filepath.Join(root, "flows", "F1")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("inner directory should be removed after collapse")
	}
	if _, err := os.Stat(filepath.Join(root, MetadataFile)); !errors.Is(err, fs.ErrNotExist) {
		t.Error("metadata file should be removed after collapse")
	}
}

func TestApply_SkipsUnstrippable(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "flows", "F1.xml")
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(`<Bot><a/><b/></Bot>`), 0644); err != nil {
		t.Fatal(err)
	}

	rules := []Rule{{FilePattern: "flows/", RootToStrip: "flows", UniqueIDElements: []string{"id"}}}
	n, err := Apply(context.Background(), root, rules, &fakeSplitter{}, nil)
	if err != nil || n != 0 {
		t.Fatalf("Apply() = %d, %v; want 0, nil", n, err)
	}
	if _, err := os.Stat(filepath.Join(root, MetadataFile)); !errors.Is(err, fs.ErrNotExist) {
		t.Error("no metadata should be written when nothing was split")
	}
}

func TestCollapse_WithoutMetadata(t *testing.T) {
	n, err := Collapse(context.Background(), t.TempDir(), fakeMerger{}, nil)
	if err != nil || n != 0 {
		t.Errorf("Collapse() = %d, %v; want 0, nil", n, err)
	}
}
