package reassembler

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/leefowlercu/xml-disassembler/internal/disassembler"
	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/formats"
	"github.com/leefowlercu/xml-disassembler/internal/multilevel"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func parseXML(t *testing.T, data string) *xmltree.Element {
	t.Helper()
	doc, err := formats.NewXMLAdapter().Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return xmltree.Normalize(doc.Root)
}

// roundTrip disassembles src with cfg, reassembles the output and returns the
// reassembled text.
func roundTrip(t *testing.T, name, src string, cfg disassembler.Config, ext string) string {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, name)
	writeFile(t, input, src)

	d, err := disassembler.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := d.Disassemble(context.Background(), input)
	if err != nil {
		t.Fatalf("Disassemble() error = %v", err)
	}
	if err := os.Remove(input); err != nil {
		t.Fatal(err)
	}

	out, err := New(nil).Reassemble(context.Background(), res.Files[0].OutputDir, ext, false)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	data, err := os.ReadFile(out.Output)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestReassemble_UniqueIDContainer(t *testing.T) {
	src := `<A><items><item id="x">1</item><item id="y">2</item></items></A>`
	got := roundTrip(t, "A.xml", src, disassembler.Config{UniqueIDElements: []string{"id"}}, "")

	want := `<?xml version="1.0" encoding="UTF-8"?>
<A>
    <items>
        <item id="x">1</item>
        <item id="y">2</item>
    </items>
</A>
`
	if got != want {
		t.Errorf("Reassemble() =\n%s\nwant:\n%s", got, want)
	}
}

func TestReassemble_RoundTrips(t *testing.T) {
	const profile = `<?xml version="1.0" encoding="UTF-8"?>
<Profile xmlns="urn:example">
    <custom>false</custom>
    <description><![CDATA[a <b> c]]></description>
    <fieldPermissions>
        <editable>true</editable>
        <field>Account.Name</field>
    </fieldPermissions>
    <fieldPermissions>
        <editable>false</editable>
        <field>Account.Type</field>
    </fieldPermissions>
    <layoutAssignments>
        <layout>Account-Layout</layout>
    </layoutAssignments>
</Profile>
`

	tests := []struct {
		name string
		cfg  disassembler.Config
	}{
		{"unique-id xml", disassembler.Config{UniqueIDElements: []string{"field", "layout"}}},
		{"unique-id json", disassembler.Config{UniqueIDElements: []string{"field", "layout"}, Format: "json"}},
		{"unique-id yaml", disassembler.Config{UniqueIDElements: []string{"field", "layout"}, Format: "yaml"}},
		{"grouped-by-tag", disassembler.Config{Strategy: disassembler.StrategyGroupedByTag}},
		{"grouped-by-tag toml", disassembler.Config{Strategy: disassembler.StrategyGroupedByTag, Format: "toml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, "Admin.profile-meta.xml", profile, tt.cfg, "xml")
			if !xmltree.Equal(parseXML(t, profile), parseXML(t, got)) {
				t.Errorf("round trip differs:\n%s", got)
			}
		})
	}
}

func TestReassemble_MultiLevel(t *testing.T) {
	const bot = `<Bot version="2">
    <label>b</label>
    <flows>
        <name>F1</name>
        <Flow kind="main">
            <steps><id>s1</id><kind>a</kind></steps>
            <steps><id>s2</id><kind>b</kind></steps>
        </Flow>
    </flows>
</Bot>`

	tests := []struct {
		name string
		rule string
	}{
		{"strip child wrapper", "flows/:flows:id"},
		{"strip root", "flows/:Bot:id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := multilevel.ParseRule(tt.rule)
			if err != nil {
				t.Fatal(err)
			}
			cfg := disassembler.Config{
				UniqueIDElements: []string{"name"},
				MultiLevel:       []multilevel.Rule{rule},
			}
			got := roundTrip(t, "Bot.xml", bot, cfg, "")
			if !xmltree.Equal(parseXML(t, bot), parseXML(t, got)) {
				t.Errorf("round trip differs:\n%s", got)
			}
		})
	}
}

func TestReassemble_RootAttributesMerge(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "R")
	writeFile(t, filepath.Join(dir, "R.xml"), `<R a="1"/>`)
	writeFile(t, filepath.Join(dir, "x", "one.xml"), `<R a="2" b="3"><x><v>1</v></x></R>`)

	res, err := New(nil).Reassemble(context.Background(), dir, "", false)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	root := parseXML(t, string(data))
	if v, _ := root.Attr("a"); v != "1" {
		t.Errorf("a = %q, want skeleton value 1", v)
	}
	if v, _ := root.Attr("b"); v != "3" {
		t.Errorf("b = %q, want 3", v)
	}
	if res.Fragments != 2 {
		t.Errorf("Fragments = %d, want 2", res.Fragments)
	}
	if res.Document == nil || !xmltree.Equal(xmltree.Normalize(res.Document.Root), root) {
		t.Error("Result.Document does not match the written output")
	}
}

func TestReassemble_OutputNameAndPurge(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "Admin")
	writeFile(t, filepath.Join(dir, "Admin.profile-meta.xml"), `<R/>`)
	writeFile(t, filepath.Join(dir, "x", "one.xml"), `<R><x><v>1</v></x></R>`)

	res, err := New(nil).Reassemble(context.Background(), dir, "json", true)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	if want := filepath.Join(parent, "Admin.profile-meta.json"); res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if _, err := os.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
		t.Error("postpurge should remove the directory")
	}
}

func TestReassemble_Errors(t *testing.T) {
	root := t.TempDir()

	noSkeleton := filepath.Join(root, "N")
	writeFile(t, filepath.Join(noSkeleton, "other.xml"), `<R/>`)

	malformed := filepath.Join(root, "M")
	writeFile(t, filepath.Join(malformed, "M.xml"), `<R/>`)
	writeFile(t, filepath.Join(malformed, "x", "bad.xml"), `<R><x a="1></x></R>`)

	inconsistent := filepath.Join(root, "I")
	writeFile(t, filepath.Join(inconsistent, "I.xml"), `<R/>`)
	writeFile(t, filepath.Join(inconsistent, multilevel.MetadataFile),
		`{"version":1,"entries":{"x/gone.xml":{"root_tag":"R","inner_dir":"x/gone","format":"xml","wrapper":{"tag":"w","attributes":[]}}}}`)

	file := filepath.Join(root, "plain.xml")
	writeFile(t, file, `<R/>`)

	tests := []struct {
		name string
		dir  string
		ext  string
		want error
	}{
		{"missing directory", filepath.Join(root, "absent"), "", errs.ErrInputNotFound},
		{"file instead of directory", file, "", errs.ErrInputNotFound},
		{"no skeleton", noSkeleton, "", errs.ErrMissingSkeleton},
		{"malformed fragment", malformed, "", errs.ErrMalformedDocument},
		{"inconsistent metadata", inconsistent, "", errs.ErrInconsistentMetadata},
		{"unknown extension", malformed, "csv", errs.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil).Reassemble(context.Background(), tt.dir, tt.ext, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Reassemble() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFindSkeleton_PrefersLongestName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Admin")
	writeFile(t, filepath.Join(dir, "Admin.xml"), `<R/>`)
	writeFile(t, filepath.Join(dir, "Admin.profile-meta.xml"), `<R/>`)
	writeFile(t, filepath.Join(dir, "Admin.txt"), `x`)

	got, err := findSkeleton(dir)
	if err != nil {
		t.Fatalf("findSkeleton() error = %v", err)
	}
	if got != "Admin.profile-meta.xml" {
		t.Errorf("findSkeleton() = %q, want Admin.profile-meta.xml", got)
	}
}
