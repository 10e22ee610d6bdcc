// Package formats converts between raw document text and the xmltree model.
// Each supported encoding is an independent Adapter; all of them share only
// the node model.
package formats

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// Adapter parses and renders one document encoding.
type Adapter interface {
	// Name returns the format name used on the command line.
	Name() string

	// Extension returns the file extension without the leading dot.
	Extension() string

	// Parse converts raw text into a document.
	Parse(data []byte) (*xmltree.Document, error)

	// Render converts a document into raw text.
	Render(doc *xmltree.Document) ([]byte, error)
}

// Format names.
const (
	XML   = "xml"
	JSON  = "json"
	JSON5 = "json5"
	YAML  = "yaml"
	TOML  = "toml"
)

var registry = map[string]Adapter{
	XML:   NewXMLAdapter(),
	JSON:  NewJSONAdapter(),
	JSON5: NewJSON5Adapter(),
	YAML:  NewYAMLAdapter(),
	TOML:  NewTOMLAdapter(),
}

// extension aliases accepted when selecting an adapter by file name.
var aliases = map[string]string{
	"yml": YAML,
}

// Lookup returns the adapter for a format name or extension.
func Lookup(name string) (Adapter, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "."))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	if a, ok := registry[key]; ok {
		return a, nil
	}
	return nil, errs.Unsupported("select format", "",
		fmt.Errorf("unknown format %q; supported formats are %s", name, strings.Join(Names(), ", ")))
}

// ForPath returns the adapter selected by the file extension of path.
func ForPath(path string) (Adapter, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, false
	}
	a, err := Lookup(ext)
	if err != nil {
		return nil, false
	}
	return a, true
}

// IsSupported reports whether path has an extension handled by an adapter.
func IsSupported(path string) bool {
	_, ok := ForPath(path)
	return ok
}

// Names returns the supported format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
