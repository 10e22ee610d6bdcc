package formats

import (
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// TOMLAdapter reads and writes the object-tree representation as TOML.
// TOML tables carry no key order, so sibling elements of different tags are
// restored in key order rather than document order.
type TOMLAdapter struct{}

// NewTOMLAdapter creates a new TOML adapter.
func NewTOMLAdapter() *TOMLAdapter {
	return &TOMLAdapter{}
}

// Name returns the format name.
func (a *TOMLAdapter) Name() string {
	return TOML
}

// Extension returns the file extension.
func (a *TOMLAdapter) Extension() string {
	return "toml"
}

// Parse decodes a TOML document.
func (a *TOMLAdapter) Parse(data []byte) (*xmltree.Document, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse toml; %w", err)
	}
	return objectToDocument(fromTOMLValue(m))
}

// Render encodes the document as TOML.
func (a *TOMLAdapter) Render(d *xmltree.Document) ([]byte, error) {
	top, err := documentToObject(d)
	if err != nil {
		return nil, err
	}
	out, err := toml.Marshal(toTOMLValue(top))
	if err != nil {
		return nil, fmt.Errorf("failed to write toml; %w", err)
	}
	return out, nil
}

func toTOMLValue(v any) any {
	switch val := v.(type) {
	case *object:
		m := make(map[string]any, len(val.keys))
		for _, key := range val.keys {
			m[key] = toTOMLValue(val.vals[key])
		}
		return m
	case []any:
		arr := make([]any, len(val))
		for i, item := range val {
			arr[i] = toTOMLValue(item)
		}
		return arr
	}
	return v
}

func fromTOMLValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		// the declaration always leads so the document reads naturally
		sort.SliceStable(keys, func(i, j int) bool { return keys[i] == declKey && keys[j] != declKey })

		obj := newObject()
		for _, key := range keys {
			obj.set(key, fromTOMLValue(val[key]))
		}
		return obj
	case []any:
		arr := make([]any, len(val))
		for i, item := range val {
			arr[i] = fromTOMLValue(item)
		}
		return arr
	}
	return v
}
