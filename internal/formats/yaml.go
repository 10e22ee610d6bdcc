package formats

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// YAMLAdapter reads and writes the object-tree representation as YAML.
// Mapping order is preserved through yaml.Node.
type YAMLAdapter struct{}

// NewYAMLAdapter creates a new YAML adapter.
func NewYAMLAdapter() *YAMLAdapter {
	return &YAMLAdapter{}
}

// Name returns the format name.
func (a *YAMLAdapter) Name() string {
	return YAML
}

// Extension returns the file extension.
func (a *YAMLAdapter) Extension() string {
	return "yaml"
}

// Parse decodes a YAML document.
func (a *YAMLAdapter) Parse(data []byte) (*xmltree.Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse yaml; %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("yaml document is empty")
	}

	v, err := fromYAMLNode(root.Content[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse yaml; %w", err)
	}
	return objectToDocument(v)
}

// Render encodes the document as YAML with two-space indentation.
func (a *YAMLAdapter) Render(d *xmltree.Document) ([]byte, error) {
	top, err := documentToObject(d)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toYAMLNode(top)); err != nil {
		return nil, fmt.Errorf("failed to write yaml; %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to write yaml; %w", err)
	}
	return buf.Bytes(), nil
}

func toYAMLNode(v any) *yaml.Node {
	switch val := v.(type) {
	case *object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range val.keys {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				toYAMLNode(val.vals[key]))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			n.Content = append(n.Content, toYAMLNode(item))
		}
		return n
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func fromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.set(n.Content[i].Value, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			val, err := fromYAMLNode(item)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return n.Value, nil
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, errors.New("dangling yaml alias")
		}
		return fromYAMLNode(n.Alias)
	}
	return nil, fmt.Errorf("unsupported yaml node kind %d at line %d", n.Kind, n.Line)
}
