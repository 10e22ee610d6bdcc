package formats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

const jsonIndent = "  "

// JSONAdapter reads and writes the object-tree representation as JSON.
type JSONAdapter struct{}

// NewJSONAdapter creates a new JSON adapter.
func NewJSONAdapter() *JSONAdapter {
	return &JSONAdapter{}
}

// Name returns the format name.
func (a *JSONAdapter) Name() string {
	return JSON
}

// Extension returns the file extension.
func (a *JSONAdapter) Extension() string {
	return "json"
}

// Parse decodes a JSON document, preserving key order. Comments and trailing
// commas left by hand edits are tolerated.
func (a *JSONAdapter) Parse(data []byte) (*xmltree.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	v, err := decodeOrdered(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse json; %w", err)
	}
	return objectToDocument(v)
}

// Render encodes the document as indented JSON.
func (a *JSONAdapter) Render(d *xmltree.Document) ([]byte, error) {
	top, err := documentToObject(d)
	if err != nil {
		return nil, err
	}
	return encodeOrderedJSON(top)
}

// tokenStream is the streaming decoder surface shared by the JSON and JSON5
// decoders. Delimiters are reported as json.Delim.
type tokenStream interface {
	Token() (json.Token, error)
	More() bool
}

func decodeOrdered(dec tokenStream) (any, error) {
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected content after top-level value")
	}
	return v, nil
}

func decodeJSONValue(dec tokenStream) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := newObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("expected object key, got %v", keyTok)
			}
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %v", delim)
}

func encodeOrderedJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONValue(&buf, v, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeJSONValue(buf *bytes.Buffer, v any, depth int) error {
	switch val := v.(type) {
	case *object:
		if len(val.keys) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i, key := range val.keys {
			buf.WriteString(strings.Repeat(jsonIndent, depth+1))
			if err := writeJSONString(buf, key); err != nil {
				return err
			}
			buf.WriteString(": ")
			if err := writeJSONValue(buf, val.vals[key], depth+1); err != nil {
				return err
			}
			if i < len(val.keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.Repeat(jsonIndent, depth))
		buf.WriteByte('}')
	case []any:
		if len(val) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range val {
			buf.WriteString(strings.Repeat(jsonIndent, depth+1))
			if err := writeJSONValue(buf, item, depth+1); err != nil {
				return err
			}
			if i < len(val)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(strings.Repeat(jsonIndent, depth))
		buf.WriteByte(']')
	case string:
		return writeJSONString(buf, val)
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
