package formats

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// JSON5Adapter reads JSON5 (unquoted keys, single-quoted strings, comments,
// trailing commas, hex numbers) and writes plain JSON, which is valid JSON5.
type JSON5Adapter struct{}

// NewJSON5Adapter creates a new JSON5 adapter.
func NewJSON5Adapter() *JSON5Adapter {
	return &JSON5Adapter{}
}

// Name returns the format name.
func (a *JSON5Adapter) Name() string {
	return JSON5
}

// Extension returns the file extension.
func (a *JSON5Adapter) Extension() string {
	return "json5"
}

// Parse decodes a JSON5 document, preserving key order.
func (a *JSON5Adapter) Parse(data []byte) (*xmltree.Document, error) {
	dec := json5.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrdered(json5Tokens{dec})
	if err != nil {
		return nil, fmt.Errorf("failed to parse json5; %w", err)
	}
	return objectToDocument(v)
}

// Render encodes the document as indented JSON.
func (a *JSON5Adapter) Render(d *xmltree.Document) ([]byte, error) {
	top, err := documentToObject(d)
	if err != nil {
		return nil, err
	}
	return encodeOrderedJSON(top)
}

// json5Tokens maps json5 delimiters and numbers onto their encoding/json
// counterparts.
type json5Tokens struct {
	dec *json5.Decoder
}

func (t json5Tokens) Token() (json.Token, error) {
	tok, err := t.dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json5.Delim:
		return json.Delim(v), nil
	case json5.Number:
		return json.Number(v), nil
	}
	return tok, nil
}

func (t json5Tokens) More() bool {
	return t.dec.More()
}
