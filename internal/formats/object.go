package formats

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// Reserved keys of the object-tree representation.
const (
	declKey    = "?xml"
	attrPrefix = "@"
	textKey    = "#text"
	cdataKey   = "#cdata"
	commentKey = "#comment"
)

// object is an insertion-ordered string-keyed map. It is the intermediate
// form shared by the JSON, JSON5, YAML and TOML adapters.
type object struct {
	keys []string
	vals map[string]any
}

func newObject() *object {
	return &object{vals: make(map[string]any)}
}

func (o *object) set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

func (o *object) get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// appendValue stores v under key, turning the slot into an array on repeat.
// Element values are never arrays themselves, so any []any found here was
// created by a previous repeat.
func (o *object) appendValue(key string, v any) {
	existing, ok := o.vals[key]
	if !ok {
		o.set(key, v)
		return
	}
	if arr, isArr := existing.([]any); isArr {
		o.vals[key] = append(arr, v)
		return
	}
	o.vals[key] = []any{existing, v}
}

// documentToObject maps a document to {"?xml": {...}, rootTag: value}.
func documentToObject(d *xmltree.Document) (*object, error) {
	if d == nil || d.Root == nil {
		return nil, errors.New("document has no root element")
	}
	decl := d.Declaration.WithDefaults()

	declObj := newObject()
	declObj.set(attrPrefix+"version", decl.Version)
	declObj.set(attrPrefix+"encoding", decl.Encoding)
	if decl.Standalone != nil {
		if *decl.Standalone {
			declObj.set(attrPrefix+"standalone", "yes")
		} else {
			declObj.set(attrPrefix+"standalone", "no")
		}
	}

	top := newObject()
	top.set(declKey, declObj)
	top.set(d.Root.Tag, elementToValue(xmltree.Normalize(d.Root)))
	return top, nil
}

func elementToValue(e *xmltree.Element) any {
	if len(e.Attrs) == 0 {
		if len(e.Children) == 0 {
			return newObject()
		}
		if len(e.Children) == 1 {
			if t, ok := e.Children[0].(*xmltree.Text); ok {
				return t.Content
			}
		}
	}

	o := newObject()
	for _, a := range e.Attrs {
		o.set(attrPrefix+a.Key, a.Value)
	}
	for _, c := range e.Children {
		switch n := c.(type) {
		case *xmltree.Element:
			o.appendValue(n.Tag, elementToValue(n))
		case *xmltree.Text:
			o.appendValue(textKey, n.Content)
		case *xmltree.CData:
			o.appendValue(cdataKey, n.Content)
		case *xmltree.Comment:
			o.appendValue(commentKey, n.Content)
		}
	}
	return o
}

// objectToDocument is the inverse of documentToObject.
func objectToDocument(v any) (*xmltree.Document, error) {
	top, ok := v.(*object)
	if !ok {
		return nil, fmt.Errorf("top-level value must be an object, got %T", v)
	}

	doc := &xmltree.Document{Declaration: xmltree.DefaultDeclaration()}
	for _, key := range top.keys {
		val := top.vals[key]
		if key == declKey {
			decl, err := declarationFromValue(val)
			if err != nil {
				return nil, err
			}
			doc.Declaration = decl
			continue
		}
		if doc.Root != nil {
			return nil, fmt.Errorf("multiple root elements %q and %q", doc.Root.Tag, key)
		}
		if _, isArr := val.([]any); isArr {
			return nil, fmt.Errorf("root element %q must not repeat", key)
		}
		root, err := valueToElement(key, val)
		if err != nil {
			return nil, err
		}
		doc.Root = root
	}

	if doc.Root == nil {
		return nil, errors.New("document has no root element")
	}
	return doc, nil
}

func declarationFromValue(v any) (xmltree.Declaration, error) {
	decl := xmltree.Declaration{}
	obj, ok := v.(*object)
	if !ok {
		return decl, fmt.Errorf("declaration must be an object, got %T", v)
	}
	for _, key := range obj.keys {
		s, err := scalarText(obj.vals[key])
		if err != nil {
			return decl, fmt.Errorf("declaration %s; %w", key, err)
		}
		switch key {
		case attrPrefix + "version":
			decl.Version = s
		case attrPrefix + "encoding":
			decl.Encoding = s
		case attrPrefix + "standalone":
			standalone := s == "yes" || s == "true"
			decl.Standalone = &standalone
		}
	}
	return decl.WithDefaults(), nil
}

func valueToElement(tag string, v any) (*xmltree.Element, error) {
	e := xmltree.NewElement(tag)

	obj, ok := v.(*object)
	if !ok {
		if _, isArr := v.([]any); isArr {
			return nil, fmt.Errorf("element %q: nested arrays are not supported", tag)
		}
		if v == nil {
			return e, nil
		}
		s, err := scalarText(v)
		if err != nil {
			return nil, fmt.Errorf("element %q; %w", tag, err)
		}
		if s != "" {
			e.AppendChild(&xmltree.Text{Content: s})
		}
		return e, nil
	}

	for _, key := range obj.keys {
		val := obj.vals[key]
		switch {
		case len(key) > 1 && key[:1] == attrPrefix:
			s, err := scalarText(val)
			if err != nil {
				return nil, fmt.Errorf("attribute %q of %q; %w", key[1:], tag, err)
			}
			e.Attrs = append(e.Attrs, xmltree.Attr{Key: key[1:], Value: s})
		case key == textKey || key == cdataKey || key == commentKey:
			for _, item := range asList(val) {
				s, err := scalarText(item)
				if err != nil {
					return nil, fmt.Errorf("%s of %q; %w", key, tag, err)
				}
				e.AppendChild(contentNode(key, s))
			}
		default:
			for _, item := range asList(val) {
				child, err := valueToElement(key, item)
				if err != nil {
					return nil, err
				}
				e.AppendChild(child)
			}
		}
	}
	return e, nil
}

func contentNode(key, s string) xmltree.Node {
	switch key {
	case cdataKey:
		return &xmltree.CData{Content: s}
	case commentKey:
		return &xmltree.Comment{Content: s}
	}
	return &xmltree.Text{Content: s}
}

func asList(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return []any{v}
}

// scalarText renders the scalar types produced by the decoders as text.
func scalarText(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case bool:
		return strconv.FormatBool(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case int:
		return strconv.Itoa(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case time.Time:
		return s.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", fmt.Errorf("expected a scalar value, got %T", v)
}
