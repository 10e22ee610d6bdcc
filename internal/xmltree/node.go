// Package xmltree provides the in-memory document model shared by the format
// adapters, the disassembler and the reassembler.
package xmltree

import "strings"

// Node is one of *Element, *Text, *CData or *Comment.
type Node interface {
	node()
}

// Attr is a single attribute. Keys keep their namespace prefix ("xmlns:xsi").
type Attr struct {
	Key   string
	Value string
}

// Element is a tagged node with ordered attributes and children.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []Node
}

// Text is character data outside CDATA sections.
type Text struct {
	Content string
}

// CData is a CDATA section.
type CData struct {
	Content string
}

// Comment is an XML comment.
type Comment struct {
	Content string
}

func (*Element) node() {}
func (*Text) node()    {}
func (*CData) node()   {}
func (*Comment) node() {}

// NewElement returns an element with the given tag and no content.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Attr returns the value of the attribute with the given key.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces the value of an existing attribute or appends a new one.
func (e *Element) SetAttr(key, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Key == key {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Key: key, Value: value})
}

// MergeAttrs appends the attributes from attrs whose keys e does not carry yet.
// Existing values are never overwritten.
func (e *Element) MergeAttrs(attrs []Attr) {
	for _, a := range attrs {
		if _, ok := e.Attr(a.Key); !ok {
			e.Attrs = append(e.Attrs, a)
		}
	}
}

// NamespaceDecls returns the xmlns and xmlns:* attributes in document order.
func (e *Element) NamespaceDecls() []Attr {
	var decls []Attr
	for _, a := range e.Attrs {
		if a.Key == "xmlns" || strings.HasPrefix(a.Key, "xmlns:") {
			decls = append(decls, a)
		}
	}
	return decls
}

// AppendChild appends n to the element's children.
func (e *Element) AppendChild(n Node) {
	e.Children = append(e.Children, n)
}

// Elements returns the element children in order.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// HasElementChildren reports whether any child is an element.
func (e *Element) HasElementChildren() bool {
	for _, c := range e.Children {
		if _, ok := c.(*Element); ok {
			return true
		}
	}
	return false
}

// IsLeaf reports whether the element holds only text, CDATA and comments.
func (e *Element) IsLeaf() bool {
	return !e.HasElementChildren()
}

// HasSignificantText reports whether any Text child holds non-whitespace content.
func (e *Element) HasSignificantText() bool {
	for _, c := range e.Children {
		if t, ok := c.(*Text); ok && !IsWhitespace(t.Content) {
			return true
		}
	}
	return false
}

// TextValue returns the element's scalar value when its children reduce to a
// single Text or CData node.
func (e *Element) TextValue() (string, bool) {
	if len(e.Children) != 1 {
		return "", false
	}
	switch c := e.Children[0].(type) {
	case *Text:
		return c.Content, true
	case *CData:
		return c.Content, true
	}
	return "", false
}

// IsWhitespace reports whether s consists only of XML whitespace.
func IsWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
