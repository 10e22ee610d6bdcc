package xmltree

import (
	"sort"
	"strings"
)

// Normalize returns a deep copy of e with insignificant whitespace removed.
// A whitespace-only Text child is insignificant when its parent holds at least
// one element child and no non-whitespace text.
func Normalize(e *Element) *Element {
	if e == nil {
		return nil
	}
	out := &Element{Tag: e.Tag, Attrs: cloneAttrs(e.Attrs)}
	structural := e.HasElementChildren() && !e.HasSignificantText()
	for _, c := range e.Children {
		switch n := c.(type) {
		case *Element:
			out.Children = append(out.Children, Normalize(n))
		case *Text:
			if structural {
				continue
			}
			out.Children = append(out.Children, &Text{Content: n.Content})
		default:
			out.Children = append(out.Children, Clone(n))
		}
	}
	return out
}

// NormalizeDocument normalizes the root of d in place and applies declaration defaults.
func NormalizeDocument(d *Document) *Document {
	d.Declaration = d.Declaration.WithDefaults()
	d.Root = Normalize(d.Root)
	return d
}

// Clone returns a deep copy of n.
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Element:
		return v.Clone()
	case *Text:
		return &Text{Content: v.Content}
	case *CData:
		return &CData{Content: v.Content}
	case *Comment:
		return &Comment{Content: v.Content}
	}
	return nil
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := &Element{Tag: e.Tag, Attrs: cloneAttrs(e.Attrs)}
	if len(e.Children) > 0 {
		out.Children = make([]Node, len(e.Children))
		for i, c := range e.Children {
			out.Children[i] = Clone(c)
		}
	}
	return out
}

func cloneAttrs(attrs []Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(attrs))
	copy(out, attrs)
	return out
}

// Equal reports whether a and b are structurally identical, including
// attribute order and every text node.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case *Element:
		y, ok := b.(*Element)
		if !ok || x.Tag != y.Tag || len(x.Attrs) != len(y.Attrs) || len(x.Children) != len(y.Children) {
			return false
		}
		for i := range x.Attrs {
			if x.Attrs[i] != y.Attrs[i] {
				return false
			}
		}
		for i := range x.Children {
			if !Equal(x.Children[i], y.Children[i]) {
				return false
			}
		}
		return true
	case *Text:
		y, ok := b.(*Text)
		return ok && x.Content == y.Content
	case *CData:
		y, ok := b.(*CData)
		return ok && x.Content == y.Content
	case *Comment:
		y, ok := b.(*Comment)
		return ok && x.Content == y.Content
	}
	return false
}

// Canonical returns a deterministic serialization of e used for content
// hashing. Attributes are sorted by key and insignificant whitespace is skipped,
// so the result does not depend on source formatting.
func Canonical(e *Element) []byte {
	var b strings.Builder
	writeCanonical(&b, Normalize(e))
	return []byte(b.String())
}

func writeCanonical(b *strings.Builder, e *Element) {
	b.WriteByte('<')
	b.WriteString(e.Tag)
	attrs := cloneAttrs(e.Attrs)
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	for _, a := range attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(escape(a.Value))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	for _, c := range e.Children {
		switch n := c.(type) {
		case *Element:
			writeCanonical(b, n)
		case *Text:
			b.WriteString(escape(n.Content))
		case *CData:
			b.WriteString("<![CDATA[")
			b.WriteString(n.Content)
			b.WriteString("]]>")
		case *Comment:
			b.WriteString("<!--")
			b.WriteString(n.Content)
			b.WriteString("-->")
		}
	}
	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteByte('>')
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return escaper.Replace(s)
}
