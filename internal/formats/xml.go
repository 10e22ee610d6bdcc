package formats

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

const xmlIndent = "    "

// XMLAdapter reads and writes native XML.
type XMLAdapter struct{}

// NewXMLAdapter creates a new XML adapter.
func NewXMLAdapter() *XMLAdapter {
	return &XMLAdapter{}
}

// Name returns the format name.
func (a *XMLAdapter) Name() string {
	return XML
}

// Extension returns the file extension.
func (a *XMLAdapter) Extension() string {
	return "xml"
}

// Parse reads an XML document. Comments and processing instructions outside
// the root element are dropped; only the declaration is kept.
func (a *XMLAdapter) Parse(data []byte) (*xmltree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse xml; %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}

	decl := xmltree.DefaultDeclaration()
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			decl = parseDeclaration(pi.Inst)
			break
		}
	}

	return &xmltree.Document{Declaration: decl, Root: fromEtree(root)}, nil
}

// Render writes the document with its declaration, indenting elements that
// hold only element content by four spaces.
func (a *XMLAdapter) Render(d *xmltree.Document) ([]byte, error) {
	if d == nil || d.Root == nil {
		return nil, errors.New("document has no root element")
	}

	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true

	doc.CreateProcInst("xml", declarationInst(d.Declaration.WithDefaults()))
	doc.CreateText("\n")
	doc.AddChild(toEtree(d.Root, 0))
	doc.CreateText("\n")

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write xml; %w", err)
	}
	return out, nil
}

func fromEtree(src *etree.Element) *xmltree.Element {
	dst := &xmltree.Element{Tag: src.FullTag()}
	for _, attr := range src.Attr {
		dst.Attrs = append(dst.Attrs, xmltree.Attr{Key: attr.FullKey(), Value: attr.Value})
	}

	for _, tok := range src.Child {
		switch t := tok.(type) {
		case *etree.Element:
			dst.AppendChild(fromEtree(t))
		case *etree.CharData:
			if t.IsCData() {
				dst.AppendChild(&xmltree.CData{Content: t.Data})
				continue
			}
			// the decoder may split one text run into several tokens
			if n := len(dst.Children); n > 0 {
				if prev, ok := dst.Children[n-1].(*xmltree.Text); ok {
					prev.Content += t.Data
					continue
				}
			}
			dst.AppendChild(&xmltree.Text{Content: t.Data})
		case *etree.Comment:
			dst.AppendChild(&xmltree.Comment{Content: t.Data})
		}
	}
	return dst
}

func toEtree(src *xmltree.Element, depth int) *etree.Element {
	dst := etree.NewElement(src.Tag)
	for _, attr := range src.Attrs {
		dst.CreateAttr(attr.Key, attr.Value)
	}

	// Only element-only content is indented; text-bearing content is written
	// exactly as stored so that significant whitespace survives.
	indent := src.HasElementChildren() && !src.HasSignificantText()
	for _, c := range src.Children {
		if indent {
			if _, ok := c.(*xmltree.Text); ok {
				continue
			}
			dst.CreateText("\n" + strings.Repeat(xmlIndent, depth+1))
		}
		switch n := c.(type) {
		case *xmltree.Element:
			dst.AddChild(toEtree(n, depth+1))
		case *xmltree.Text:
			dst.CreateText(n.Content)
		case *xmltree.CData:
			dst.CreateCData(n.Content)
		case *xmltree.Comment:
			dst.CreateComment(n.Content)
		}
	}
	if indent {
		dst.CreateText("\n" + strings.Repeat(xmlIndent, depth))
	}
	return dst
}

var pseudoAttr = regexp.MustCompile(`([A-Za-z]+)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

func parseDeclaration(inst string) xmltree.Declaration {
	decl := xmltree.Declaration{}
	for _, m := range pseudoAttr.FindAllStringSubmatch(inst, -1) {
		value := m[2]
		if value == "" {
			value = m[3]
		}
		switch m[1] {
		case "version":
			decl.Version = value
		case "encoding":
			decl.Encoding = value
		case "standalone":
			standalone := value == "yes"
			decl.Standalone = &standalone
		}
	}
	return decl.WithDefaults()
}

func declarationInst(d xmltree.Declaration) string {
	inst := fmt.Sprintf(`version="%s" encoding="%s"`, d.Version, d.Encoding)
	if d.Standalone != nil {
		if *d.Standalone {
			inst += ` standalone="yes"`
		} else {
			inst += ` standalone="no"`
		}
	}
	return inst
}
