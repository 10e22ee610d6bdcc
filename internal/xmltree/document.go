package xmltree

// Default declaration values applied when a document omits them.
const (
	DefaultVersion  = "1.0"
	DefaultEncoding = "UTF-8"
)

// Declaration is the XML declaration of a document.
type Declaration struct {
	Version    string
	Encoding   string
	Standalone *bool
}

// DefaultDeclaration returns {"1.0", "UTF-8", absent}.
func DefaultDeclaration() Declaration {
	return Declaration{Version: DefaultVersion, Encoding: DefaultEncoding}
}

// WithDefaults fills empty fields with the default values.
func (d Declaration) WithDefaults() Declaration {
	if d.Version == "" {
		d.Version = DefaultVersion
	}
	if d.Encoding == "" {
		d.Encoding = DefaultEncoding
	}
	return d
}

// Document is a declaration plus exactly one root element.
type Document struct {
	Declaration Declaration
	Root        *Element
}

// NewDocument returns a document with the default declaration around root.
func NewDocument(root *Element) *Document {
	return &Document{Declaration: DefaultDeclaration(), Root: root}
}

// Wrap returns a document whose root is a shallow wrapper of d's root (same tag
// and attributes) holding children. Used for fragment files.
func (d *Document) Wrap(tag string, attrs []Attr, children ...Node) *Document {
	root := &Element{Tag: tag, Attrs: cloneAttrs(attrs), Children: children}
	return &Document{Declaration: d.Declaration, Root: root}
}
