package disassembler

import (
	"fmt"
	"path"
	"strings"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/naming"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// fragment is one output document, placed at a slash-separated path relative
// to the output directory.
type fragment struct {
	rel string
	doc *xmltree.Document
}

// plan is the complete output of one disassembly, computed before any file
// is written.
type plan struct {
	skeleton  fragment
	fragments []fragment
}

// layout carries the per-plan naming inputs.
type layout struct {
	ext          string
	skeletonName string
	stem         string // output directory base name; "<stem>.*" files are skeleton candidates
	fields       []string
	splitTags    map[string]SplitTag
}

// planner accumulates fragments and keeps one name resolver per directory.
type planner struct {
	doc       *xmltree.Document
	layout    layout
	resolvers map[string]*naming.Resolver
	out       []fragment
}

func newPlanner(doc *xmltree.Document, l layout) *planner {
	return &planner{doc: doc, layout: l, resolvers: make(map[string]*naming.Resolver)}
}

func (p *planner) resolve(dir, name string) string {
	r, ok := p.resolvers[dir]
	if !ok {
		r = naming.NewResolver()
		p.resolvers[dir] = r
	}
	return r.Resolve(name)
}

func (p *planner) add(dir, name string, wrapperTag string, wrapperAttrs []xmltree.Attr, children ...xmltree.Node) {
	p.place(dir, p.resolve(dir, name), wrapperTag, wrapperAttrs, children...)
}

// place records a fragment under a name already claimed from the resolver.
func (p *planner) place(dir, name string, wrapperTag string, wrapperAttrs []xmltree.Attr, children ...xmltree.Node) {
	file := name + "." + p.layout.ext
	p.out = append(p.out, fragment{
		rel: path.Join(dir, file),
		doc: p.doc.Wrap(wrapperTag, wrapperAttrs, children...),
	})
}

// splitRoot separates the root's nested element children from everything
// that stays in the skeleton. ok is false when nothing is nested.
func splitRoot(doc *xmltree.Document, skeletonName string) (skeleton fragment, nested []*xmltree.Element, ok bool) {
	root := doc.Root
	keep := make([]xmltree.Node, 0, len(root.Children))
	for _, child := range root.Children {
		if el, isElement := child.(*xmltree.Element); isElement && !el.IsLeaf() {
			nested = append(nested, el)
			continue
		}
		keep = append(keep, child)
	}
	if len(nested) == 0 {
		return fragment{}, nil, false
	}

	skeleton = fragment{
		rel: skeletonName,
		doc: doc.Wrap(root.Tag, root.Attrs, keep...),
	}
	return skeleton, nested, true
}

// planUniqueID places each nested element in its own file under a directory
// named by its tag. Container elements whose children carry their own
// identifiers are expanded into a directory instead of a single file.
func planUniqueID(doc *xmltree.Document, l layout) (*plan, error) {
	skeleton, nested, ok := splitRoot(doc, l.skeletonName)
	if !ok {
		return nil, nil
	}

	p := newPlanner(doc, l)
	root := doc.Root
	siblings := root.Elements()
	for _, el := range nested {
		dir := naming.Sanitize(el.Tag)
		if p.isContainer(el, root.Tag, siblings) {
			p.expandContainer(el, dir)
			continue
		}
		p.add(dir, naming.NameFor(el, l.fields), root.Tag, root.Attrs, el)
	}

	return &plan{skeleton: skeleton, fragments: p.out}, nil
}

func (p *planner) expandContainer(container *xmltree.Element, dir string) {
	children := container.Elements()
	for _, child := range children {
		if !child.IsLeaf() && p.isContainer(child, container.Tag, children) {
			p.expandContainer(child, path.Join(dir, naming.Sanitize(child.Tag)))
			continue
		}
		p.add(dir, naming.NameFor(child, p.layout.fields), container.Tag, nil, child)
	}
}

// isContainer reports whether el only groups identifiable records. Such an
// element has no attributes or content of its own, is the only sibling with
// its tag, and shares its tag with neither its parent, the document root nor
// any of its children.
func (p *planner) isContainer(el *xmltree.Element, parentTag string, siblings []*xmltree.Element) bool {
	fields := p.layout.fields
	if len(fields) == 0 || len(el.Attrs) > 0 {
		return false
	}
	if el.Tag == parentTag || el.Tag == p.doc.Root.Tag {
		return false
	}

	count := 0
	for _, s := range siblings {
		if s.Tag == el.Tag {
			count++
		}
	}
	if count != 1 {
		return false
	}

	for _, child := range el.Children {
		if _, isElement := child.(*xmltree.Element); !isElement {
			return false
		}
	}
	if _, matched := naming.DirectMatch(el, fields); matched {
		return false
	}

	identified := false
	for _, child := range el.Elements() {
		if child.Tag == el.Tag {
			return false
		}
		if _, matched := naming.DirectMatch(child, fields); matched {
			identified = true
		}
	}
	return identified
}

// planGroupedByTag writes all nested elements sharing a tag to one file,
// unless a split tag rule directs that tag into per-element or per-value files.
func planGroupedByTag(doc *xmltree.Document, l layout) (*plan, error) {
	skeleton, nested, ok := splitRoot(doc, l.skeletonName)
	if !ok {
		return nil, nil
	}

	var order []string
	groups := make(map[string][]*xmltree.Element)
	for _, el := range nested {
		if _, seen := groups[el.Tag]; !seen {
			order = append(order, el.Tag)
		}
		groups[el.Tag] = append(groups[el.Tag], el)
	}

	p := newPlanner(doc, l)
	root := doc.Root
	for _, tag := range order {
		elements := groups[tag]
		rule, hasRule := l.splitTags[tag]

		switch {
		case hasRule && rule.Mode == ModeSplit:
			for _, el := range elements {
				p.add(rule.Directory, naming.NameFor(el, []string{rule.Field}), root.Tag, root.Attrs, el)
			}

		case hasRule && rule.Mode == ModeGroup:
			p.group(rule, elements)

		default:
			name := naming.Sanitize(tag)
			file := name + "." + l.ext
			if file == l.skeletonName || strings.HasPrefix(file, l.stem+".") {
				return nil, errs.FS("plan fragments", l.skeletonName,
					fmt.Errorf("tag %q would be written as %s and taken for the skeleton file", tag, file))
			}
			children := make([]xmltree.Node, len(elements))
			for i, el := range elements {
				children[i] = el
			}
			p.add("", name, root.Tag, root.Attrs, children...)
		}
	}

	return &plan{skeleton: skeleton, fragments: p.out}, nil
}

// bucket collects the elements of one group-mode file.
type bucket struct {
	name    string
	missing bool
	nodes   []xmltree.Node
}

// group writes one file per distinct value of rule.Field, in order of first
// appearance. Elements without a usable value share the UngroupedName bucket.
// That name is claimed first; values whose sanitized names collide get
// numbered variants.
func (p *planner) group(rule SplitTag, elements []*xmltree.Element) {
	var buckets []*bucket
	byValue := make(map[string]*bucket)
	var missing *bucket

	for _, el := range elements {
		v, matched := naming.DirectMatch(el, []string{rule.Field})
		var b *bucket
		if !matched || naming.Sanitize(v) == "" {
			if missing == nil {
				missing = &bucket{missing: true}
				buckets = append(buckets, missing)
			}
			b = missing
		} else {
			b = byValue[v]
			if b == nil {
				b = &bucket{name: naming.Sanitize(v)}
				byValue[v] = b
				buckets = append(buckets, b)
			}
		}
		b.nodes = append(b.nodes, el)
	}

	if missing != nil {
		missing.name = p.resolve(rule.Directory, UngroupedName)
	}
	for _, b := range buckets {
		if !b.missing {
			b.name = p.resolve(rule.Directory, b.name)
		}
	}

	root := p.doc.Root
	for _, b := range buckets {
		p.place(rule.Directory, b.name, root.Tag, root.Attrs, b.nodes...)
	}
}
