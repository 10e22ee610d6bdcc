package multilevel

import (
	"fmt"

	"github.com/leefowlercu/xml-disassembler/internal/errs"
	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// Strip removes the wrapper named target from doc.
//
// When target is the root tag, the returned document keeps a bare root of the
// same tag and the original root's attributes become the wrapper. When target
// is the root's only element child, that child's content moves up under the
// unchanged root and the child becomes the wrapper. ok is false when neither
// case applies.
func Strip(doc *xmltree.Document, target string) (inner *xmltree.Document, wrapper Wrapper, strippedRoot bool, ok bool) {
	root := xmltree.Normalize(doc.Root)

	if root.Tag == target {
		inner = &xmltree.Document{
			Declaration: doc.Declaration,
			Root:        &xmltree.Element{Tag: root.Tag, Children: root.Children},
		}
		return inner, Wrapper{Tag: root.Tag, Attributes: toAttributes(root.Attrs)}, true, true
	}

	if len(root.Children) != 1 {
		return nil, Wrapper{}, false, false
	}
	child, isElement := root.Children[0].(*xmltree.Element)
	if !isElement || child.Tag != target {
		return nil, Wrapper{}, false, false
	}

	inner = &xmltree.Document{
		Declaration: doc.Declaration,
		Root:        &xmltree.Element{Tag: root.Tag, Attrs: root.Attrs, Children: child.Children},
	}
	return inner, Wrapper{Tag: child.Tag, Attributes: toAttributes(child.Attrs)}, false, true
}

// Rewrap restores the wrapper recorded in e around a merged inner document.
func Rewrap(doc *xmltree.Document, e Entry) (*xmltree.Document, error) {
	if doc == nil || doc.Root == nil {
		return nil, errs.New(errs.ErrInconsistentMetadata, "rewrap", e.InnerDir, fmt.Errorf("merged document is empty"))
	}
	if doc.Root.Tag != e.RootTag {
		return nil, errs.New(errs.ErrInconsistentMetadata, "rewrap", e.InnerDir,
			fmt.Errorf("merged root %q does not match recorded root %q", doc.Root.Tag, e.RootTag))
	}

	if e.StrippedRoot {
		root := &xmltree.Element{Tag: e.Wrapper.Tag, Attrs: fromAttributes(e.Wrapper.Attributes)}
		root.MergeAttrs(doc.Root.Attrs)
		root.Children = doc.Root.Children
		return &xmltree.Document{Declaration: doc.Declaration, Root: root}, nil
	}

	wrapper := &xmltree.Element{
		Tag:      e.Wrapper.Tag,
		Attrs:    fromAttributes(e.Wrapper.Attributes),
		Children: doc.Root.Children,
	}
	root := &xmltree.Element{Tag: doc.Root.Tag, Attrs: doc.Root.Attrs, Children: []xmltree.Node{wrapper}}
	return &xmltree.Document{Declaration: doc.Declaration, Root: root}, nil
}
