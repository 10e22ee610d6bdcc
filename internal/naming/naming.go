// Package naming derives deterministic file names for extracted elements.
package naming

import (
	"encoding/hex"
	"strconv"
	"strings"
	"unicode"

	"github.com/zeebo/blake3"

	"github.com/leefowlercu/xml-disassembler/internal/xmltree"
)

// HashLength is the number of hex characters used for content-hash names.
const HashLength = 8

// NameFor returns the file name component for el.
//
// The first field in fields that names an attribute of el, or a direct child
// element holding a single text value, supplies the name. Failing that, the
// first descendant (depth-first, document order) with such a field supplies
// it. Otherwise the name is the content hash of el.
func NameFor(el *xmltree.Element, fields []string) string {
	if v, ok := DirectMatch(el, fields); ok {
		if name := Sanitize(v); name != "" {
			return name
		}
	}
	if v, ok := nestedMatch(el, fields); ok {
		if name := Sanitize(v); name != "" {
			return name
		}
	}
	return ContentHash(el)
}

// DirectMatch looks up fields in priority order on el itself.
func DirectMatch(el *xmltree.Element, fields []string) (string, bool) {
	for _, field := range fields {
		if field == "" {
			continue
		}
		if v, ok := el.Attr(field); ok {
			return v, true
		}
		for _, child := range el.Elements() {
			if child.Tag != field {
				continue
			}
			if v, ok := child.TextValue(); ok {
				return v, true
			}
		}
	}
	return "", false
}

func nestedMatch(el *xmltree.Element, fields []string) (string, bool) {
	for _, child := range el.Elements() {
		if v, ok := DirectMatch(child, fields); ok {
			return v, true
		}
		if v, ok := nestedMatch(child, fields); ok {
			return v, true
		}
	}
	return "", false
}

// ContentHash returns the first HashLength hex characters of the BLAKE3 hash
// of the element's canonical serialization.
func ContentHash(el *xmltree.Element) string {
	sum := blake3.Sum256(xmltree.Canonical(el))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// Sanitize makes v safe to use as a single path component. Path separators
// and control characters become "_", as does a leading dot.
func Sanitize(v string) string {
	v = strings.TrimSpace(v)
	var b strings.Builder
	for _, r := range v {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.HasPrefix(out, ".") {
		out = "_" + out[1:]
	}
	return out
}

// Resolver hands out unique names within one directory. The first claim of a
// name keeps it; later claims get "_2", "_3", ... in claim order.
type Resolver struct {
	used map[string]bool
	next map[string]int
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{used: make(map[string]bool), next: make(map[string]int)}
}

// Reserve marks name as taken without returning a variant.
func (r *Resolver) Reserve(name string) {
	r.used[name] = true
}

// Resolve claims name, or the first free numbered variant of it.
func (r *Resolver) Resolve(name string) string {
	if !r.used[name] {
		r.used[name] = true
		return name
	}
	n := r.next[name]
	if n < 2 {
		n = 2
	}
	for {
		candidate := name + "_" + strconv.Itoa(n)
		n++
		if !r.used[candidate] {
			r.next[name] = n
			r.used[candidate] = true
			return candidate
		}
	}
}
