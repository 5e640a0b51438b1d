// Package nasxml builds an in-memory element tree from a NAS XML document.
// The tree is namespace-aware (encoding/xml resolves prefixes to URIs) and
// read-only after Parse returns.
package nasxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Attr is a namespace-qualified attribute on an element.
type Attr struct {
	Space string
	Local string
	Value string
}

// Element is one node of the parsed document tree. Space holds the
// namespace URI (empty for un-namespaced elements), Text the direct
// character data of the element itself.
type Element struct {
	Space    string
	Local    string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// Parse reads the whole document from r and returns its root element.
// Syntax errors from the underlying decoder are returned as-is; an input
// without a root element yields io.ErrUnexpectedEOF. Content after the root
// element closes (a second element or non-whitespace text) is an error,
// since the decoder itself tolerates such fragments.
func Parse(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)

	var stack []*Element
	var root *Element

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, fmt.Errorf("unexpected element <%s> after document root", t.Name.Local)
			}
			el := &Element{
				Space: t.Name.Space,
				Local: t.Name.Local,
				Attrs: convertAttrs(t.Attr),
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else {
				root = el
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			} else if root != nil && strings.TrimSpace(string(t)) != "" {
				return nil, fmt.Errorf("unexpected character data after document root")
			}
		}
	}

	if root == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

func convertAttrs(attrs []xml.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		// xmlns declarations are already applied by the decoder.
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
	}
	return out
}

// Attr returns the value of the attribute with the given namespace URI and
// local name, or "" if the element does not carry it.
func (e *Element) Attr(space, local string) string {
	for _, a := range e.Attrs {
		if a.Space == space && a.Local == local {
			return a.Value
		}
	}
	return ""
}

// Find walks the given local-name path (all steps in namespace space) and
// returns the first matching descendant, or nil.
func (e *Element) Find(space string, path ...string) *Element {
	cur := e
	for _, step := range path {
		var next *Element
		for _, c := range cur.Children {
			if c.Space == space && c.Local == step {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// FindText returns the trimmed direct text of the element at the given path,
// and whether that element exists at all.
func (e *Element) FindText(space string, path ...string) (string, bool) {
	el := e.Find(space, path...)
	if el == nil {
		return "", false
	}
	return strings.TrimSpace(el.Text), true
}

// ChildrenNamed returns the direct children matching (space, local) in
// document order.
func (e *Element) ChildrenNamed(space, local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Space == space && c.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// Descendants collects, in document order, every element of the subtree
// (including e itself) for which match returns true.
func (e *Element) Descendants(match func(*Element) bool) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(el *Element) {
		if match(el) {
			out = append(out, el)
		}
		for _, c := range el.Children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// FindNamespace walks the tree until it sees an element in one of the
// candidate namespace URIs and returns that URI. NAS documents declare the
// AdV namespace under different GeoInfoDok versions, so the caller passes
// every URI it accepts.
func FindNamespace(root *Element, candidates []string) string {
	set := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		set[c] = true
	}
	found := ""
	var walk func(*Element) bool
	walk = func(el *Element) bool {
		if set[el.Space] {
			found = el.Space
			return true
		}
		for _, c := range el.Children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}
