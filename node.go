package serpscope

import "iter"

// NodeKind distinguishes element nodes from the containers that hold them.
type NodeKind int

// NodeKind constants.
const (
	ElementNode NodeKind = iota
	DocumentNode
	ShadowRootNode
)

// Style holds the computed presentation of an element as far as heading
// classification is concerned.
type Style struct {
	// FontWeight is the raw font-weight value ("700", "bold", "normal").
	FontWeight string
	// FontSize is the font size in CSS pixels.
	FontSize float64
	// Display and Visibility are the computed CSS values.
	Display    string
	Visibility string
	// Width and Height are the rendered box dimensions in CSS pixels.
	Width  float64
	Height float64
}

// Node is an opaque handle to a node of a rendered document tree. Handles
// are owned by the renderer that produced them and are read-only.
type Node interface {
	// Kind reports whether the node is an element, a document or a shadow root.
	Kind() NodeKind

	// Tag returns the lower-case tag name of an element, or "" for containers.
	Tag() string

	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)

	// Children returns the element children in document order.
	Children() []Node

	// ShadowRoot returns the element's open shadow root. Closed shadow
	// roots are never returned.
	ShadowRoot() (Node, bool)

	// Style returns the computed style of an element.
	Style() Style

	// RenderedText returns the layout-aware text of the element, when the
	// renderer can provide it.
	RenderedText() (string, bool)

	// TextContent returns the raw text content of the node's subtree.
	TextContent() string
}

// Walker enumerates every element below a set of roots, descending into open
// shadow roots. Traversal is depth-first and pre-order; a host's shadow tree
// is visited immediately after the host and before its light children.
// Frame documents are never entered. A Walker cannot be restarted.
type Walker struct {
	stack []Node
}

// NewWalker returns a Walker over the given roots, visited in order.
func NewWalker(roots ...Node) *Walker {
	w := &Walker{stack: make([]Node, 0, len(roots))}
	for i := len(roots) - 1; i >= 0; i-- {
		if roots[i] != nil {
			w.stack = append(w.stack, roots[i])
		}
	}
	return w
}

// Next returns the next element, or false when the traversal is exhausted.
func (w *Walker) Next() (Node, bool) {
	for len(w.stack) > 0 {
		n := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			w.stack = append(w.stack, children[i])
		}

		if n.Kind() != ElementNode {
			continue
		}
		if shadow, ok := n.ShadowRoot(); ok && shadow != nil {
			w.stack = append(w.stack, shadow)
		}
		return n, true
	}
	return nil, false
}

// All returns the remaining elements as a sequence.
func (w *Walker) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for {
			n, ok := w.Next()
			if !ok || !yield(n) {
				return
			}
		}
	}
}
