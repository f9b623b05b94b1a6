package mock

import (
	"strings"

	"github.com/fwojciec/serpscope"
)

var _ serpscope.Node = (*Node)(nil)

// Node is an in-memory document tree node for tests.
type Node struct {
	NodeKind  serpscope.NodeKind
	TagName   string
	Attrs     map[string]string
	Kids      []*Node
	Shadow    *Node
	Computed  serpscope.Style
	Rendered  string
	HasRender bool
	OwnText   string
}

// NodeOption configures a Node built by Element.
type NodeOption func(*Node)

// DefaultStyle is the style of an element built by Element: a visible,
// 100x20 block of regular 16px text.
var DefaultStyle = serpscope.Style{
	FontWeight: "400",
	FontSize:   16,
	Display:    "block",
	Visibility: "visible",
	Width:      100,
	Height:     20,
}

// Document returns a document node holding children.
func Document(children ...*Node) *Node {
	return &Node{NodeKind: serpscope.DocumentNode, Kids: children}
}

// Element returns an element node with the default style.
func Element(tag string, opts ...NodeOption) *Node {
	n := &Node{
		NodeKind: serpscope.ElementNode,
		TagName:  tag,
		Attrs:    make(map[string]string),
		Computed: DefaultStyle,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// WithText sets both the rendered text and the text content.
func WithText(text string) NodeOption {
	return func(n *Node) {
		n.OwnText = text
		n.Rendered = text
		n.HasRender = true
	}
}

// WithTextContent sets the text content only; rendered text is unavailable.
func WithTextContent(text string) NodeOption {
	return func(n *Node) {
		n.OwnText = text
		n.HasRender = false
	}
}

// WithRenderedText sets the rendered text independently of the text content.
func WithRenderedText(text string) NodeOption {
	return func(n *Node) {
		n.Rendered = text
		n.HasRender = true
	}
}

// WithAttr sets an attribute.
func WithAttr(name, value string) NodeOption {
	return func(n *Node) { n.Attrs[name] = value }
}

// WithStyle modifies the computed style.
func WithStyle(fn func(*serpscope.Style)) NodeOption {
	return func(n *Node) { fn(&n.Computed) }
}

// WithFont sets the font weight and size.
func WithFont(weight string, size float64) NodeOption {
	return WithStyle(func(s *serpscope.Style) {
		s.FontWeight = weight
		s.FontSize = size
	})
}

// WithChildren appends light-tree children.
func WithChildren(children ...*Node) NodeOption {
	return func(n *Node) { n.Kids = append(n.Kids, children...) }
}

// WithShadow attaches an open shadow root holding children.
func WithShadow(children ...*Node) NodeOption {
	return func(n *Node) {
		n.Shadow = &Node{NodeKind: serpscope.ShadowRootNode, Kids: children}
	}
}

func (n *Node) Kind() serpscope.NodeKind { return n.NodeKind }

func (n *Node) Tag() string { return n.TagName }

func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

func (n *Node) Children() []serpscope.Node {
	children := make([]serpscope.Node, len(n.Kids))
	for i, k := range n.Kids {
		children[i] = k
	}
	return children
}

func (n *Node) ShadowRoot() (serpscope.Node, bool) {
	if n.Shadow == nil {
		return nil, false
	}
	return n.Shadow, true
}

func (n *Node) Style() serpscope.Style { return n.Computed }

func (n *Node) RenderedText() (string, bool) { return n.Rendered, n.HasRender }

// TextContent returns the node's own text followed by its light children's.
func (n *Node) TextContent() string {
	var b strings.Builder
	b.WriteString(n.OwnText)
	for _, k := range n.Kids {
		b.WriteString(k.TextContent())
	}
	return b.String()
}
