package goquery

import (
	"strings"

	"github.com/fwojciec/serpscope"
	"golang.org/x/net/html"
)

var _ serpscope.Node = (*node)(nil)

// node adapts a parsed HTML node to serpscope.Node. Rendered text is never
// available since no layout runs.
type node struct {
	kind     serpscope.NodeKind
	h        *html.Node
	children []*node
	shadow   *node
	style    serpscope.Style
}

// buildTree wraps the element tree below h. Declarative shadow roots
// (<template shadowrootmode="open">) become shadow roots of their host;
// closed ones are dropped.
func buildTree(h *html.Node) *node {
	root := &node{kind: serpscope.DocumentNode, h: h}
	root.children = buildChildren(h, rootCascade(), nil)
	return root
}

func buildChildren(parent *html.Node, c cascade, host *node) []*node {
	var out []*node
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		if child.Data == "template" {
			mode := strings.ToLower(attrValue(child, "shadowrootmode"))
			if mode == "" {
				mode = strings.ToLower(attrValue(child, "shadowroot"))
			}
			if host != nil && host.shadow == nil && mode == "open" {
				host.shadow = &node{kind: serpscope.ShadowRootNode, h: child}
				host.shadow.children = buildChildren(child, c, nil)
			}
			continue
		}
		out = append(out, buildElement(child, c))
	}
	return out
}

func buildElement(h *html.Node, parent cascade) *node {
	n := &node{kind: serpscope.ElementNode, h: h}
	st, c := computeStyle(h.Data, func(name string) (string, bool) { return lookupAttr(h, name) }, parent)
	n.style = st
	n.children = buildChildren(h, c, n)
	return n
}

func (n *node) Kind() serpscope.NodeKind { return n.kind }

func (n *node) Tag() string {
	if n.kind != serpscope.ElementNode {
		return ""
	}
	return n.h.Data
}

func (n *node) Attr(name string) (string, bool) {
	if n.kind != serpscope.ElementNode {
		return "", false
	}
	return lookupAttr(n.h, name)
}

func (n *node) Children() []serpscope.Node {
	children := make([]serpscope.Node, len(n.children))
	for i, c := range n.children {
		children[i] = c
	}
	return children
}

func (n *node) ShadowRoot() (serpscope.Node, bool) {
	if n.shadow == nil {
		return nil, false
	}
	return n.shadow, true
}

func (n *node) Style() serpscope.Style { return n.style }

func (n *node) RenderedText() (string, bool) { return "", false }

// TextContent concatenates the text below the node, skipping template
// contents as the DOM does.
func (n *node) TextContent() string {
	var b strings.Builder
	for c := n.h.FirstChild; c != nil; c = c.NextSibling {
		collectText(&b, c)
	}
	return b.String()
}

func collectText(b *strings.Builder, h *html.Node) {
	switch h.Type {
	case html.TextNode:
		b.WriteString(h.Data)
		return
	case html.ElementNode:
		if h.Data == "template" {
			return
		}
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// visibleText collects the text of rendered elements, separating elements
// with spaces.
func visibleText(n *node) string {
	var parts []string
	var walk func(n *node)
	walk = func(n *node) {
		if n.kind == serpscope.ElementNode && n.style.Display == "none" {
			return
		}
		var own strings.Builder
		for c := n.h.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				own.WriteString(c.Data)
			}
		}
		if text := serpscope.NormalizeText(own.String()); text != "" {
			parts = append(parts, text)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

func lookupAttr(h *html.Node, name string) (string, bool) {
	for _, a := range h.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(h *html.Node, name string) string {
	v, _ := lookupAttr(h, name)
	return v
}
