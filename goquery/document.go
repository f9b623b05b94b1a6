package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/serpscope"
)

// Document is a parsed, unrendered HTML document.
type Document struct {
	url  string
	doc  *goquery.Document
	root *node
}

// Parse parses html fetched from pageURL.
func Parse(html, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, serpscope.Errorf(serpscope.EINVALID, "failed to parse HTML: %v", err)
	}
	return &Document{url: pageURL, doc: doc, root: buildTree(doc.Nodes[0])}, nil
}

// URL returns the document URL.
func (d *Document) URL() string { return d.url }

// Root returns the document root for traversal.
func (d *Document) Root() serpscope.Node { return d.root }

// Selection returns the underlying goquery document.
func (d *Document) Selection() *goquery.Document { return d.doc }

// HTML serializes the document.
func (d *Document) HTML() (string, error) {
	return d.doc.Html()
}

// VisibleText returns the text of rendered elements.
func (d *Document) VisibleText() string {
	return visibleText(d.root)
}

// Meta extracts the title, description and robots directives.
func (d *Document) Meta() *serpscope.PageMeta {
	meta := &serpscope.PageMeta{
		Title: strings.TrimSpace(d.doc.Find("title").First().Text()),
	}
	d.doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		name := strings.ToLower(sel.AttrOr("name", ""))
		content := sel.AttrOr("content", "")
		if name == "description" && meta.Description == "" {
			meta.Description = content
		}
		if name == "robots" || name == "googlebot" || strings.Contains(strings.ToLower(content), "noindex") {
			meta.Robots = append(meta.Robots, content)
		}
	})
	return meta
}

// frameRef is an embedded frame found in a document.
type frameRef struct {
	url    string
	srcdoc string
	inline bool
}

// frameRefs lists the document's iframes in document order, including the
// ones inside declarative shadow roots.
func (d *Document) frameRefs() []frameRef {
	base, _ := url.Parse(d.url)
	var refs []frameRef
	for n := range serpscope.NewWalker(d.root).All() {
		if tag := n.Tag(); tag != "iframe" && tag != "frame" {
			continue
		}
		if srcdoc, ok := n.Attr("srcdoc"); ok {
			refs = append(refs, frameRef{url: "about:srcdoc", srcdoc: srcdoc, inline: true})
			continue
		}
		src, _ := n.Attr("src")
		if src == "" || isNonHTTPLink(src) {
			refs = append(refs, frameRef{url: "about:blank", inline: true})
			continue
		}
		refs = append(refs, frameRef{url: resolveURL(base, src)})
	}
	return refs
}
