// Package trafilatura measures the main content of a page with
// go-trafilatura.
package trafilatura

import (
	"strings"

	"github.com/fwojciec/serpscope"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements serpscope.ContentExtractor at compile time.
var _ serpscope.ContentExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract the main content of a page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes rendered HTML and returns the title and main text.
// Comment sections are excluded.
func (e *Extractor) Extract(rawHTML string) (*serpscope.ContentResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, serpscope.Errorf(serpscope.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	text := result.ContentText
	if text == "" && result.ContentNode != nil {
		text = nodeText(result.ContentNode)
	}

	return &serpscope.ContentResult{
		Title: result.Metadata.Title,
		Text:  strings.TrimSpace(text),
	}, nil
}

// nodeText joins the text nodes under n with spaces.
func nodeText(n *html.Node) string {
	var b strings.Builder
	stack := []*html.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
			b.WriteByte(' ')
		}
		for c := cur.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return b.String()
}
