// Package readability supplies word-countable page text with go-readability,
// as an alternative to package trafilatura.
package readability

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/serpscope"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements serpscope.ContentExtractor at compile time.
var _ serpscope.ContentExtractor = (*Extractor)(nil)

// DefaultMinWords is the article length below which the command line counts
// the whole body.
const DefaultMinWords = 50

// Extractor reduces a rendered page to the words of its article body,
// separated by single spaces.
type Extractor struct {
	minWords int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinWords counts the whole visible body instead when the detected
// article has fewer than n words. Listing and tool pages often have no
// article readability can find.
func WithMinWords(n int) Option {
	return func(e *Extractor) { e.minWords = n }
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the page title and its article words.
func (e *Extractor) Extract(rawHTML string) (*serpscope.ContentResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, serpscope.Errorf(serpscope.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(article.TextContent)
	if len(words) < e.minWords {
		if body := bodyWords(rawHTML); len(body) > len(words) {
			words = body
		}
	}

	return &serpscope.ContentResult{
		Title: article.Title,
		Text:  strings.Join(words, " "),
	}, nil
}

// bodyWords returns the words of the body outside scripts and styles.
func bodyWords(rawHTML string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	doc.Find("script, style, noscript, template").Remove()
	return strings.Fields(doc.Find("body").Text())
}
