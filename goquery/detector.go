package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/serpscope"
)

// Ensure Detector implements serpscope.MarkerDetector at compile time.
var _ serpscope.MarkerDetector = (*Detector)(nil)

// Marker ties a CSS selector to the feature it reveals.
type Marker struct {
	Feature  serpscope.Feature
	Selector string
}

// DefaultMarkers are the structural markers of results page features.
var DefaultMarkers = []Marker{
	{serpscope.FeaturedSnippet, `[data-attrid="wa:/description"]`},
	{serpscope.FeaturedSnippet, `[data-attrid="kc:/webanswers:wa"]`},
	{serpscope.KnowledgePanel, `#kp-wp-tab-overview`},
	{serpscope.KnowledgePanel, `[data-attrid="title"]`},
	{serpscope.PeopleAlsoAsk, `div[aria-label*="People also ask" i]`},
	{serpscope.PeopleAlsoAsk, `div[jsname="Cpkphb"]`},
	{serpscope.Video, `g-scrolling-carousel a[href*="youtube.com"]`},
	{serpscope.Video, `a[href*="watch?v="]`},
	{serpscope.ImagePack, `g-scrolling-carousel img`},
	{serpscope.ImagePack, `div[data-hveid][data-ved] img`},
	{serpscope.AIOverview, `div[aria-label*="AI overview" i]`},
	{serpscope.AIOverview, `div[aria-label*="overview from AI" i]`},
}

type compiledMarker struct {
	feature serpscope.Feature
	matcher cascadia.Matcher
}

// Detector identifies results page features from HTML content by checking
// for feature-specific attributes and structural markers.
type Detector struct {
	markers []compiledMarker
}

// NewDetector compiles markers, or DefaultMarkers when none are given.
func NewDetector(markers ...Marker) (*Detector, error) {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	d := &Detector{}
	for _, m := range markers {
		sel, err := cascadia.Compile(m.Selector)
		if err != nil {
			return nil, serpscope.Errorf(serpscope.EINVALID, "invalid marker selector %q: %v", m.Selector, err)
		}
		d.markers = append(d.markers, compiledMarker{feature: m.Feature, matcher: sel})
	}
	return d, nil
}

// DetectMarkers reports, per feature, whether any of its markers is present.
// Every feature of serpscope.Features has an entry.
func (d *Detector) DetectMarkers(html string) (map[serpscope.Feature]bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, serpscope.Errorf(serpscope.EINVALID, "failed to parse HTML: %v", err)
	}

	found := make(map[serpscope.Feature]bool, len(serpscope.Features))
	for _, f := range serpscope.Features {
		found[f] = false
	}
	for _, m := range d.markers {
		if found[m.feature] {
			continue
		}
		found[m.feature] = d.hasMatch(doc, m.matcher)
	}
	return found, nil
}

// hasMatch checks if the document contains at least one element matching m.
func (d *Detector) hasMatch(doc *goquery.Document, m cascadia.Matcher) bool {
	return cascadia.Query(doc.Nodes[0], m) != nil
}
