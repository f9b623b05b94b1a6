package goquery

import (
	"strconv"
	"strings"

	"github.com/fwojciec/serpscope"
)

// rootFontSize is the initial font size in CSS pixels.
const rootFontSize = 16

// hiddenTags are never rendered.
var hiddenTags = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"noscript": true, "title": true, "meta": true, "link": true,
}

// inlineTags render inline by default; every other element is a block.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "cite": true,
	"code": true, "data": true, "dfn": true, "em": true, "i": true, "kbd": true,
	"label": true, "mark": true, "q": true, "s": true, "samp": true, "small": true,
	"span": true, "strong": true, "sub": true, "sup": true, "time": true,
	"u": true, "var": true, "img": true, "button": true, "input": true, "select": true,
}

// headingScale holds the user agent font size of native headings in em.
var headingScale = map[string]float64{
	"h1": 2, "h2": 1.5, "h3": 1.17, "h4": 1, "h5": 0.83, "h6": 0.67,
}

var boldTags = map[string]bool{
	"b": true, "strong": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var fontSizeKeywords = map[string]float64{
	"xx-small": 9, "x-small": 10, "small": 13, "medium": 16,
	"large": 18, "x-large": 24, "xx-large": 32, "xxx-large": 48,
}

// cascade is the inherited style state passed from parent to child.
type cascade struct {
	weight     string
	size       float64
	visibility string
	// collapsed is set when an ancestor is not rendered.
	collapsed bool
}

func rootCascade() cascade {
	return cascade{weight: "400", size: rootFontSize, visibility: "visible"}
}

// computeStyle resolves the style of an element from user agent defaults,
// the element's inline style attribute and its parent's cascade. Without a
// layout engine every rendered element gets a 1x1 box.
func computeStyle(tag string, attr func(string) (string, bool), parent cascade) (serpscope.Style, cascade) {
	st := serpscope.Style{
		FontWeight: parent.weight,
		FontSize:   parent.size,
		Display:    "block",
		Visibility: parent.visibility,
	}
	if inlineTags[tag] {
		st.Display = "inline"
	}
	if hiddenTags[tag] {
		st.Display = "none"
	}
	if _, ok := attr("hidden"); ok {
		st.Display = "none"
	}
	if boldTags[tag] {
		st.FontWeight = "700"
	}
	if scale, ok := headingScale[tag]; ok {
		st.FontSize = parent.size * scale
	}

	if raw, ok := attr("style"); ok {
		for _, decl := range strings.Split(raw, ";") {
			prop, value, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			prop = strings.ToLower(strings.TrimSpace(prop))
			value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
			lower := strings.ToLower(value)
			switch prop {
			case "font-weight":
				st.FontWeight = fontWeight(lower, parent.weight)
			case "font-size":
				if size, ok := fontSize(lower, parent.size); ok {
					st.FontSize = size
				}
			case "display":
				st.Display = lower
			case "visibility":
				st.Visibility = lower
			}
		}
	}

	next := cascade{
		weight:     st.FontWeight,
		size:       st.FontSize,
		visibility: st.Visibility,
		collapsed:  parent.collapsed || st.Display == "none",
	}
	if !next.collapsed {
		st.Width, st.Height = 1, 1
	}
	return st, next
}

func fontWeight(value, inherited string) string {
	switch value {
	case "normal":
		return "400"
	case "bold":
		return "700"
	case "inherit", "":
		return inherited
	default:
		return value
	}
}

func fontSize(value string, parent float64) (float64, bool) {
	if size, ok := fontSizeKeywords[value]; ok {
		return size, true
	}
	switch value {
	case "smaller":
		return parent / 1.2, true
	case "larger":
		return parent * 1.2, true
	case "inherit":
		return parent, true
	}
	for _, unit := range []struct {
		suffix string
		scale  func(float64) float64
	}{
		{"rem", func(v float64) float64 { return v * rootFontSize }},
		{"px", func(v float64) float64 { return v }},
		{"pt", func(v float64) float64 { return v * 4 / 3 }},
		{"em", func(v float64) float64 { return v * parent }},
		{"%", func(v float64) float64 { return v * parent / 100 }},
	} {
		if num, ok := strings.CutSuffix(value, unit.suffix); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil {
				return 0, false
			}
			return unit.scale(v), true
		}
	}
	return 0, false
}
