package serpscope

import (
	"context"
	"regexp"
	"slices"
	"strings"
)

// DefaultThemeLimit is the number of themes kept by TopThemes.
const DefaultThemeLimit = 7

// themeWeights scores headings by level; deeper levels do not contribute.
var themeWeights = map[int]int{1: 3, 2: 2, 3: 1}

// Theme is a heading text recurring across competing pages.
type Theme struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// TopThemes scores heading texts across outlines and returns the best limit
// themes. Ties keep the order of first appearance.
func TopThemes(outlines []Outline, limit int) []Theme {
	if limit <= 0 {
		limit = DefaultThemeLimit
	}
	index := make(map[string]int)
	var themes []Theme
	for _, o := range outlines {
		for level := 1; level <= 3; level++ {
			for _, text := range o.Headings(level) {
				i, ok := index[text]
				if !ok {
					i = len(themes)
					index[text] = i
					themes = append(themes, Theme{Text: text})
				}
				themes[i].Score += themeWeights[level]
			}
		}
	}
	slices.SortStableFunc(themes, func(a, b Theme) int { return b.Score - a.Score })
	if len(themes) > limit {
		themes = themes[:limit]
	}
	return themes
}

// ThemeTexts returns the texts of themes.
func ThemeTexts(themes []Theme) []string {
	texts := make([]string, len(themes))
	for i, t := range themes {
		texts[i] = t.Text
	}
	return texts
}

// Intent is the dominant search intent of a query.
type Intent string

// Intent constants.
const (
	Informational Intent = "Informational"
	Transactional Intent = "Transactional"
	Navigational  Intent = "Navigational"
)

// ParseIntent matches s case-insensitively against the known intents.
func ParseIntent(s string) (Intent, bool) {
	for _, i := range []Intent{Informational, Transactional, Navigational} {
		if strings.EqualFold(strings.TrimSpace(s), string(i)) {
			return i, true
		}
	}
	return "", false
}

var (
	transactionalRe = regexp.MustCompile(`buy|price|pricing|compare|best|software|solution|platform|vendor|quote|demo`)
	informationalRe = regexp.MustCompile(`what|how|guide|meaning|definition|vs|types|examples|faq`)
	navigationalRe  = regexp.MustCompile(`login|portal|homepage|brand|official`)
)

// DetectIntent infers intent from theme keywords. Transactional cues take
// precedence over informational ones; the default is Informational.
func DetectIntent(themes []Theme) Intent {
	t := strings.ToLower(strings.Join(ThemeTexts(themes), " "))
	switch {
	case transactionalRe.MatchString(t):
		return Transactional
	case informationalRe.MatchString(t):
		return Informational
	case navigationalRe.MatchString(t):
		return Navigational
	default:
		return Informational
	}
}

// IntentLabeler assigns a search intent to a query given its top themes.
type IntentLabeler interface {
	LabelIntent(ctx context.Context, query string, themes []Theme) (Intent, error)
}

// HeuristicIntentLabeler labels intent with DetectIntent.
type HeuristicIntentLabeler struct{}

// LabelIntent implements IntentLabeler.
func (HeuristicIntentLabeler) LabelIntent(_ context.Context, _ string, themes []Theme) (Intent, error) {
	return DetectIntent(themes), nil
}
