package serpscope

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MaxLevel is the deepest heading level.
const MaxLevel = 6

// DefaultARIALevel is assigned to role="heading" elements without a usable
// aria-level attribute.
const DefaultARIALevel = 2

// HeadingRecord is a single recovered heading.
type HeadingRecord struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Outline maps heading levels 1..6 to heading texts in traversal order.
// An Outline is immutable once built; use OutlineBuilder to construct one.
type Outline struct {
	levels [MaxLevel][]string
}

// Headings returns the texts recorded at level. The returned slice must not
// be modified.
func (o Outline) Headings(level int) []string {
	if level < 1 || level > MaxLevel {
		return nil
	}
	return o.levels[level-1]
}

// Counts returns the number of headings per level, index 0 being level 1.
func (o Outline) Counts() [MaxLevel]int {
	var counts [MaxLevel]int
	for i, texts := range o.levels {
		counts[i] = len(texts)
	}
	return counts
}

// Len returns the total number of headings across all levels.
func (o Outline) Len() int {
	var n int
	for _, texts := range o.levels {
		n += len(texts)
	}
	return n
}

// Records returns all headings, level 1 first.
func (o Outline) Records() []HeadingRecord {
	records := make([]HeadingRecord, 0, o.Len())
	for i, texts := range o.levels {
		for _, text := range texts {
			records = append(records, HeadingRecord{Level: i + 1, Text: text})
		}
	}
	return records
}

// Equal reports whether both outlines hold the same headings in the same order.
func (o Outline) Equal(other Outline) bool {
	for i := range o.levels {
		if len(o.levels[i]) != len(other.levels[i]) {
			return false
		}
		for j := range o.levels[i] {
			if o.levels[i][j] != other.levels[i][j] {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes the outline as {"h1": [...], ..., "h6": [...]}.
func (o Outline) MarshalJSON() ([]byte, error) {
	m := make(map[string][]string, MaxLevel)
	for i, texts := range o.levels {
		if texts == nil {
			texts = []string{}
		}
		m[fmt.Sprintf("h%d", i+1)] = texts
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the format produced by MarshalJSON. Duplicate
// entries are dropped.
func (o *Outline) UnmarshalJSON(data []byte) error {
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	b := NewOutlineBuilder()
	for level := 1; level <= MaxLevel; level++ {
		for _, text := range m[fmt.Sprintf("h%d", level)] {
			b.Add(HeadingRecord{Level: level, Text: text})
		}
	}
	*o = b.Outline()
	return nil
}

// NewOutline builds an outline from records, suppressing duplicates.
func NewOutline(records ...HeadingRecord) Outline {
	b := NewOutlineBuilder()
	b.Add(records...)
	return b.Outline()
}

// OutlineBuilder accumulates headings for one aggregation pass. The first
// occurrence of a (level, text) pair wins; later duplicates are dropped.
// An OutlineBuilder is not safe for concurrent use.
type OutlineBuilder struct {
	seen   map[HeadingRecord]struct{}
	levels [MaxLevel][]string
}

// NewOutlineBuilder returns an empty builder.
func NewOutlineBuilder() *OutlineBuilder {
	return &OutlineBuilder{seen: make(map[HeadingRecord]struct{})}
}

// Add appends records that are valid and not yet seen, returning how many
// were added.
func (b *OutlineBuilder) Add(records ...HeadingRecord) int {
	var added int
	for _, r := range records {
		r.Text = NormalizeText(r.Text)
		if r.Text == "" || r.Level < 1 || r.Level > MaxLevel {
			continue
		}
		if _, ok := b.seen[r]; ok {
			continue
		}
		b.seen[r] = struct{}{}
		b.levels[r.Level-1] = append(b.levels[r.Level-1], r.Text)
		added++
	}
	return added
}

// Merge adds every heading of o, returning how many were new.
func (b *OutlineBuilder) Merge(o Outline) int {
	return b.Add(o.Records()...)
}

// Len returns the number of headings accumulated so far.
func (b *OutlineBuilder) Len() int {
	return len(b.seen)
}

// Outline returns a snapshot of the accumulated headings.
func (b *OutlineBuilder) Outline() Outline {
	var o Outline
	for i, texts := range b.levels {
		if len(texts) > 0 {
			o.levels[i] = append([]string(nil), texts...)
		}
	}
	return o
}

// ClassifyOptions configures heading classification.
type ClassifyOptions struct {
	// IncludeHidden disables the visibility filter.
	IncludeHidden bool
	// HeadingLike enables the visual heuristic tier.
	HeadingLike bool
}

// Classify walks the roots and returns heading records in tier order: native
// headings, then ARIA headings, then (with HeadingLike) styled headings.
// Within a tier, records follow traversal order. Records are not deduplicated.
func Classify(opts ClassifyOptions, roots ...Node) []HeadingRecord {
	var records []HeadingRecord
	push := func(level int, n Node) {
		if !opts.IncludeHidden && !IsVisible(n.Style()) {
			return
		}
		text := NormalizeText(elementText(n))
		if text == "" {
			return
		}
		records = append(records, HeadingRecord{Level: level, Text: text})
	}

	for n := range NewWalker(roots...).All() {
		if level, ok := NativeLevel(n.Tag()); ok {
			push(level, n)
		}
	}

	for n := range NewWalker(roots...).All() {
		if IsARIAHeading(n) {
			push(ARIALevel(n), n)
		}
	}

	if opts.HeadingLike {
		for n := range NewWalker(roots...).All() {
			if level, ok := HeuristicLevel(n); ok {
				push(level, n)
			}
		}
	}

	return records
}

// ExtractOutline classifies the roots and returns the deduplicated outline.
func ExtractOutline(opts ClassifyOptions, roots ...Node) Outline {
	return NewOutline(Classify(opts, roots...)...)
}

// NativeLevel returns the level of a native heading tag (h1..h6).
func NativeLevel(tag string) (int, bool) {
	if len(tag) != 2 || (tag[0] != 'h' && tag[0] != 'H') {
		return 0, false
	}
	level := int(tag[1] - '0')
	if level < 1 || level > MaxLevel {
		return 0, false
	}
	return level, true
}

// IsARIAHeading reports whether n carries an explicit heading role.
func IsARIAHeading(n Node) bool {
	role, ok := n.Attr("role")
	return ok && strings.TrimSpace(role) == "heading"
}

// ARIALevel returns the aria-level of n when it is within 1..6, otherwise
// DefaultARIALevel.
func ARIALevel(n Node) int {
	raw, ok := n.Attr("aria-level")
	if !ok {
		return DefaultARIALevel
	}
	level, ok := leadingInt(raw)
	if !ok || level < 1 || level > MaxLevel {
		return DefaultARIALevel
	}
	return level
}

var semanticNameRe = regexp.MustCompile(`title|heading|headline|section-title`)

// HasSemanticName reports whether the element's id or class names it as a
// heading.
func HasSemanticName(n Node) bool {
	id, _ := n.Attr("id")
	class, _ := n.Attr("class")
	return semanticNameRe.MatchString(strings.ToLower(id + " " + class))
}

// HeuristicLevel classifies an element that is not a native heading by its
// styling: bold text of at least 18px, or a heading-like id/class.
func HeuristicLevel(n Node) (int, bool) {
	if _, native := NativeLevel(n.Tag()); native {
		return 0, false
	}
	st := n.Style()
	heavy := IsBold(st.FontWeight)
	if !(heavy && st.FontSize >= 18) && !HasSemanticName(n) {
		return 0, false
	}
	return LevelForFontSize(st.FontSize), true
}

// LevelForFontSize maps a font size in pixels to a heading level. Bounds
// are inclusive: 30px is level 1, 29.9px is level 2.
func LevelForFontSize(size float64) int {
	switch {
	case size >= 30:
		return 1
	case size >= 24:
		return 2
	case size >= 20:
		return 3
	case size >= 18:
		return 4
	default:
		return 5
	}
}

var boldKeywordRe = regexp.MustCompile(`(?i)bold|bolder`)

// IsBold reports whether a font-weight value is visually bold.
func IsBold(weight string) bool {
	if w, ok := leadingInt(weight); ok {
		return w >= 600
	}
	return boldKeywordRe.MatchString(weight)
}

// IsVisible reports whether an element with the given style is rendered.
func IsVisible(st Style) bool {
	return st.Width > 0 && st.Height > 0 && st.Display != "none" && st.Visibility != "hidden"
}

// NormalizeText collapses runs of whitespace to a single space and trims.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// elementText prefers the rendered text and falls back to the raw text
// content when the rendered text is unavailable or empty.
func elementText(n Node) string {
	if text, ok := n.RenderedText(); ok && text != "" {
		return text
	}
	return n.TextContent()
}

// leadingInt parses the integer prefix of s, ignoring leading whitespace.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	var n, digits int
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	return sign * n, true
}
