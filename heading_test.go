package serpscope_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTiers = serpscope.ClassifyOptions{HeadingLike: true}

func headingText(tag, text string, opts ...mock.NodeOption) *mock.Node {
	return mock.Element(tag, append([]mock.NodeOption{mock.WithText(text)}, opts...)...)
}

func TestExtractOutline_MixedMarkup(t *testing.T) {
	t.Parallel()

	doc := mock.Document(
		headingText("h1", "Title"),
		headingText("h2", "Intro"),
		headingText("h2", "Details"),
		headingText("div", "Pricing", mock.WithFont("700", 20)),
	)

	o := serpscope.ExtractOutline(allTiers, doc)

	assert.Equal(t, []string{"Title"}, o.Headings(1))
	assert.Equal(t, []string{"Intro", "Details"}, o.Headings(2))
	assert.Equal(t, []string{"Pricing"}, o.Headings(3))
	assert.Empty(t, o.Headings(4))
	assert.Equal(t, 4, o.Len())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("applies tiers in fixed precedence", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(
			headingText("div", "Styled", mock.WithFont("bold", 24)),
			headingText("div", "Aria", mock.WithAttr("role", "heading"), mock.WithAttr("aria-level", "3")),
			headingText("h4", "Native"),
		)

		got := serpscope.Classify(allTiers, doc)

		assert.Equal(t, []serpscope.HeadingRecord{
			{Level: 4, Text: "Native"},
			{Level: 3, Text: "Aria"},
			{Level: 2, Text: "Styled"},
		}, got)
	})

	t.Run("skips heuristic tier unless enabled", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(headingText("div", "Styled", mock.WithFont("800", 32)))

		assert.Empty(t, serpscope.Classify(serpscope.ClassifyOptions{}, doc))
		assert.Len(t, serpscope.Classify(allTiers, doc), 1)
	})

	t.Run("never applies heuristic tier to native headings", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(headingText("h3", "Native", mock.WithFont("700", 32)))

		assert.Equal(t, []serpscope.HeadingRecord{{Level: 3, Text: "Native"}}, serpscope.Classify(allTiers, doc))
	})

	t.Run("records a node once per tier it matches", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(headingText("h2", "Both", mock.WithAttr("role", "heading"), mock.WithAttr("aria-level", "1")))

		assert.Equal(t, []serpscope.HeadingRecord{
			{Level: 2, Text: "Both"},
			{Level: 1, Text: "Both"},
		}, serpscope.Classify(allTiers, doc))
	})

	t.Run("excludes zero-area elements regardless of text", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(
			headingText("h1", "Collapsed", mock.WithStyle(func(s *serpscope.Style) { s.Height = 0 })),
			headingText("h2", "Narrow", mock.WithStyle(func(s *serpscope.Style) { s.Width = 0 })),
			headingText("h2", "None", mock.WithStyle(func(s *serpscope.Style) { s.Display = "none" })),
			headingText("h2", "Hidden", mock.WithStyle(func(s *serpscope.Style) { s.Visibility = "hidden" })),
			headingText("h2", "Shown"),
		)

		assert.Equal(t, []serpscope.HeadingRecord{{Level: 2, Text: "Shown"}}, serpscope.Classify(allTiers, doc))
		assert.Len(t, serpscope.Classify(serpscope.ClassifyOptions{IncludeHidden: true}, doc), 5)
	})

	t.Run("normalizes whitespace and drops empty text", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(
			headingText("h2", "  Getting \n\t started  "),
			headingText("h2", " \n "),
		)

		assert.Equal(t, []serpscope.HeadingRecord{{Level: 2, Text: "Getting started"}}, serpscope.Classify(allTiers, doc))
	})

	t.Run("prefers rendered text over text content", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(
			mock.Element("h2", mock.WithTextContent("raw"), mock.WithRenderedText("Rendered")),
			mock.Element("h2", mock.WithTextContent("Fallback"), mock.WithRenderedText("")),
			mock.Element("h2", mock.WithTextContent("Raw only")),
		)

		assert.Equal(t, []serpscope.HeadingRecord{
			{Level: 2, Text: "Rendered"},
			{Level: 2, Text: "Fallback"},
			{Level: 2, Text: "Raw only"},
		}, serpscope.Classify(allTiers, doc))
	})

	t.Run("finds headings inside shadow roots", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(
			mock.Element("x-hero", mock.WithShadow(headingText("h1", "Shadow title"))),
		)

		assert.Equal(t, []serpscope.HeadingRecord{{Level: 1, Text: "Shadow title"}}, serpscope.Classify(allTiers, doc))
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(
			headingText("h1", "A"),
			mock.Element("section", mock.WithShadow(headingText("h2", "B"))),
			headingText("span", "C", mock.WithAttr("class", "card-title")),
		)

		first := serpscope.ExtractOutline(allTiers, doc)
		second := serpscope.ExtractOutline(allTiers, doc)

		assert.True(t, first.Equal(second))
	})
}

func TestARIALevel(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		attrs []mock.NodeOption
		want  int
	}{
		{"missing", nil, 2},
		{"in range", []mock.NodeOption{mock.WithAttr("aria-level", "4")}, 4},
		{"leading integer", []mock.NodeOption{mock.WithAttr("aria-level", " 5px")}, 5},
		{"zero", []mock.NodeOption{mock.WithAttr("aria-level", "0")}, 2},
		{"too deep", []mock.NodeOption{mock.WithAttr("aria-level", "7")}, 2},
		{"negative", []mock.NodeOption{mock.WithAttr("aria-level", "-1")}, 2},
		{"not a number", []mock.NodeOption{mock.WithAttr("aria-level", "top")}, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			n := mock.Element("div", tc.attrs...)
			assert.Equal(t, tc.want, serpscope.ARIALevel(n))
		})
	}
}

func TestIsARIAHeading(t *testing.T) {
	t.Parallel()

	assert.True(t, serpscope.IsARIAHeading(mock.Element("div", mock.WithAttr("role", "heading"))))
	assert.True(t, serpscope.IsARIAHeading(mock.Element("div", mock.WithAttr("role", " heading "))))
	assert.False(t, serpscope.IsARIAHeading(mock.Element("div", mock.WithAttr("role", "banner"))))
	assert.False(t, serpscope.IsARIAHeading(mock.Element("div")))
}

func TestHeuristicLevel(t *testing.T) {
	t.Parallel()

	t.Run("maps font size bands inclusively", func(t *testing.T) {
		t.Parallel()

		for _, tc := range []struct {
			size float64
			want int
		}{
			{40, 1}, {30, 1}, {29.9, 2}, {24, 2}, {23.9, 3}, {20, 3}, {19.9, 4}, {18, 4},
		} {
			n := mock.Element("div", mock.WithFont("700", tc.size))
			level, ok := serpscope.HeuristicLevel(n)
			assert.True(t, ok, "size %v", tc.size)
			assert.Equal(t, tc.want, level, "size %v", tc.size)
		}
	})

	t.Run("rejects bold text below 18px", func(t *testing.T) {
		t.Parallel()

		_, ok := serpscope.HeuristicLevel(mock.Element("b", mock.WithFont("700", 17.9)))
		assert.False(t, ok)
	})

	t.Run("rejects large regular text", func(t *testing.T) {
		t.Parallel()

		_, ok := serpscope.HeuristicLevel(mock.Element("p", mock.WithFont("400", 32)))
		assert.False(t, ok)
	})

	t.Run("accepts semantic names at any size", func(t *testing.T) {
		t.Parallel()

		for _, opt := range []mock.NodeOption{
			mock.WithAttr("class", "Product-Headline"),
			mock.WithAttr("id", "section-title-2"),
			mock.WithAttr("class", "card heading"),
			mock.WithAttr("id", "subtitle"),
		} {
			level, ok := serpscope.HeuristicLevel(mock.Element("span", opt, mock.WithFont("400", 14)))
			assert.True(t, ok)
			assert.Equal(t, 5, level)
		}
	})
}

func TestIsBold(t *testing.T) {
	t.Parallel()

	assert.True(t, serpscope.IsBold("600"))
	assert.True(t, serpscope.IsBold("700"))
	assert.True(t, serpscope.IsBold("bold"))
	assert.True(t, serpscope.IsBold("Bolder"))
	assert.False(t, serpscope.IsBold("599"))
	assert.False(t, serpscope.IsBold("normal"))
	assert.False(t, serpscope.IsBold("lighter"))
	assert.False(t, serpscope.IsBold(""))
}

func TestOutlineBuilder(t *testing.T) {
	t.Parallel()

	t.Run("suppresses duplicate level and text pairs", func(t *testing.T) {
		t.Parallel()

		b := serpscope.NewOutlineBuilder()
		added := b.Add(
			serpscope.HeadingRecord{Level: 2, Text: "FAQ"},
			serpscope.HeadingRecord{Level: 2, Text: "FAQ"},
			serpscope.HeadingRecord{Level: 3, Text: "FAQ"},
			serpscope.HeadingRecord{Level: 2, Text: " FAQ "},
		)

		assert.Equal(t, 2, added)
		o := b.Outline()
		assert.Equal(t, []string{"FAQ"}, o.Headings(2))
		assert.Equal(t, []string{"FAQ"}, o.Headings(3))
	})

	t.Run("rejects invalid records", func(t *testing.T) {
		t.Parallel()

		b := serpscope.NewOutlineBuilder()
		added := b.Add(
			serpscope.HeadingRecord{Level: 0, Text: "zero"},
			serpscope.HeadingRecord{Level: 7, Text: "seven"},
			serpscope.HeadingRecord{Level: 1, Text: "   "},
		)

		assert.Zero(t, added)
		assert.Zero(t, b.Len())
	})

	t.Run("merges outlines keeping first occurrences", func(t *testing.T) {
		t.Parallel()

		b := serpscope.NewOutlineBuilder()
		b.Merge(serpscope.NewOutline(
			serpscope.HeadingRecord{Level: 1, Text: "Main"},
			serpscope.HeadingRecord{Level: 2, Text: "Shared"},
		))
		added := b.Merge(serpscope.NewOutline(
			serpscope.HeadingRecord{Level: 2, Text: "Shared"},
			serpscope.HeadingRecord{Level: 2, Text: "Frame only"},
		))

		assert.Equal(t, 1, added)
		assert.Equal(t, []string{"Shared", "Frame only"}, b.Outline().Headings(2))
	})

	t.Run("snapshots are unaffected by later additions", func(t *testing.T) {
		t.Parallel()

		b := serpscope.NewOutlineBuilder()
		b.Add(serpscope.HeadingRecord{Level: 1, Text: "A"})
		snap := b.Outline()
		b.Add(serpscope.HeadingRecord{Level: 1, Text: "B"})

		assert.Equal(t, []string{"A"}, snap.Headings(1))
	})
}

func TestOutline_JSON(t *testing.T) {
	t.Parallel()

	o := serpscope.NewOutline(
		serpscope.HeadingRecord{Level: 1, Text: "Title"},
		serpscope.HeadingRecord{Level: 3, Text: "Deep"},
	)

	data, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"h1":["Title"],"h2":[],"h3":["Deep"],"h4":[],"h5":[],"h6":[]}`, string(data))

	var decoded serpscope.Outline
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, o.Equal(decoded))
}

func TestOutline_Counts(t *testing.T) {
	t.Parallel()

	o := serpscope.NewOutline(
		serpscope.HeadingRecord{Level: 2, Text: "a"},
		serpscope.HeadingRecord{Level: 2, Text: "b"},
		serpscope.HeadingRecord{Level: 6, Text: "c"},
	)

	assert.Equal(t, [serpscope.MaxLevel]int{0, 2, 0, 0, 0, 1}, o.Counts())
	assert.Nil(t, o.Headings(0))
	assert.Nil(t, o.Headings(7))
}

func TestOutline_Fingerprint(t *testing.T) {
	t.Parallel()

	a := serpscope.NewOutline(serpscope.HeadingRecord{Level: 1, Text: "A"}, serpscope.HeadingRecord{Level: 2, Text: "B"})
	b := serpscope.NewOutline(serpscope.HeadingRecord{Level: 1, Text: "A"}, serpscope.HeadingRecord{Level: 2, Text: "B"})
	c := serpscope.NewOutline(serpscope.HeadingRecord{Level: 2, Text: "A"}, serpscope.HeadingRecord{Level: 2, Text: "B"})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEmpty(t, serpscope.Outline{}.Fingerprint())
}
