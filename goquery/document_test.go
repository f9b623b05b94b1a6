package goquery_test

import (
	"testing"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outline(t *testing.T, html string, opts serpscope.ClassifyOptions) serpscope.Outline {
	t.Helper()

	doc, err := goquery.Parse(html, "https://example.com/")
	require.NoError(t, err)
	return serpscope.ExtractOutline(opts, doc.Root())
}

func TestParse_Headings(t *testing.T) {
	t.Parallel()

	t.Run("recovers native, aria and styled headings", func(t *testing.T) {
		t.Parallel()

		o := outline(t, `<html><body>
<h1>Title</h1>
<h2>Intro</h2>
<h2>Details</h2>
<div style="font-weight: 700; font-size: 20px">Pricing</div>
<div role="heading" aria-level="4">Aria</div>
</body></html>`, serpscope.ClassifyOptions{HeadingLike: true})

		assert.Equal(t, []string{"Title"}, o.Headings(1))
		assert.Equal(t, []string{"Intro", "Details"}, o.Headings(2))
		assert.Equal(t, []string{"Pricing"}, o.Headings(3))
		assert.Equal(t, []string{"Aria"}, o.Headings(4))
	})

	t.Run("enters open declarative shadow roots only", func(t *testing.T) {
		t.Parallel()

		o := outline(t, `<html><body>
<x-card><template shadowrootmode="open"><h2>Open shadow</h2></template><p>light</p></x-card>
<x-card><template shadowrootmode="closed"><h2>Closed shadow</h2></template></x-card>
</body></html>`, serpscope.ClassifyOptions{})

		assert.Equal(t, []string{"Open shadow"}, o.Headings(2))
	})

	t.Run("hides elements under display none", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<div style="display:none"><h2>Collapsed</h2></div>
<h2 hidden>Hidden attr</h2>
<h2 style="visibility: hidden">Invisible</h2>
<h2>Shown</h2>
</body></html>`

		assert.Equal(t, []string{"Shown"}, outline(t, html, serpscope.ClassifyOptions{}).Headings(2))
		assert.Len(t, outline(t, html, serpscope.ClassifyOptions{IncludeHidden: true}).Headings(2), 4)
	})

	t.Run("inherits and resolves font sizes", func(t *testing.T) {
		t.Parallel()

		o := outline(t, `<html><body>
<div style="font-size: 20px"><span style="font-weight:bold; font-size: 1.5em">Big</span></div>
<div style="font-size: 24pt; font-weight: 600">Points</div>
<div style="font-weight: 800"><span style="font-size: 2rem">Rems</span></div>
<b style="font-size: large">Keyword</b>
<b>Small bold</b>
</body></html>`, serpscope.ClassifyOptions{HeadingLike: true})

		assert.Equal(t, []string{"Big", "Points", "Rems"}, o.Headings(1))
		assert.Equal(t, []string{"Keyword"}, o.Headings(4))
		assert.NotContains(t, o.Headings(5), "Small bold")
	})

	t.Run("matches semantic class names", func(t *testing.T) {
		t.Parallel()

		o := outline(t, `<html><body><span class="hero-headline">Catchy</span></body></html>`,
			serpscope.ClassifyOptions{HeadingLike: true})

		assert.Equal(t, []string{"Catchy"}, o.Headings(5))
	})

	t.Run("skips template contents in text", func(t *testing.T) {
		t.Parallel()

		o := outline(t, `<html><body><h2>Visible<template>tmpl</template></h2></body></html>`, serpscope.ClassifyOptions{})

		assert.Equal(t, []string{"Visible"}, o.Headings(2))
	})
}

func TestDocument_Meta(t *testing.T) {
	t.Parallel()

	doc, err := goquery.Parse(`<html><head>
<title> Page title </title>
<meta name="Description" content="What it is">
<meta name="robots" content="noindex, follow">
<meta property="og:title" content="ignored">
</head><body></body></html>`, "https://example.com/")
	require.NoError(t, err)

	meta := doc.Meta()

	assert.Equal(t, "Page title", meta.Title)
	assert.Equal(t, "What it is", meta.Description)
	assert.Equal(t, []string{"noindex, follow"}, meta.Robots)
	assert.True(t, meta.NoIndex())
}

func TestDocument_VisibleText(t *testing.T) {
	t.Parallel()

	doc, err := goquery.Parse(`<html><head><title>T</title><style>.x{}</style></head><body>
<p>AI  Overview</p>
<script>var hidden = "secret";</script>
<div hidden>gone</div>
<p>end</p>
</body></html>`, "https://example.com/")
	require.NoError(t, err)

	text := doc.VisibleText()

	assert.Contains(t, text, "AI Overview")
	assert.Contains(t, text, "end")
	assert.NotContains(t, text, "secret")
	assert.NotContains(t, text, "gone")
	assert.NotContains(t, text, ".x{}")
}
