package readability_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_RejectsEmptyInput(t *testing.T) {
	t.Parallel()

	ext := readability.NewExtractor()
	_, err := ext.Extract("")

	require.Error(t, err)
	assert.Equal(t, serpscope.EINVALID, serpscope.ErrorCode(err))
}

func TestExtractor_ExtractsTitle(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title>Page Title</title></head>
<body><article><p>Content</p></article></body>
</html>`

	ext := readability.NewExtractor()
	result, err := ext.Extract(html)

	require.NoError(t, err)
	assert.Equal(t, "Page Title", result.Title)
}

func TestExtractor_RemovesNavigation(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<nav><a href="/home">Home Nav Link</a><a href="/about">About Nav Link</a></nav>
<article><p>This is the main article content that should be preserved in the output.</p></article>
</body>
</html>`

	ext := readability.NewExtractor()
	result, err := ext.Extract(html)

	require.NoError(t, err)
	assert.NotContains(t, result.Text, "Home Nav Link")
	assert.NotContains(t, result.Text, "About Nav Link")
}

func TestExtractor_RemovesFooter(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<article><p>This is the main article content that should be preserved in the output.</p></article>
<footer><p>Footer copyright text 2026</p></footer>
</body>
</html>`

	ext := readability.NewExtractor()
	result, err := ext.Extract(html)

	require.NoError(t, err)
	assert.NotContains(t, result.Text, "Footer copyright text")
}

func TestExtractor_ReturnsPlainText(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<article>
<h1>Main Heading</h1>
<p>Some <strong>intro</strong> text here.</p>
<ul><li>First item</li><li>Second item</li></ul>
</article>
</body>
</html>`

	ext := readability.NewExtractor()
	result, err := ext.Extract(html)

	require.NoError(t, err)
	assert.Contains(t, result.Text, "intro text here")
	assert.Contains(t, result.Text, "Second item")
	assert.NotContains(t, result.Text, "<strong")
	assert.NotContains(t, result.Text, "<li")
}

func TestExtractor_ProducesCountableWords(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body><article><p>alpha beta gamma delta epsilon</p></article></body>
</html>`

	ext := readability.NewExtractor()
	result, err := ext.Extract(html)

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma", "delta", "epsilon"}, strings.Fields(result.Text))
}

func TestExtractor_CollapsesWhitespace(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body><article><p>one
	two     three</p><p>four</p></article></body>
</html>`

	result, err := readability.NewExtractor().Extract(html)

	require.NoError(t, err)
	assert.NotContains(t, result.Text, "  ")
	assert.NotContains(t, result.Text, "\n")
	assert.Equal(t, 4, len(strings.Fields(result.Text)))
}

func TestExtractor_WithMinWords(t *testing.T) {
	t.Parallel()

	html := `<!DOCTYPE html>
<html>
<head><title>Tools</title><script>var hidden = "script words";</script></head>
<body>
<div>
<a href="/a">Alpha tool</a> <a href="/b">Beta tool</a> <a href="/c">Gamma tool</a>
<a href="/d">Delta tool</a> <a href="/e">Epsilon tool</a>
</div>
<style>.x { color: red }</style>
</body>
</html>`

	t.Run("counts the body when the article is too short", func(t *testing.T) {
		t.Parallel()

		result, err := readability.NewExtractor(readability.WithMinWords(500)).Extract(html)

		require.NoError(t, err)
		assert.Contains(t, result.Text, "Alpha tool")
		assert.Contains(t, result.Text, "Epsilon tool")
		assert.NotContains(t, result.Text, "script words")
		assert.NotContains(t, result.Text, "color")
	})

	t.Run("keeps the article when it is long enough", func(t *testing.T) {
		t.Parallel()

		page := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body>
<nav><a href="/home">Home Nav Link</a></nav>
<article><p>This is the main article content that should be preserved in the output.</p></article>
</body>
</html>`

		result, err := readability.NewExtractor(readability.WithMinWords(3)).Extract(page)

		require.NoError(t, err)
		assert.Contains(t, result.Text, "main article content")
		assert.NotContains(t, result.Text, "Home Nav Link")
	})
}
