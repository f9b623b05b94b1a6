package rod_test

import (
	"testing"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotFixture = `{"frames":[
 {"url":"https://example.com/","accessible":true,"doc":{"k":1,"c":[
  {"k":0,"t":"html","st":{"fw":"400","fs":16,"d":"block","v":"visible","w":800,"h":600},"c":[
   {"k":0,"t":"h1","st":{"fw":"700","fs":32,"d":"block","v":"visible","w":800,"h":40},"rt":"Main title","r":true,"tc":"Main title"},
   {"k":0,"t":"x-card","st":{"fw":"400","fs":16,"d":"block","v":"visible","w":800,"h":40},
    "s":{"k":2,"c":[{"k":0,"t":"h2","st":{"fw":"700","fs":24,"d":"block","v":"visible","w":800,"h":30},"rt":"","r":true,"tc":"From shadow"}]}},
   {"k":0,"t":"div","a":{"role":"heading","aria-level":"3"},"st":{"fw":"400","fs":16,"d":"none","v":"visible","w":0,"h":0},"tc":"Hidden aria"},
   {"k":0,"t":"iframe","st":{"fw":"400","fs":16,"d":"block","v":"visible","w":300,"h":150}}
  ]}
 ]}},
 {"url":"https://ads.example.net/frame","accessible":false}
]}`

func TestDecodeSnapshot(t *testing.T) {
	t.Parallel()

	frames, err := rod.DecodeSnapshot([]byte(snapshotFixture))
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, "https://example.com/", frames[0].URL())
	doc, ok := frames[0].Document()
	require.True(t, ok)
	assert.Equal(t, serpscope.DocumentNode, doc.Kind())

	_, ok = frames[1].Document()
	assert.False(t, ok)
	assert.Equal(t, "https://ads.example.net/frame", frames[1].URL())

	t.Run("classifies decoded nodes", func(t *testing.T) {
		t.Parallel()

		o := serpscope.ExtractOutline(serpscope.ClassifyOptions{HeadingLike: true}, doc)

		assert.Equal(t, []string{"Main title"}, o.Headings(1))
		assert.Equal(t, []string{"From shadow"}, o.Headings(2))
		assert.Empty(t, o.Headings(3))
	})

	t.Run("includes hidden nodes on request", func(t *testing.T) {
		t.Parallel()

		o := serpscope.ExtractOutline(serpscope.ClassifyOptions{IncludeHidden: true}, doc)

		assert.Equal(t, []string{"Hidden aria"}, o.Headings(3))
	})
}

func TestDecodeSnapshot_Errors(t *testing.T) {
	t.Parallel()

	_, err := rod.DecodeSnapshot([]byte(`not json`))
	assert.Error(t, err)

	_, err = rod.DecodeSnapshot([]byte(`{"frames":[]}`))
	assert.Equal(t, serpscope.EINTERNAL, serpscope.ErrorCode(err))
}

func TestDecodeMeta(t *testing.T) {
	t.Parallel()

	meta, err := rod.DecodeMeta([]byte(`{"title":"T","description":"D","robots":["noindex, nofollow"]}`))

	require.NoError(t, err)
	assert.Equal(t, "T", meta.Title)
	assert.Equal(t, "D", meta.Description)
	assert.True(t, meta.NoIndex())
}
