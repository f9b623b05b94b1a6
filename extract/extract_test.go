package extract_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/extract"
	"github.com/fwojciec/serpscope/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fast returns options that remove every pause from the extraction.
func fast(opts ...extract.Option) []extract.Option {
	return append([]extract.Option{
		extract.WithScrollPlan(serpscope.ScrollPlan{Steps: 4, StepPx: 100}),
		extract.WithExtraWait(0),
		extract.WithRetryWait(0),
		extract.WithRetryDelays(nil),
	}, opts...)
}

func renderer(session serpscope.Session) *mock.Renderer {
	return &mock.Renderer{
		RenderFn: func(_ context.Context, _ string, _ serpscope.RenderOptions) (serpscope.Session, error) {
			return session, nil
		},
	}
}

func headingDoc(texts ...string) *mock.Node {
	children := make([]*mock.Node, len(texts))
	for i, text := range texts {
		children[i] = mock.Element("h2", mock.WithText(text))
	}
	return mock.Document(mock.Element("body", mock.WithChildren(children...)))
}

func TestAggregator_Extract(t *testing.T) {
	t.Parallel()

	t.Run("classifies the primary document", func(t *testing.T) {
		t.Parallel()

		doc := mock.Document(mock.Element("body", mock.WithChildren(
			mock.Element("h1", mock.WithText("Title")),
			mock.Element("h2", mock.WithText("Intro")),
			mock.Element("div", mock.WithText("Pricing"), mock.WithFont("700", 20)),
			mock.Element("h2", mock.WithText("Details")),
		)))
		session := mock.NewSession("https://example.com/", mock.NewFrame("https://example.com/", doc))
		a := extract.NewAggregator(renderer(session), fast()...)

		page, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"Title"}, page.Outline.Headings(1))
		assert.Equal(t, []string{"Intro", "Details"}, page.Outline.Headings(2))
		assert.Equal(t, []string{"Pricing"}, page.Outline.Headings(3))
		assert.False(t, page.Retried)
		assert.Equal(t, page.Outline.Fingerprint(), page.Fingerprint)
	})

	t.Run("merges frames in discovery order and skips cross-origin frames", func(t *testing.T) {
		t.Parallel()

		session := mock.NewSession("https://example.com/",
			mock.NewFrame("https://example.com/", headingDoc("Main", "Shared")),
			mock.NewCrossOriginFrame("https://ads.example.net/"),
			mock.NewFrame("https://example.com/embed", headingDoc("Shared", "Embedded")),
		)
		a := extract.NewAggregator(renderer(session), fast()...)

		page, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"Main", "Shared", "Embedded"}, page.Outline.Headings(2))
		assert.Equal(t, 1, page.Skipped)
		require.Len(t, page.Frames, 2)
		assert.Equal(t, "https://example.com/", page.Frames[0].URL)
		assert.Equal(t, 2, page.Frames[0].Counts[1])
		assert.Equal(t, "https://example.com/embed", page.Frames[1].URL)
		assert.Equal(t, 2, page.Frames[1].Counts[1])
	})

	t.Run("retries a sparse page exactly once and merges without duplicates", func(t *testing.T) {
		t.Parallel()

		var snapshots, scrolls atomic.Int32
		var plans []serpscope.ScrollPlan
		var mu sync.Mutex
		session := mock.NewSession("https://example.com/")
		session.FramesFn = func(context.Context) ([]serpscope.Frame, error) {
			if snapshots.Add(1) == 1 {
				return []serpscope.Frame{mock.NewFrame("https://example.com/", headingDoc("Lazy"))}, nil
			}
			return []serpscope.Frame{mock.NewFrame("https://example.com/", headingDoc("Lazy", "Loaded"))}, nil
		}
		session.ScrollFn = func(_ context.Context, plan serpscope.ScrollPlan) error {
			scrolls.Add(1)
			mu.Lock()
			plans = append(plans, plan)
			mu.Unlock()
			return nil
		}
		a := extract.NewAggregator(renderer(session), fast(extract.WithSparseThreshold(2))...)

		page, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.True(t, page.Retried)
		assert.Equal(t, int32(2), snapshots.Load())
		assert.Equal(t, int32(2), scrolls.Load())
		assert.Equal(t, []string{"Lazy", "Loaded"}, page.Outline.Headings(2))
		require.Len(t, page.Frames, 2)
		assert.True(t, page.Frames[1].Retry)
		assert.Equal(t, 10, plans[1].Steps)
		assert.Equal(t, 140*time.Millisecond, plans[1].Pause)
	})

	t.Run("returns a still-sparse page after one retry", func(t *testing.T) {
		t.Parallel()

		var snapshots atomic.Int32
		session := mock.NewSession("https://example.com/")
		session.FramesFn = func(context.Context) ([]serpscope.Frame, error) {
			snapshots.Add(1)
			return []serpscope.Frame{mock.NewFrame("https://example.com/", headingDoc("Only"))}, nil
		}
		a := extract.NewAggregator(renderer(session), fast(extract.WithSparseThreshold(5))...)

		page, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, int32(2), snapshots.Load())
		assert.Equal(t, []string{"Only"}, page.Outline.Headings(2))
	})

	t.Run("keeps the first pass when the retry snapshot fails", func(t *testing.T) {
		t.Parallel()

		var snapshots atomic.Int32
		session := mock.NewSession("https://example.com/")
		session.FramesFn = func(context.Context) ([]serpscope.Frame, error) {
			if snapshots.Add(1) > 1 {
				return nil, errors.New("execution context was destroyed")
			}
			return []serpscope.Frame{mock.NewFrame("https://example.com/", headingDoc("Only"))}, nil
		}
		a := extract.NewAggregator(renderer(session), fast(extract.WithSparseThreshold(2))...)

		page, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, int32(2), snapshots.Load())
		assert.True(t, page.Retried)
		assert.Equal(t, []string{"Only"}, page.Outline.Headings(2))
		require.Len(t, page.Frames, 1)
		assert.False(t, page.Frames[0].Retry)
	})

	t.Run("omits the page when the deadline expires during the retry", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var snapshots atomic.Int32
		session := mock.NewSession("https://example.com/")
		session.FramesFn = func(ctx context.Context) ([]serpscope.Frame, error) {
			if snapshots.Add(1) > 1 {
				cancel()
				return nil, ctx.Err()
			}
			return []serpscope.Frame{mock.NewFrame("https://example.com/", headingDoc("Only"))}, nil
		}
		a := extract.NewAggregator(renderer(session), fast(extract.WithSparseThreshold(2))...)

		page, err := a.Extract(ctx, "https://example.com/")

		require.Error(t, err)
		assert.Nil(t, page)
		assert.Equal(t, serpscope.EUNREACHABLE, serpscope.ErrorCode(err))
	})

	t.Run("does not retry when the threshold is met", func(t *testing.T) {
		t.Parallel()

		var snapshots atomic.Int32
		session := mock.NewSession("https://example.com/")
		session.FramesFn = func(context.Context) ([]serpscope.Frame, error) {
			snapshots.Add(1)
			return []serpscope.Frame{mock.NewFrame("https://example.com/", headingDoc("One", "Two"))}, nil
		}
		a := extract.NewAggregator(renderer(session), fast()...)

		page, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.False(t, page.Retried)
		assert.Equal(t, int32(1), snapshots.Load())
	})

	t.Run("scales the retry scroll with the configured steps", func(t *testing.T) {
		t.Parallel()

		var last serpscope.ScrollPlan
		session := mock.NewSession("https://example.com/", mock.NewFrame("https://example.com/", headingDoc()))
		session.ScrollFn = func(_ context.Context, plan serpscope.ScrollPlan) error {
			last = plan
			return nil
		}
		a := extract.NewAggregator(renderer(session),
			fast(extract.WithScrollPlan(serpscope.ScrollPlan{Steps: 16, StepPx: 950}))...)

		_, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, 19, last.Steps)
		assert.Equal(t, 950, last.StepPx)
	})

	t.Run("reports error statuses as unreachable and closes the session", func(t *testing.T) {
		t.Parallel()

		var closed atomic.Bool
		session := mock.NewSession("https://example.com/missing")
		session.StatusFn = func() int { return 404 }
		session.CloseFn = func() error {
			closed.Store(true)
			return nil
		}
		a := extract.NewAggregator(renderer(session), fast()...)

		_, err := a.Extract(context.Background(), "https://example.com/missing")

		assert.Equal(t, serpscope.EUNREACHABLE, serpscope.ErrorCode(err))
		assert.Contains(t, serpscope.ErrorMessage(err), "404")
		assert.True(t, closed.Load())
	})

	t.Run("treats an unknown status as unreachable", func(t *testing.T) {
		t.Parallel()

		session := mock.NewSession("https://example.com/")
		session.StatusFn = func() int { return 0 }
		a := extract.NewAggregator(renderer(session), fast()...)

		_, err := a.Extract(context.Background(), "https://example.com/")

		assert.Equal(t, serpscope.EUNREACHABLE, serpscope.ErrorCode(err))
	})

	t.Run("retries failed navigations with backoff", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32
		r := &mock.Renderer{
			RenderFn: func(_ context.Context, _ string, _ serpscope.RenderOptions) (serpscope.Session, error) {
				attempts.Add(1)
				return nil, errors.New("net::ERR_CONNECTION_RESET")
			},
		}
		a := extract.NewAggregator(r, fast(extract.WithRetryDelays([]time.Duration{0, 0}))...)

		_, err := a.Extract(context.Background(), "https://example.com/")

		assert.Equal(t, serpscope.EUNREACHABLE, serpscope.ErrorCode(err))
		assert.Contains(t, serpscope.ErrorMessage(err), "ERR_CONNECTION_RESET")
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("omits noindex pages when respected", func(t *testing.T) {
		t.Parallel()

		session := mock.NewSession("https://example.com/", mock.NewFrame("https://example.com/", headingDoc("A", "B")))
		session.MetaFn = func(context.Context) (*serpscope.PageMeta, error) {
			return &serpscope.PageMeta{Title: "Hidden", Robots: []string{"noindex, follow"}}, nil
		}

		_, err := extract.NewAggregator(renderer(session), fast(extract.WithRespectNoindex(true))...).
			Extract(context.Background(), "https://example.com/")
		assert.Equal(t, serpscope.ENOINDEX, serpscope.ErrorCode(err))

		page, err := extract.NewAggregator(renderer(session), fast()...).
			Extract(context.Background(), "https://example.com/")
		require.NoError(t, err)
		assert.Equal(t, "Hidden", page.Meta.Title)
	})

	t.Run("sends the referer and locale", func(t *testing.T) {
		t.Parallel()

		var got serpscope.RenderOptions
		session := mock.NewSession("https://example.com/", mock.NewFrame("https://example.com/", headingDoc("A", "B")))
		r := &mock.Renderer{
			RenderFn: func(_ context.Context, _ string, opts serpscope.RenderOptions) (serpscope.Session, error) {
				got = opts
				return session, nil
			},
		}
		a := extract.NewAggregator(r, fast(
			extract.WithLocale("ja"),
			extract.WithHeaders(map[string]string{"X-Test": "1"}),
		)...)

		_, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, "ja", got.Locale)
		assert.Equal(t, extract.DefaultReferer, got.Headers["Referer"])
		assert.Equal(t, "1", got.Headers["X-Test"])
	})

	t.Run("counts words of the main content", func(t *testing.T) {
		t.Parallel()

		session := mock.NewSession("https://example.com/", mock.NewFrame("https://example.com/", headingDoc("A", "B")))
		content := &mock.ContentExtractor{
			ExtractFn: func(_ string) (*serpscope.ContentResult, error) {
				return &serpscope.ContentResult{Text: "four words of content"}, nil
			},
		}
		a := extract.NewAggregator(renderer(session), fast(extract.WithContentExtractor(content))...)

		page, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, 4, page.WordCount)
	})

	t.Run("ignores word count failures", func(t *testing.T) {
		t.Parallel()

		session := mock.NewSession("https://example.com/", mock.NewFrame("https://example.com/", headingDoc("A", "B")))
		content := &mock.ContentExtractor{
			ExtractFn: func(_ string) (*serpscope.ContentResult, error) {
				return nil, errors.New("no content")
			},
		}
		a := extract.NewAggregator(renderer(session), fast(extract.WithContentExtractor(content))...)

		page, err := a.Extract(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Zero(t, page.WordCount)
	})
}

func TestAggregator_ExtractAll(t *testing.T) {
	t.Parallel()

	t.Run("keeps listing order and records omissions", func(t *testing.T) {
		t.Parallel()

		r := &mock.Renderer{
			RenderFn: func(_ context.Context, url string, _ serpscope.RenderOptions) (serpscope.Session, error) {
				session := mock.NewSession(url, mock.NewFrame(url, headingDoc(url, "Shared")))
				if url == "https://b.example.com/" {
					session.StatusFn = func() int { return 503 }
				}
				return session, nil
			},
		}
		a := extract.NewAggregator(r, fast(extract.WithConcurrency(3))...)
		urls := []string{"https://a.example.com/", "https://b.example.com/", "https://c.example.com/"}

		var mu sync.Mutex
		var events []serpscope.ExtractProgress
		pages, omitted, err := a.ExtractAll(context.Background(), urls, func(e serpscope.ExtractProgress) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		})

		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, "https://a.example.com/", pages[0].URL)
		assert.Equal(t, 1, pages[0].Position)
		assert.Equal(t, "https://c.example.com/", pages[1].URL)
		assert.Equal(t, 3, pages[1].Position)

		require.Len(t, omitted, 1)
		assert.Equal(t, "https://b.example.com/", omitted[0].URL)
		assert.Equal(t, 2, omitted[0].Position)
		assert.Equal(t, serpscope.EUNREACHABLE, omitted[0].Code)
		assert.Contains(t, omitted[0].Reason, "503")

		require.Len(t, events, 3)
		assert.Equal(t, 3, events[2].Completed)
		assert.Equal(t, 3, events[2].Total)
	})

	t.Run("returns empty results for no URLs", func(t *testing.T) {
		t.Parallel()

		a := extract.NewAggregator(&mock.Renderer{}, fast()...)

		pages, omitted, err := a.ExtractAll(context.Background(), nil, nil)

		require.NoError(t, err)
		assert.Empty(t, pages)
		assert.Empty(t, omitted)
	})

	t.Run("returns the context error when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		r := &mock.Renderer{
			RenderFn: func(ctx context.Context, _ string, _ serpscope.RenderOptions) (serpscope.Session, error) {
				cancel()
				return nil, ctx.Err()
			},
		}
		a := extract.NewAggregator(r, fast()...)

		_, _, err := a.ExtractAll(ctx, []string{"https://example.com/"}, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
