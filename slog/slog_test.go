package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/mock"
	serpslog "github.com/fwojciec/serpscope/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRenderer_Render(t *testing.T) {
	t.Parallel()

	t.Run("logs render with status and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Renderer{
			RenderFn: func(_ context.Context, url string, _ serpscope.RenderOptions) (serpscope.Session, error) {
				return mock.NewSession(url), nil
			},
		}

		r := serpslog.NewLoggingRenderer(inner, logger)
		s, err := r.Render(context.Background(), "https://example.com/crm", serpscope.RenderOptions{Locale: "ja"})

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/crm", s.URL())
		output := buf.String()
		assert.Contains(t, output, "render")
		assert.Contains(t, output, "url=https://example.com/crm")
		assert.Contains(t, output, "locale=ja")
		assert.Contains(t, output, "status=200")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Renderer{
			RenderFn: func(context.Context, string, serpscope.RenderOptions) (serpscope.Session, error) {
				return nil, errors.New("navigation timeout")
			},
		}

		_, err := serpslog.NewLoggingRenderer(inner, logger).Render(context.Background(), "https://example.com/", serpscope.RenderOptions{})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "status=0")
		assert.Contains(t, output, "err=\"navigation timeout\"")
	})
}

func TestLoggingSearchClient(t *testing.T) {
	t.Parallel()

	q := serpscope.SearchQuery{Query: "crm", Location: "Japan", HL: "ja"}

	t.Run("logs search with bytes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SearchClient{
			SearchFn: func(context.Context, serpscope.SearchQuery) (*serpscope.SearchResult, error) {
				return &serpscope.SearchResult{Raw: []byte(`{"ok":1}`)}, nil
			},
		}

		res, err := serpslog.NewLoggingSearchClient(inner, logger).Search(context.Background(), q)

		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":1}`, string(res.Raw))
		output := buf.String()
		assert.Contains(t, output, "msg=search")
		assert.Contains(t, output, "query=crm")
		assert.Contains(t, output, "location=Japan")
		assert.Contains(t, output, "bytes=8")
	})

	t.Run("logs overview search failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SearchClient{
			SearchAIOverviewFn: func(context.Context, serpscope.SearchQuery) (*serpscope.SearchResult, error) {
				return nil, errors.New("quota exceeded")
			},
		}

		_, err := serpslog.NewLoggingSearchClient(inner, logger).SearchAIOverview(context.Background(), q)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "overview search")
		assert.Contains(t, output, "bytes=0")
		assert.Contains(t, output, "err=\"quota exceeded\"")
	})
}

func TestLoggingReportWriter_WriteReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	var called bool
	inner := &mock.ReportWriter{
		WriteReportFn: func(context.Context, *serpscope.Report) error {
			called = true
			return errors.New("disk full")
		},
	}

	err := serpslog.NewLoggingReportWriter(inner, "xlsx", logger).WriteReport(context.Background(), &serpscope.Report{
		RunID: "run-1",
		Pages: []*serpscope.PageResult{{}, {}},
	})

	require.Error(t, err)
	assert.True(t, called)
	output := buf.String()
	assert.Contains(t, output, "write report")
	assert.Contains(t, output, "dest=xlsx")
	assert.Contains(t, output, "run=run-1")
	assert.Contains(t, output, "pages=2")
	assert.Contains(t, output, "err=\"disk full\"")
}

func TestLoggingIntentLabeler_LabelIntent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.IntentLabeler{
		LabelIntentFn: func(context.Context, string, []serpscope.Theme) (serpscope.Intent, error) {
			return serpscope.Navigational, nil
		},
	}

	intent, err := serpslog.NewLoggingIntentLabeler(inner, logger).LabelIntent(context.Background(), "hubspot login", []serpscope.Theme{{Text: "Log in"}})

	require.NoError(t, err)
	assert.Equal(t, serpscope.Navigational, intent)
	output := buf.String()
	assert.Contains(t, output, "intent labeling")
	assert.Contains(t, output, "intent=Navigational")
	assert.Contains(t, output, "themes=1")
}
