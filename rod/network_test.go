package rod

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkTracker(t *testing.T) {
	t.Parallel()

	t.Run("records requests and the last document status", func(t *testing.T) {
		t.Parallel()

		tr := newNetworkTracker()
		tr.started("1", "https://example.com/")
		tr.started("2", "https://example.com/app.js")
		tr.document(301)
		tr.document(200)

		assert.Equal(t, []string{"https://example.com/", "https://example.com/app.js"}, tr.Requests())
		assert.Equal(t, 200, tr.Status())
	})

	t.Run("is idle only with nothing in flight after the window", func(t *testing.T) {
		t.Parallel()

		now := time.Unix(1000, 0)
		tr := newNetworkTracker()
		tr.now = func() time.Time { return now }

		tr.started("1", "https://example.com/")
		now = now.Add(time.Second)
		assert.False(t, tr.idle(DefaultIdleWindow))

		tr.finished("1")
		assert.False(t, tr.idle(DefaultIdleWindow))

		now = now.Add(DefaultIdleWindow)
		assert.True(t, tr.idle(DefaultIdleWindow))
	})

	t.Run("waitIdle gives up at the timeout without error", func(t *testing.T) {
		t.Parallel()

		tr := newNetworkTracker()
		tr.started("1", "https://example.com/stream")

		err := tr.waitIdle(context.Background(), DefaultIdleWindow, 150*time.Millisecond)
		require.NoError(t, err)
	})

	t.Run("waitIdle honors cancellation", func(t *testing.T) {
		t.Parallel()

		tr := newNetworkTracker()
		tr.started("1", "https://example.com/stream")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := tr.waitIdle(ctx, DefaultIdleWindow, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
