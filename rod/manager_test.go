//go:build integration

package rod_test

import (
	"testing"

	"github.com/fwojciec/serpscope"
	"github.com/fwojciec/serpscope/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_RecyclesBrowserAfterMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(3))
	require.NoError(t, err)
	defer manager.Close()

	first, release, err := manager.Acquire()
	require.NoError(t, err)
	release()
	for range 2 {
		_, release, err := manager.Acquire()
		require.NoError(t, err)
		release()
	}

	second, release, err := manager.Acquire()
	require.NoError(t, err)
	defer release()

	assert.NotSame(t, first, second)
}

func TestBrowserManager_DoesNotRecycleWhileSessionsAreActive(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(rod.WithMaxPages(1))
	require.NoError(t, err)
	defer manager.Close()

	first, releaseFirst, err := manager.Acquire()
	require.NoError(t, err)
	_, releaseSecond, err := manager.Acquire()
	require.NoError(t, err)
	releaseSecond()

	same, releaseThird, err := manager.Acquire()
	require.NoError(t, err)
	defer releaseThird()
	releaseFirst()

	assert.Same(t, first, same)
}

func TestBrowserManager_AcquireAfterClose(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	_, _, err = manager.Acquire()
	assert.Equal(t, serpscope.EINVALID, serpscope.ErrorCode(err))
}
