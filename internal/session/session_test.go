package session

import (
	"testing"

	"github.com/pymanager/pymanager/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRejectsSecondHolder(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)
	b := New(dir)

	require.NoError(t, a.Lock())
	err := b.Lock()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another pymanager process")

	require.NoError(t, a.Unlock())
	require.NoError(t, b.Lock())
	require.NoError(t, b.Unlock())
}

func TestFeedCacheRoundTrips(t *testing.T) {
	s := New(t.TempDir())
	_, ok := s.CachedFeed("https://example/feed.json")
	assert.False(t, ok)

	doc := &feed.Document{Versions: []feed.Entry{{ID: "x"}}}
	s.CacheFeed("https://example/feed.json", doc)

	got, ok := s.CachedFeed("https://example/feed.json")
	require.True(t, ok)
	assert.Same(t, doc, got)
}

func TestScratchAndLinkCacheAreIndependentMaps(t *testing.T) {
	s := New(t.TempDir())
	s.Scratch()["k"] = 1
	s.LinkCache()["tpl"] = "alias"

	assert.Equal(t, 1, s.Scratch()["k"])
	assert.Equal(t, "alias", s.LinkCache()["tpl"])
}

func TestWelcomeLatchOnSession(t *testing.T) {
	s := New(t.TempDir())
	count := 0
	s.Welcome.Once(func() { count++ })
	s.Welcome.Once(func() { count++ })
	assert.Equal(t, 1, count)
	assert.True(t, s.Welcome.Fired())
}
