package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/polyglot/internal/store"
)

func TestNewMemoryCache_InvalidSize(t *testing.T) {
	_, err := NewMemoryCache(0, nil)
	require.Error(t, err)
}

func TestMemoryCache_Standalone(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2, nil)
	require.NoError(t, err)

	_, ok, err := c.Lookup(ctx, "Hello", "en", "uk")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Remember(ctx, store.Entry{SourceText: "Hello", SourceLang: "en", TargetLang: "uk", FinalText: "Привіт"}))
	text, ok, err := c.Lookup(ctx, " Hello ", "en", "uk")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Привіт", text)

	require.NoError(t, c.Remember(ctx, store.Entry{SourceText: "One", SourceLang: "en", TargetLang: "uk", FinalText: "Один"}))
	require.NoError(t, c.Remember(ctx, store.Entry{SourceText: "Two", SourceLang: "en", TargetLang: "uk", FinalText: "Два"}))
	assert.Equal(t, 2, c.Len())

	_, ok, _ = c.Lookup(ctx, "Hello", "en", "uk")
	assert.False(t, ok, "oldest entry should be evicted")
}

func TestMemoryCache_NormalizesKeys(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(4, nil)
	require.NoError(t, err)

	require.NoError(t, c.Remember(ctx, store.Entry{SourceText: "caf\u00e9", SourceLang: "fr", TargetLang: "uk", FinalText: "кав'ярня"}))

	text, ok, err := c.Lookup(ctx, "cafe\u0301", "fr", "uk")
	require.NoError(t, err)
	assert.True(t, ok, "decomposed spelling should hit the same entry")
	assert.Equal(t, "кав'ярня", text)
}

func TestMemoryCache_BackedByStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.New(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	first, err := NewMemoryCache(8, db)
	require.NoError(t, err)
	require.NoError(t, first.Remember(ctx, store.Entry{
		RequestID:  "req-1",
		SourceText: "Hello",
		SourceLang: "en",
		TargetLang: "uk",
		FinalText:  "Привіт",
		Provider:   "google",
	}))

	// a fresh process only has the persistent copy
	second, err := NewMemoryCache(8, db)
	require.NoError(t, err)
	assert.Zero(t, second.Len())

	text, ok, err := second.Lookup(ctx, "Hello", "en", "uk")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Привіт", text)
	assert.Equal(t, 1, second.Len())
}
