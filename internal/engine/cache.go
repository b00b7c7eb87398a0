package engine

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/valpere/polyglot/internal/store"
)

// Cache is a translation memory. *store.Store and *MemoryCache implement it.
type Cache interface {
	Lookup(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error)
	Remember(ctx context.Context, e store.Entry) error
}

type cacheKey struct {
	text   string
	source string
	target string
}

// MemoryCache keeps recent translations in process, in front of an optional
// persistent cache.
type MemoryCache struct {
	recent *lru.Cache[cacheKey, string]
	next   Cache
}

func NewMemoryCache(size int, next Cache) (*MemoryCache, error) {
	recent, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, errors.Wrapf(err, "create lru of size %d", size)
	}
	return &MemoryCache{recent: recent, next: next}, nil
}

func keyOf(text, source, target string) cacheKey {
	return cacheKey{text: store.NormalizeText(text), source: source, target: target}
}

func (c *MemoryCache) Lookup(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	key := keyOf(sourceText, sourceLang, targetLang)
	if text, ok := c.recent.Get(key); ok {
		return text, true, nil
	}
	if c.next == nil {
		return "", false, nil
	}

	text, ok, err := c.next.Lookup(ctx, sourceText, sourceLang, targetLang)
	if err != nil || !ok {
		return "", false, err
	}
	c.recent.Add(key, text)
	return text, true, nil
}

func (c *MemoryCache) Remember(ctx context.Context, e store.Entry) error {
	c.recent.Add(keyOf(e.SourceText, e.SourceLang, e.TargetLang), e.FinalText)
	if c.next == nil {
		return nil
	}
	return c.next.Remember(ctx, e)
}

// Len is the number of translations held in process.
func (c *MemoryCache) Len() int {
	return c.recent.Len()
}
